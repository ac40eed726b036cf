package statusserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghalamif/commsentinel/internal/ports"
)

func TestRoutes(t *testing.T) {
	origReg := prometheus.DefaultRegisterer
	origGatherer := prometheus.DefaultGatherer
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGatherer
	})
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	polls := prometheus.NewCounter(prometheus.CounterOpts{Name: "commsentinel_polls_total", Help: "polls"})
	reg.MustRegister(polls)
	polls.Add(3)

	s := New(":0", func() any {
		return map[string]any{"state": "IN_COMM", "iteration": 7}
	}, mockObs{})
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	body := get(t, ts.URL+"/healthz")
	if body != "ok" {
		t.Fatalf("expected ok from /healthz, got %q", body)
	}

	body = get(t, ts.URL+"/metrics")
	if !strings.Contains(body, "commsentinel_polls_total 3") {
		t.Fatalf("metrics output missing polls counter:\n%s", body)
	}

	var st map[string]any
	if err := json.Unmarshal([]byte(get(t, ts.URL+"/status")), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st["state"] != "IN_COMM" || st["iteration"] != float64(7) {
		t.Fatalf("unexpected status %v", st)
	}
}

func TestStatusUnavailableWithoutProvider(t *testing.T) {
	ts := httptest.NewServer(New(":0", nil, mockObs{}).Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", url, err)
	}
	return string(b)
}

type mockObs struct{}

func (mockObs) LogDebug(string, ...ports.Field)           {}
func (mockObs) LogInfo(string, ...ports.Field)            {}
func (mockObs) LogError(string, error, ...ports.Field)    {}
func (mockObs) LogCritical(string, error, ...ports.Field) {}
func (mockObs) IncCounter(string, float64)                {}
func (mockObs) ObserveLatency(string, float64)            {}
func (mockObs) SetGauge(string, float64)                  {}
