package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

func TestFetchSortsAndCopiesSeries(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	src := &stubSource{data: map[string]domain.Series{
		"2C15PALV": {
			{Channel: "2C15PALV", Value: domain.Number(15.0), Time: t0.Add(2 * time.Second)},
			{Channel: "2C15PALV", Value: domain.Number(14.9), Time: t0},
		},
	}}
	s := New(src, &mockObs{})

	snap, err := s.Fetch(context.Background(), Request{Channels: []string{"2C15PALV"}, Start: t0.Add(-time.Minute)})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	latest, ok := snap.Latest("2C15PALV")
	if !ok {
		t.Fatalf("expected a latest reading")
	}
	if v, _ := latest.Value.Float(); v != 15.0 {
		t.Fatalf("expected latest 15.0 after sort, got %v", v)
	}
	if src.data["2C15PALV"][0].Time != t0.Add(2*time.Second) {
		t.Fatalf("source data must not be reordered in place")
	}
}

func TestFetchMissingChannelIsDataUnavailable(t *testing.T) {
	src := &stubSource{data: map[string]domain.Series{
		"A": {{Channel: "A", Value: domain.Number(1), Time: time.Now()}},
	}}
	s := New(src, &mockObs{})

	_, err := s.Fetch(context.Background(), Request{Channels: []string{"A", "B"}, Start: time.Now().Add(-time.Minute)})
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestFetchAllowSubsetOmitsMissingChannels(t *testing.T) {
	src := &stubSource{data: map[string]domain.Series{
		"A": {{Channel: "A", Value: domain.Number(1), Time: time.Now()}},
	}}
	s := New(src, &mockObs{})

	snap, err := s.Fetch(context.Background(), Request{Channels: []string{"A", "B"}, Start: time.Now().Add(-time.Minute), AllowSubset: true})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, ok := snap["B"]; ok {
		t.Fatalf("expected B to be omitted")
	}
	if len(snap["A"]) != 1 {
		t.Fatalf("expected A to be present")
	}

	_, err = s.Fetch(context.Background(), Request{Channels: []string{"B"}, Start: time.Now().Add(-time.Minute), AllowSubset: true})
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable when every channel is empty, got %v", err)
	}
}

func TestFetchWrapsSourceErrors(t *testing.T) {
	src := &stubSource{err: errors.New("connection reset")}
	obs := &mockObs{}
	s := New(src, obs)

	_, err := s.Fetch(context.Background(), Request{Channels: []string{"A"}, Start: time.Now()})
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if obs.latencies != 1 {
		t.Fatalf("expected fetch latency to be observed once, got %d", obs.latencies)
	}
}

func TestFetchKeepsContextDeadline(t *testing.T) {
	src := &stubSource{err: errors.New("canceled")}
	s := New(src, &mockObs{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := s.Fetch(ctx, Request{Channels: []string{"A"}, Start: time.Now()})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type stubSource struct {
	data map[string]domain.Series
	err  error
}

func (s *stubSource) Query(ctx context.Context, channels []string, start time.Time, stop *time.Time) (map[string]domain.Series, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func (s *stubSource) Name() string { return "stub" }

type mockObs struct {
	latencies int
}

func (m *mockObs) LogDebug(string, ...ports.Field)           {}
func (m *mockObs) LogInfo(string, ...ports.Field)            {}
func (m *mockObs) LogError(string, error, ...ports.Field)    {}
func (m *mockObs) LogCritical(string, error, ...ports.Field) {}
func (m *mockObs) IncCounter(string, float64)                {}
func (m *mockObs) ObserveLatency(string, float64)            { m.latencies++ }
func (m *mockObs) SetGauge(string, float64)                  {}
