package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsSnapshotSummarizesCounters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`# TYPE commsentinel_comm_state gauge
commsentinel_comm_state 1
# TYPE commsentinel_polls_total counter
commsentinel_polls_total 42
# TYPE commsentinel_transitions_total counter
commsentinel_transitions_total{transition="entered"} 2
commsentinel_transitions_total{transition="exited"} 1
`))
	}))
	defer srv.Close()

	line, err := metricsSnapshot(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("metricsSnapshot returned error: %v", err)
	}
	for _, want := range []string{"in_comm=1", "polls=42", "transitions=3", "alerts=0"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestMetricsSnapshotRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := metricsSnapshot(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}

func TestValidateCommand(t *testing.T) {
	root := newRoot()
	var out strings.Builder
	root.SetOut(&out)
	root.SetArgs([]string{"validate", "--config", "testdata/missing.yaml"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for missing config")
	}
}
