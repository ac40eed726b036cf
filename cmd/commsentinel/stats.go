package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

var statsMetrics = []struct {
	name  string
	label string
}{
	{"commsentinel_comm_state", "in_comm"},
	{"commsentinel_polls_total", "polls"},
	{"commsentinel_transitions_total", "transitions"},
	{"commsentinel_alerts_total", "alerts"},
	{"commsentinel_notifications_failed_total", "notify_failed"},
	{"commsentinel_cycle_errors_total", "cycle_errors"},
}

func metricsSnapshot(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse metrics: %w", err)
	}

	parts := make([]string, 0, len(statsMetrics))
	for _, m := range statsMetrics {
		parts = append(parts, fmt.Sprintf("%s=%g", m.label, familyValue(families[m.name])))
	}
	return strings.Join(parts, " "), nil
}

// familyValue sums every series of a counter or gauge family.
func familyValue(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.GetCounter() != nil:
			total += m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			total += m.GetGauge().GetValue()
		}
	}
	return total
}
