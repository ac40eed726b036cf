package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

// PromObs records metrics in the default Prometheus registry and writes
// log lines through slog.
type PromObs struct {
	logger   *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

func NewPromObs(logger *slog.Logger) *PromObs {
	if logger == nil {
		logger = slog.Default()
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	counters := map[string]prometheus.Counter{
		"commsentinel_polls_total":                counter("commsentinel_polls_total", "Heartbeat polls performed."),
		"commsentinel_heartbeat_missing_total":    counter("commsentinel_heartbeat_missing_total", "Polls that found no heartbeat samples."),
		"commsentinel_transitions_total":          counter("commsentinel_transitions_total", "Confirmed comm entries and exits."),
		"commsentinel_alerts_total":               counter("commsentinel_alerts_total", "Threshold alerts raised."),
		"commsentinel_notifications_sent_total":   counter("commsentinel_notifications_sent_total", "Notifications delivered."),
		"commsentinel_notifications_failed_total": counter("commsentinel_notifications_failed_total", "Notifications dropped after a delivery failure."),
		"commsentinel_cycle_errors_total":         counter("commsentinel_cycle_errors_total", "Poll cycles that ended in an error."),
		"commsentinel_buffer_evicted_total":       counter("commsentinel_buffer_evicted_total", "Streamed readings evicted from full channel buffers."),
	}
	commState := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "commsentinel_comm_state",
		Help: "1 while in comm, 0 otherwise.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "commsentinel_fetch_latency_seconds",
		Help:    "Latency of telemetry source queries.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	collectors := []prometheus.Collector{commState, latency}
	for _, c := range counters {
		collectors = append(collectors, c)
	}
	prometheus.MustRegister(collectors...)

	return &PromObs{
		logger:   logger,
		counters: counters,
		gauges: map[string]prometheus.Gauge{
			"commsentinel_comm_state": commState,
		},
		histos: map[string]prometheus.Observer{
			"commsentinel_fetch_latency_seconds": latency,
		},
	}
}

func (p *PromObs) LogDebug(msg string, fields ...ports.Field) {
	p.logger.Debug(msg, attrs(fields)...)
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Info(msg, attrs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.logger.Error(msg, append(attrs(fields), errAttrs(err)...)...)
}

// LogCritical logs above error so critical lines survive an error-only
// handler level.
func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.logger.Log(context.Background(), slog.LevelError+4, msg, append(attrs(fields), errAttrs(err)...)...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

func errAttrs(err error) []any {
	if err == nil {
		return nil
	}
	return []any{slog.String("error", err.Error()), slog.String("kind", domain.ErrorKind(err))}
}

var _ ports.Observability = (*PromObs)(nil)
