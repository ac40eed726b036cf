package comm

import (
	"context"
	"time"

	"github.com/ghalamif/commsentinel/internal/app/snapshot"
	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

// SnapshotFetcher is the slice of snapshot.Snapshotter the comm package needs.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, req snapshot.Request) (domain.Snapshot, error)
}

// DetectorConfig configures heartbeat polling.
type DetectorConfig struct {
	Channel  string
	Lookback time.Duration
	// ForceContact reports every poll as present.
	ForceContact bool
	Now          func() time.Time
}

// Detector turns the presence of recent heartbeat samples into a contact
// signal. A failed fetch counts as absence; Poll never returns an error.
type Detector struct {
	fetcher SnapshotFetcher
	cfg     DetectorConfig
	obs     ports.Observability
}

func NewDetector(fetcher SnapshotFetcher, cfg DetectorConfig, obs ports.Observability) *Detector {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 60 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Detector{fetcher: fetcher, cfg: cfg, obs: obs}
}

func (d *Detector) Poll(ctx context.Context) domain.Heartbeat {
	now := d.cfg.Now()
	d.obs.IncCounter("commsentinel_polls_total", 1)
	if d.cfg.ForceContact {
		return domain.Heartbeat{Present: true, ObservedAt: now}
	}

	snap, err := d.fetcher.Fetch(ctx, snapshot.Request{
		Channels: []string{d.cfg.Channel},
		Start:    now.Add(-d.cfg.Lookback),
	})
	if err != nil {
		d.obs.IncCounter("commsentinel_heartbeat_missing_total", 1)
		d.obs.LogDebug("heartbeat_fetch_failed",
			ports.Field{Key: "channel", Value: d.cfg.Channel},
			ports.Field{Key: "error", Value: err.Error()})
		return domain.Heartbeat{Present: false, ObservedAt: now}
	}

	present := len(snap[d.cfg.Channel]) > 0
	if !present {
		d.obs.IncCounter("commsentinel_heartbeat_missing_total", 1)
	}
	return domain.Heartbeat{Present: present, ObservedAt: now}
}
