package comm

import (
	"context"
	"time"

	"github.com/ghalamif/commsentinel/internal/app/notify"
	"github.com/ghalamif/commsentinel/internal/app/snapshot"
	"github.com/ghalamif/commsentinel/internal/domain"
)

// Sender is the slice of notify.Dispatcher the reporter needs.
type Sender interface {
	Send(ctx context.Context, text string) bool
}

// ReporterConfig sets the snapshot windows used at transitions.
type ReporterConfig struct {
	EntryLookback time.Duration
	ExitPadding   time.Duration
	Now           func() time.Time
}

// SnapshotReporter fetches the formatter's channels at each confirmed
// transition and dispatches the resulting message. Dispatch is always the
// last step, so a failed fetch never leaves a message behind.
type SnapshotReporter struct {
	fetcher    SnapshotFetcher
	sender     Sender
	format     notify.Formatter
	cfg        ReporterConfig
	lastExitID string
}

func NewSnapshotReporter(fetcher SnapshotFetcher, sender Sender, format notify.Formatter, cfg ReporterConfig) *SnapshotReporter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SnapshotReporter{fetcher: fetcher, sender: sender, format: format, cfg: cfg}
}

func (r *SnapshotReporter) ReportEntry(ctx context.Context, session domain.CommSession) error {
	now := r.cfg.Now()
	snap, err := r.fetch(ctx, now.Add(-r.cfg.EntryLookback))
	if err != nil {
		return err
	}
	r.sender.Send(ctx, r.format.EntryMessage(now, snap))
	return nil
}

func (r *SnapshotReporter) ReportExit(ctx context.Context, session domain.CommSession) error {
	if session.ID != "" && session.ID == r.lastExitID {
		return nil
	}
	now := r.cfg.Now()
	snap, err := r.fetch(ctx, session.StartTime.Add(-r.cfg.ExitPadding))
	if err != nil {
		return err
	}
	r.sender.Send(ctx, r.format.ExitMessage(now, session, snap))
	r.lastExitID = session.ID
	return nil
}

func (r *SnapshotReporter) fetch(ctx context.Context, start time.Time) (domain.Snapshot, error) {
	channels := r.format.Channels()
	if len(channels) == 0 {
		return domain.Snapshot{}, nil
	}
	return r.fetcher.Fetch(ctx, snapshot.Request{
		Channels:    channels,
		Start:       start,
		AllowSubset: true,
	})
}
