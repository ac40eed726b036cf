package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ghalamif/commsentinel/internal/app/audit"
	"github.com/ghalamif/commsentinel/internal/app/comm"
	"github.com/ghalamif/commsentinel/internal/app/notify"
	"github.com/ghalamif/commsentinel/internal/app/snapshot"
	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

// Deps wires a Loop. Auditor and Alerts may be nil when no rules are
// configured.
type Deps struct {
	Poller  comm.Poller
	Machine *comm.StateMachine
	Auditor *audit.Auditor
	Fetcher comm.SnapshotFetcher
	Alerts  comm.Sender
	Format  notify.Formatter
	Policy  ports.Policy
	Obs     ports.Observability
	Verbose bool
	Now     func() time.Time
}

// Status is a point-in-time view of the loop for the status endpoint.
type Status struct {
	State        string    `json:"state"`
	SessionID    string    `json:"session_id,omitempty"`
	SessionStart time.Time `json:"session_start,omitempty"`
	Iteration    uint64    `json:"iteration"`
	PendingValue bool      `json:"pending_value"`
	PendingCount int       `json:"pending_count"`
	LastCycle    time.Time `json:"last_cycle"`
	LastError    string    `json:"last_error,omitempty"`
}

// Loop is the single-threaded poll loop. Everything it owns is touched only
// from Run; Status is the one method safe to call from other goroutines.
type Loop struct {
	d           Deps
	iter        uint64
	inCommPolls int
	status      atomic.Pointer[Status]
}

func NewLoop(d Deps) *Loop {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Policy.Cadence <= 0 {
		d.Policy.Cadence = 2 * time.Second
	}
	if d.Policy.CycleTimeout <= 0 {
		d.Policy.CycleTimeout = 10 * time.Minute
	}
	if d.Policy.AuditLookback <= 0 {
		d.Policy.AuditLookback = 10 * time.Minute
	}
	if d.Policy.AuditEvery <= 0 {
		d.Policy.AuditEvery = 1
	}
	l := &Loop{d: d}
	l.publish("")
	return l
}

// Run sleeps one cadence, runs a cycle, and repeats until ctx is cancelled.
// Cycle errors are logged and never stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	l.d.Obs.LogInfo("poll_loop_started",
		ports.Field{Key: "cadence", Value: l.d.Policy.Cadence.String()},
		ports.Field{Key: "cycle_timeout", Value: l.d.Policy.CycleTimeout.String()})

	timer := time.NewTimer(l.d.Policy.Cadence)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			l.d.Obs.LogInfo("poll_loop_stopped", ports.Field{Key: "iterations", Value: l.iter})
			return nil
		case <-timer.C:
		}

		if err := l.RunCycle(ctx); err != nil && ctx.Err() == nil {
			l.report(err)
		}
		timer.Reset(l.d.Policy.Cadence)
	}
}

// RunCycle performs one poll under the cycle timeout. Panics are recovered
// and returned as errors; deadline expiry is reported as domain.ErrTimeout.
func (l *Loop) RunCycle(ctx context.Context) (err error) {
	l.iter++
	cctx, cancel := context.WithTimeout(ctx, l.d.Policy.CycleTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("poll cycle %d panicked: %v", l.iter, r)
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s: %w", domain.ErrTimeout, l.d.Policy.CycleTimeout, err)
		}
		l.publish(domain.ErrorKind(err))
	}()

	return l.cycle(cctx)
}

func (l *Loop) cycle(ctx context.Context) error {
	hb := l.d.Poller.Poll(ctx)
	// A poll cut short by the cycle deadline is not an observation.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("heartbeat poll: %w", err)
	}
	tr, err := l.d.Machine.Update(ctx, hb, l.iter)
	if err != nil {
		return err
	}

	switch tr {
	case comm.Entered:
		l.inCommPolls = 0
	case comm.Exited:
		l.inCommPolls = 0
		if l.d.Auditor != nil {
			l.d.Auditor.Reset()
		}
	}

	if l.d.Machine.State() != domain.InComm || l.d.Auditor == nil {
		return nil
	}
	l.inCommPolls++
	if l.inCommPolls%l.d.Policy.AuditEvery != 0 {
		return nil
	}
	return l.audit(ctx)
}

func (l *Loop) audit(ctx context.Context) error {
	now := l.d.Now()
	start := now.Add(-l.d.Policy.AuditLookback)
	if s, ok := l.d.Machine.Session(); ok && s.StartTime.After(start) {
		start = s.StartTime
	}

	snap, err := l.d.Fetcher.Fetch(ctx, snapshot.Request{
		Channels:    l.d.Auditor.Channels(),
		Start:       start,
		AllowSubset: true,
	})
	if err != nil {
		return fmt.Errorf("audit fetch: %w", err)
	}

	for _, a := range l.d.Auditor.Evaluate(snap) {
		l.d.Obs.LogInfo("threshold_alert",
			ports.Field{Key: "rule", Value: a.Rule},
			ports.Field{Key: "value", Value: a.Value},
			ports.Field{Key: "hits", Value: a.Hits},
			ports.Field{Key: "repeat", Value: a.Repeat})
		if l.d.Alerts != nil {
			l.d.Alerts.Send(ctx, l.d.Format.AlertMessage(a))
		}
	}
	return nil
}

func (l *Loop) report(err error) {
	kind := domain.ErrorKind(err)
	l.d.Obs.IncCounter("commsentinel_cycle_errors_total", 1)
	if l.d.Verbose {
		l.d.Obs.LogError("poll_cycle_failed", err,
			ports.Field{Key: "kind", Value: kind},
			ports.Field{Key: "iteration", Value: l.iter},
			ports.Field{Key: "state", Value: l.d.Machine.State().String()})
		return
	}
	l.d.Obs.LogInfo("poll_cycle_error",
		ports.Field{Key: "kind", Value: kind},
		ports.Field{Key: "hint", Value: "use --report-errors for details"})
}

func (l *Loop) publish(lastErr string) {
	st := &Status{
		State:     l.d.Machine.State().String(),
		Iteration: l.iter,
		LastCycle: l.d.Now(),
		LastError: lastErr,
	}
	if s, ok := l.d.Machine.Session(); ok {
		st.SessionID = s.ID
		st.SessionStart = s.StartTime
	}
	st.PendingValue, st.PendingCount = l.d.Machine.Pending()
	l.status.Store(st)
}

// Status returns the state published at the end of the last cycle.
func (l *Loop) Status() Status {
	return *l.status.Load()
}
