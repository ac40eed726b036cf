package comm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

// Poller yields one heartbeat observation. *Detector implements it.
type Poller interface {
	Poll(ctx context.Context) domain.Heartbeat
}

// Reporter performs the side effects of a confirmed transition. An error
// means the transition is not confirmed and will be retried.
type Reporter interface {
	ReportEntry(ctx context.Context, session domain.CommSession) error
	ReportExit(ctx context.Context, session domain.CommSession) error
}

// Transition is the outcome of one Update.
type Transition int

const (
	NoTransition Transition = iota
	Entered
	Exited
	ExitAborted
)

func (t Transition) String() string {
	switch t {
	case Entered:
		return "entered"
	case Exited:
		return "exited"
	case ExitAborted:
		return "exit_aborted"
	default:
		return "none"
	}
}

// MachineConfig holds the hysteresis parameters.
type MachineConfig struct {
	EnterPolls int
	ExitPolls  int
	ExitGrace  time.Duration
	Sleep      func(ctx context.Context, d time.Duration) error
	NewID      func() string
}

// StateMachine owns CommState and the current CommSession. It is driven by
// a single goroutine and is not safe for concurrent use.
type StateMachine struct {
	state    domain.CommState
	session  *domain.CommSession
	enter    *Debouncer
	exit     *Debouncer
	cfg      MachineConfig
	poller   Poller
	reporter Reporter
	obs      ports.Observability
}

func NewStateMachine(cfg MachineConfig, poller Poller, reporter Reporter, obs ports.Observability) *StateMachine {
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	m := &StateMachine{
		state:    domain.NotInComm,
		enter:    NewDebouncer(cfg.EnterPolls),
		exit:     NewDebouncer(cfg.ExitPolls),
		cfg:      cfg,
		poller:   poller,
		reporter: reporter,
		obs:      obs,
	}
	m.obs.SetGauge("commsentinel_comm_state", 0)
	return m
}

func (m *StateMachine) State() domain.CommState { return m.state }

// Session returns the open contact, if any.
func (m *StateMachine) Session() (domain.CommSession, bool) {
	if m.session == nil {
		return domain.CommSession{}, false
	}
	return *m.session, true
}

// Pending reports the current debounce run toward the opposite state.
func (m *StateMachine) Pending() (value bool, count int) {
	if m.state == domain.InComm {
		return m.exit.Value(), m.exit.Count()
	}
	return m.enter.Value(), m.enter.Count()
}

// Update feeds one heartbeat into the machine. On error the machine is left
// exactly as it was before the call.
func (m *StateMachine) Update(ctx context.Context, hb domain.Heartbeat, iteration uint64) (Transition, error) {
	if m.state == domain.NotInComm {
		return m.updateNotInComm(ctx, hb, iteration)
	}
	return m.updateInComm(ctx, hb)
}

func (m *StateMachine) updateNotInComm(ctx context.Context, hb domain.Heartbeat, iteration uint64) (Transition, error) {
	saved := m.enter.State()
	if fired := m.enter.Observe(hb.Present); !fired || !hb.Present {
		return NoTransition, nil
	}

	session := domain.CommSession{
		ID:                   m.cfg.NewID(),
		StartTime:            hb.ObservedAt,
		PollIterationAtStart: iteration,
	}
	if err := m.reporter.ReportEntry(ctx, session); err != nil {
		m.enter.Restore(saved)
		return NoTransition, fmt.Errorf("confirm comm entry: %w", err)
	}

	m.state = domain.InComm
	m.session = &session
	m.enter.Reset()
	m.exit.Reset()
	m.obs.SetGauge("commsentinel_comm_state", 1)
	m.obs.IncCounter("commsentinel_transitions_total", 1)
	m.obs.LogInfo("comm_entered",
		ports.Field{Key: "session", Value: session.ID},
		ports.Field{Key: "start", Value: session.StartTime},
		ports.Field{Key: "iteration", Value: iteration})
	return Entered, nil
}

func (m *StateMachine) updateInComm(ctx context.Context, hb domain.Heartbeat) (Transition, error) {
	saved := m.exit.State()
	if fired := m.exit.Observe(hb.Present); !fired || hb.Present {
		return NoTransition, nil
	}

	// A run of empty polls can be a gap in the feed rather than the end of
	// the contact; look once more after the grace delay.
	if err := m.cfg.Sleep(ctx, m.cfg.ExitGrace); err != nil {
		m.exit.Restore(saved)
		return NoTransition, fmt.Errorf("exit grace wait: %w", err)
	}
	repoll := m.poller.Poll(ctx)
	if err := ctx.Err(); err != nil {
		m.exit.Restore(saved)
		return NoTransition, fmt.Errorf("exit grace re-poll: %w", err)
	}
	if repoll.Present {
		m.exit.Reset()
		m.obs.LogInfo("comm_exit_aborted", ports.Field{Key: "session", Value: m.session.ID})
		return ExitAborted, nil
	}

	session := *m.session
	if err := m.reporter.ReportExit(ctx, session); err != nil {
		m.exit.Restore(saved)
		return NoTransition, fmt.Errorf("confirm comm exit: %w", err)
	}

	m.state = domain.NotInComm
	m.session = nil
	m.enter.Reset()
	m.exit.Reset()
	m.obs.SetGauge("commsentinel_comm_state", 0)
	m.obs.IncCounter("commsentinel_transitions_total", 1)
	m.obs.LogInfo("comm_exited",
		ports.Field{Key: "session", Value: session.ID},
		ports.Field{Key: "duration", Value: hb.ObservedAt.Sub(session.StartTime).String()})
	return Exited, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
