package commsentinel

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/ghalamif/commsentinel/internal/adapters/maude"
	"github.com/ghalamif/commsentinel/internal/adapters/observability"
	"github.com/ghalamif/commsentinel/internal/adapters/opcua"
	"github.com/ghalamif/commsentinel/internal/adapters/slack"
	"github.com/ghalamif/commsentinel/internal/adapters/statusserver"
	"github.com/ghalamif/commsentinel/internal/adapters/timescale"
	"github.com/ghalamif/commsentinel/internal/adapters/transport"
	"github.com/ghalamif/commsentinel/internal/app/audit"
	"github.com/ghalamif/commsentinel/internal/app/comm"
	"github.com/ghalamif/commsentinel/internal/app/config"
	"github.com/ghalamif/commsentinel/internal/app/notify"
	"github.com/ghalamif/commsentinel/internal/app/pipeline"
	"github.com/ghalamif/commsentinel/internal/app/snapshot"
	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	source        TelemetrySource
	notifier      Notifier
	observability Observability
	hostname      string
	forceContact  bool
	verbose       bool
	dataSource    string
}

// WithTelemetrySource injects a custom telemetry source (simulators, other archives, etc.).
func WithTelemetrySource(src TelemetrySource) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.source = src
	}
}

// WithNotifier replaces the Slack notifier.
func WithNotifier(n Notifier) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.notifier = n
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithHostname overrides the host name used to look up the host table.
func WithHostname(name string) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.hostname = name
	}
}

// WithForceContact reports every poll as in comm and routes notifications
// to the test channel.
func WithForceContact(on bool) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.forceContact = on
	}
}

// WithVerboseErrors logs full detail for every failed cycle.
func WithVerboseErrors(on bool) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.verbose = on
	}
}

// WithDataSource overrides telemetry.mode.
func WithDataSource(mode string) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.dataSource = mode
	}
}

// Runtime wires telemetry, comm detection, auditing and notification into a
// single poll loop and exposes lifecycle hooks for embedding.
type Runtime struct {
	cfg      *Config
	obs      ports.Observability
	source   ports.TelemetrySource
	notifier ports.Notifier
	machine  *comm.StateMachine
	loop     *pipeline.Loop
	status   *statusserver.Server
	db       *sql.DB
}

// NewRuntime bootstraps the default adapters (source chosen by
// telemetry.mode, Slack notifier, Prometheus observability). Any failure is
// a configuration error and should stop the process before polling starts.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", domain.ErrConfiguration)
	}

	var o runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := cfg.SetDataSource(o.dataSource); err != nil {
		return nil, err
	}

	obs := o.observability
	if obs == nil {
		obs = observability.NewPromObs(slog.Default())
	}

	rt := &Runtime{cfg: cfg, obs: obs}

	var err error
	rt.source = o.source
	if rt.source == nil {
		if rt.source, rt.db, err = defaultSource(cfg, obs); err != nil {
			return nil, err
		}
	}

	rt.notifier = o.notifier
	if rt.notifier == nil {
		if rt.notifier, err = defaultNotifier(cfg, o.hostname); err != nil {
			rt.closeDB()
			return nil, err
		}
	}

	pol := cfg.Policy
	snap := snapshot.New(rt.source, obs)
	detector := comm.NewDetector(snap, comm.DetectorConfig{
		Channel:      cfg.Telemetry.HeartbeatChannel,
		Lookback:     cfg.Telemetry.HeartbeatLookback,
		ForceContact: o.forceContact,
	}, obs)
	dispatcher := notify.NewDispatcher(rt.notifier, cfg.Destination(o.forceContact), obs)
	format := notify.Formatter{Fields: cfg.Snapshot.Fields, Indicators: cfg.Snapshot.Indicators}
	reporter := comm.NewSnapshotReporter(snap, dispatcher, format, comm.ReporterConfig{
		EntryLookback: pol.EntryLookback,
		ExitPadding:   pol.ExitPadding,
	})
	rt.machine = comm.NewStateMachine(comm.MachineConfig{
		EnterPolls: pol.EnterPolls,
		ExitPolls:  pol.ExitPolls,
		ExitGrace:  pol.ExitGrace,
	}, detector, reporter, obs)

	deps := pipeline.Deps{
		Poller:  detector,
		Machine: rt.machine,
		Fetcher: snap,
		Alerts:  dispatcher,
		Format:  format,
		Policy:  pol,
		Obs:     obs,
		Verbose: o.verbose,
	}
	if len(cfg.Rules) > 0 {
		deps.Auditor = audit.New(cfg.Rules, obs)
	}
	rt.loop = pipeline.NewLoop(deps)
	rt.status = statusserver.New(cfg.Metrics.Addr, func() any { return rt.loop.Status() }, obs)

	obs.LogInfo("runtime_ready",
		ports.Field{Key: "source", Value: rt.source.Name()},
		ports.Field{Key: "notifier", Value: rt.notifier.Name()},
		ports.Field{Key: "destination", Value: dispatcher.Channel()},
		ports.Field{Key: "rules", Value: len(cfg.Rules)},
		ports.Field{Key: "force_contact", Value: o.forceContact})
	return rt, nil
}

func defaultSource(cfg *Config, obs ports.Observability) (ports.TelemetrySource, *sql.DB, error) {
	switch cfg.Telemetry.Mode {
	case config.ModeLive:
		client, err := transport.NewClient(cfg.Telemetry.Live.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
		return maude.NewSource(cfg.Telemetry.Live, client, obs), nil, nil
	case config.ModeArchive:
		db, err := sql.Open("postgres", cfg.Telemetry.Archive.ConnString)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
		return timescale.NewSource(db, cfg.Telemetry.Archive.Table, obs), db, nil
	case config.ModeOPCUA:
		src, err := opcua.NewSource(cfg.Telemetry.OPCUA, obs)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}
		return src, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown telemetry mode %q", domain.ErrConfiguration, cfg.Telemetry.Mode)
	}
}

func defaultNotifier(cfg *Config, hostname string) (ports.Notifier, error) {
	if hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("%w: hostname: %v", domain.ErrConfiguration, err)
		}
		hostname, _, _ = strings.Cut(h, ".")
	}
	host, err := cfg.ResolveHost(hostname)
	if err != nil {
		return nil, err
	}
	if host.TokenFile == "" {
		return nil, fmt.Errorf("%w: no slack token file configured for host %q", domain.ErrConfiguration, hostname)
	}
	token, err := slack.ReadToken(host.TokenFile)
	if err != nil {
		return nil, err
	}
	client, err := transport.NewClient(cfg.Notify.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return slack.NewNotifier(slack.Config{
		APIURL:   cfg.Notify.APIURL,
		Token:    token,
		Username: cfg.Notify.Username,
		IconURL:  cfg.Notify.IconURL,
	}, client)
}

// Start connects streaming sources and starts the status server. It returns
// immediately; call Run to block on a context instead.
func (r *Runtime) Start(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	if lc, ok := r.source.(ports.Lifecycle); ok {
		if err := lc.Start(ctx); err != nil {
			return fmt.Errorf("start %s source: %w", r.source.Name(), err)
		}
	}
	if err := r.status.Start(); err != nil {
		return fmt.Errorf("status server: %w", err)
	}
	return nil
}

// Run starts the runtime and polls until ctx is cancelled, then shuts down.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	loopErr := r.loop.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(loopErr, r.Shutdown(shutdownCtx))
}

// Shutdown stops the status server, streaming source and DB connection.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if r.status != nil {
		if err := r.status.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if lc, ok := r.source.(ports.Lifecycle); ok {
		if err := lc.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.closeDB(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Status returns what the poll loop published after its last cycle.
func (r *Runtime) Status() Status {
	return r.loop.Status()
}

func (r *Runtime) closeDB() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}
