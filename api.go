package commsentinel

import (
	base "github.com/ghalamif/commsentinel/pkg/commsentinel"
)

// Re-exported errors for convenience.
var (
	ErrDataUnavailable       = base.ErrDataUnavailable
	ErrNotificationDelivery  = base.ErrNotificationDelivery
	ErrConfiguration         = base.ErrConfiguration
	ErrTimeout               = base.ErrTimeout
	ErrChannelNotifierClosed = base.ErrChannelNotifierClosed
)

// Type aliases so consumers can import github.com/ghalamif/commsentinel directly.
type (
	Config          = base.Config
	Policy          = base.Policy
	TelemetryConfig = base.TelemetryConfig
	LiveConfig      = base.LiveConfig
	ArchiveConfig   = base.ArchiveConfig
	OPCUAConfig     = base.OPCUAConfig
	OPCUANodeConfig = base.OPCUANodeConfig
	NotifyConfig    = base.NotifyConfig
	HostConfig      = base.HostConfig
	SnapshotConfig  = base.SnapshotConfig
	MetricsConfig   = base.MetricsConfig
	Runtime         = base.Runtime
	RuntimeOption   = base.RuntimeOption
	Status          = base.Status
	Reading         = base.Reading
	Series          = base.Series
	Value           = base.Value
	ViolationRule   = base.ViolationRule
	Alert           = base.Alert
	TelemetrySource = base.TelemetrySource
	Lifecycle       = base.Lifecycle
	Notifier        = base.Notifier
	Observability   = base.Observability
	Field           = base.Field
	Message         = base.Message
	MessageHandler  = base.MessageHandler
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithTelemetrySource(src TelemetrySource) RuntimeOption {
	return base.WithTelemetrySource(src)
}

func WithNotifier(n Notifier) RuntimeOption {
	return base.WithNotifier(n)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithHostname(name string) RuntimeOption {
	return base.WithHostname(name)
}

func WithForceContact(on bool) RuntimeOption {
	return base.WithForceContact(on)
}

func WithVerboseErrors(on bool) RuntimeOption {
	return base.WithVerboseErrors(on)
}

func WithDataSource(mode string) RuntimeOption {
	return base.WithDataSource(mode)
}

// Notifier adapters.
func NewCallbackNotifier(name string, fn MessageHandler) Notifier {
	return base.NewCallbackNotifier(name, fn)
}

func NewChannelNotifier(name string, buffer int) (Notifier, <-chan Message, func()) {
	return base.NewChannelNotifier(name, buffer)
}

// Value constructors for custom sources.
func Number(v float64) Value { return base.Number(v) }
func Text(s string) Value    { return base.Text(s) }
