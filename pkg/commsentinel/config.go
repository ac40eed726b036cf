package commsentinel

import (
	"github.com/ghalamif/commsentinel/internal/adapters/maude"
	"github.com/ghalamif/commsentinel/internal/adapters/opcua"
	"github.com/ghalamif/commsentinel/internal/app/config"
	"github.com/ghalamif/commsentinel/internal/app/notify"
	"github.com/ghalamif/commsentinel/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy holds cadence, debounce thresholds and snapshot windows.
	Policy = ports.Policy
	// TelemetryConfig selects and configures the telemetry source.
	TelemetryConfig = config.TelemetryConfig
	// LiveConfig configures the MAUDE-style live source.
	LiveConfig = maude.Config
	// ArchiveConfig configures the TimescaleDB archival source.
	ArchiveConfig = config.ArchiveConfig
	// OPCUAConfig holds connection and node details for the streaming source.
	OPCUAConfig = opcua.Config
	// OPCUANodeConfig binds a node to a channel.
	OPCUANodeConfig = opcua.NodeConfig
	// NotifyConfig configures notification destinations and the Slack bot.
	NotifyConfig = config.NotifyConfig
	// HostConfig is one entry of the deployment host table.
	HostConfig = config.HostConfig
	// SnapshotConfig lists the values reported at comm transitions.
	SnapshotConfig = config.SnapshotConfig
	// SummaryField renders one channel's latest value.
	SummaryField = notify.SummaryField
	// StateIndicator maps a channel tuple onto named states.
	StateIndicator = notify.StateIndicator
	// NamedState is one expected tuple of a StateIndicator.
	NamedState = notify.NamedState
	// Range is an open interval used by a NamedState.
	Range = notify.Range
	// MetricsConfig configures the status HTTP server.
	MetricsConfig = config.MetricsConfig
)

// Telemetry source modes.
const (
	ModeLive    = config.ModeLive
	ModeArchive = config.ModeArchive
	ModeOPCUA   = config.ModeOPCUA
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
