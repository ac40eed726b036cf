package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/commsentinel/internal/adapters/maude"
	"github.com/ghalamif/commsentinel/internal/adapters/opcua"
	"github.com/ghalamif/commsentinel/internal/app/notify"
	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

// Telemetry source modes.
const (
	ModeLive    = "live"
	ModeArchive = "archive"
	ModeOPCUA   = "opcua"
)

type Config struct {
	Policy    ports.Policy           `yaml:"policy"`
	Telemetry TelemetryConfig        `yaml:"telemetry"`
	Notify    NotifyConfig           `yaml:"notify"`
	Hosts     map[string]HostConfig  `yaml:"hosts"`
	Snapshot  SnapshotConfig         `yaml:"snapshot"`
	Rules     []domain.ViolationRule `yaml:"rules"`
	RulesFile string                 `yaml:"rules_file"`
	Metrics   MetricsConfig          `yaml:"metrics"`
}

type TelemetryConfig struct {
	Mode              string        `yaml:"mode"`
	HeartbeatChannel  string        `yaml:"heartbeat_channel"`
	HeartbeatLookback time.Duration `yaml:"heartbeat_lookback"`
	Live              maude.Config  `yaml:"live"`
	Archive           ArchiveConfig `yaml:"archive"`
	OPCUA             opcua.Config  `yaml:"opcua"`
}

type ArchiveConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type NotifyConfig struct {
	Channel     string        `yaml:"channel"`
	TestChannel string        `yaml:"test_channel"`
	Username    string        `yaml:"username"`
	IconURL     string        `yaml:"icon_url"`
	APIURL      string        `yaml:"api_url"`
	TokenFile   string        `yaml:"token_file"`
	Timeout     time.Duration `yaml:"timeout"`
}

// HostConfig is the per-deployment-host entry of the host table. An empty
// entry allows the host and inherits notify.token_file.
type HostConfig struct {
	TokenFile string `yaml:"token_file"`
}

type SnapshotConfig struct {
	Fields     []notify.SummaryField   `yaml:"fields"`
	Indicators []notify.StateIndicator `yaml:"indicators"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// Load reads, defaults and validates a config file. Every failure wraps
// domain.ErrConfiguration.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrConfiguration, path, err)
	}

	if cfg.RulesFile != "" {
		rulesPath := cfg.RulesFile
		if !filepath.IsAbs(rulesPath) {
			rulesPath = filepath.Join(filepath.Dir(path), rulesPath)
		}
		fileRules, err := LoadAlarmFile(rulesPath)
		if err != nil {
			return nil, err
		}
		cfg.Rules = append(cfg.Rules, fileRules...)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Policy.Cadence == 0 {
		c.Policy.Cadence = 2 * time.Second
	}
	if c.Policy.CycleTimeout == 0 {
		c.Policy.CycleTimeout = 10 * time.Minute
	}
	if c.Policy.EnterPolls == 0 {
		c.Policy.EnterPolls = 5
	}
	if c.Policy.ExitPolls == 0 {
		c.Policy.ExitPolls = 5
	}
	if c.Policy.ExitGrace == 0 {
		c.Policy.ExitGrace = 60 * time.Second
	}
	if c.Policy.EntryLookback == 0 {
		c.Policy.EntryLookback = 5 * time.Minute
	}
	if c.Policy.ExitPadding == 0 {
		c.Policy.ExitPadding = 30 * time.Minute
	}
	if c.Policy.AuditLookback == 0 {
		c.Policy.AuditLookback = 10 * time.Minute
	}
	if c.Policy.AuditEvery == 0 {
		c.Policy.AuditEvery = 1
	}

	if c.Telemetry.Mode == "" {
		c.Telemetry.Mode = ModeArchive
	}
	if c.Telemetry.HeartbeatChannel == "" {
		c.Telemetry.HeartbeatChannel = "CVCDUCTR"
	}
	if c.Telemetry.HeartbeatLookback == 0 {
		c.Telemetry.HeartbeatLookback = 60 * time.Second
	}
	if c.Telemetry.Live.Timeout == 0 {
		c.Telemetry.Live.Timeout = 30 * time.Second
	}
	if c.Telemetry.Archive.Table == "" {
		c.Telemetry.Archive.Table = "telemetry"
	}
	if c.Telemetry.Mode == ModeOPCUA {
		c.Telemetry.OPCUA.ApplyDefaults()
	}

	if c.Notify.Channel == "" {
		c.Notify.Channel = "#comm_passes"
	}
	if c.Notify.TestChannel == "" {
		c.Notify.TestChannel = "#bot-testing"
	}
	if c.Notify.Username == "" {
		c.Notify.Username = "HRC CommBot"
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = 15 * time.Second
	}

	for i := range c.Rules {
		if c.Rules[i].Name == "" {
			c.Rules[i].Name = c.Rules[i].Channel
		}
		if c.Rules[i].RequiredConsecutiveHits == 0 {
			c.Rules[i].RequiredConsecutiveHits = 1
		}
		if c.Rules[i].Severity == "" {
			c.Rules[i].Severity = domain.SeverityWarning
		}
	}

	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
}

func (c *Config) validate() error {
	p := c.Policy
	if p.Cadence < 0 || p.CycleTimeout < 0 || p.ExitGrace < 0 {
		return fmt.Errorf("policy durations must not be negative")
	}
	if p.EnterPolls < 1 || p.ExitPolls < 1 || p.AuditEvery < 1 {
		return fmt.Errorf("policy.enter_polls, exit_polls and audit_every must be at least 1")
	}

	switch c.Telemetry.Mode {
	case ModeLive:
		if c.Telemetry.Live.BaseURL == "" {
			return fmt.Errorf("telemetry.live.base_url is required in live mode")
		}
	case ModeArchive:
		if c.Telemetry.Archive.ConnString == "" {
			return fmt.Errorf("telemetry.archive.conn_string is required in archive mode")
		}
		if !identRe.MatchString(c.Telemetry.Archive.Table) {
			return fmt.Errorf("telemetry.archive.table %q is not a valid identifier", c.Telemetry.Archive.Table)
		}
	case ModeOPCUA:
		if err := c.Telemetry.OPCUA.Validate(); err != nil {
			return fmt.Errorf("telemetry.opcua: %w", err)
		}
	default:
		return fmt.Errorf("telemetry.mode %q is not one of live, archive, opcua", c.Telemetry.Mode)
	}

	seen := make(map[string]struct{}, len(c.Rules))
	for _, r := range c.Rules {
		if r.Channel == "" {
			return fmt.Errorf("rule %q has no channel", r.Name)
		}
		if r.Lower == nil && r.Upper == nil {
			return fmt.Errorf("rule %q needs a lower or upper bound", r.Name)
		}
		if r.Lower != nil && r.Upper != nil && *r.Lower > *r.Upper {
			return fmt.Errorf("rule %q has lower bound above upper bound", r.Name)
		}
		if r.RequiredConsecutiveHits < 1 || r.RepeatIntervalHits < 0 {
			return fmt.Errorf("rule %q has invalid hit counts", r.Name)
		}
		if r.Severity != domain.SeverityWarning && r.Severity != domain.SeverityCritical {
			return fmt.Errorf("rule %q has unknown severity %q", r.Name, r.Severity)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("duplicate rule name %q", r.Name)
		}
		seen[r.Name] = struct{}{}
	}

	for _, ind := range c.Snapshot.Indicators {
		for _, st := range ind.States {
			kinds := 0
			for _, set := range []bool{st.Values != nil, st.Text != nil, st.Ranges != nil} {
				if set {
					kinds++
				}
			}
			if st.Default {
				if kinds != 0 {
					return fmt.Errorf("indicator %q default state %q must not list values", ind.Label, st.Name)
				}
				continue
			}
			if kinds != 1 {
				return fmt.Errorf("indicator %q state %q needs exactly one of values, text or ranges", ind.Label, st.Name)
			}
			if st.Arity() != len(ind.Channels) {
				return fmt.Errorf("indicator %q state %q has %d values for %d channels",
					ind.Label, st.Name, st.Arity(), len(ind.Channels))
			}
		}
	}

	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	return nil
}

// SetDataSource overrides telemetry.mode, e.g. from the command line, and
// re-validates.
func (c *Config) SetDataSource(mode string) error {
	if mode == "" {
		return nil
	}
	c.Telemetry.Mode = mode
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	return nil
}

// ResolveHost looks hostname up in the host table. With no table configured
// the notify section applies to every host.
func (c *Config) ResolveHost(hostname string) (HostConfig, error) {
	if len(c.Hosts) == 0 {
		return HostConfig{TokenFile: c.Notify.TokenFile}, nil
	}
	h, ok := c.Hosts[hostname]
	if !ok {
		return HostConfig{}, fmt.Errorf("%w: unrecognized host %q", domain.ErrConfiguration, hostname)
	}
	if h.TokenFile == "" {
		h.TokenFile = c.Notify.TokenFile
	}
	return h, nil
}

// Destination returns the notification channel, routing to the test
// channel when contact is being simulated.
func (c *Config) Destination(fakeComm bool) string {
	if fakeComm {
		return c.Notify.TestChannel
	}
	return c.Notify.Channel
}
