package ports

import "time"

type Policy struct {
	Cadence      time.Duration `yaml:"cadence"`
	CycleTimeout time.Duration `yaml:"cycle_timeout"`

	EnterPolls int           `yaml:"enter_polls"`
	ExitPolls  int           `yaml:"exit_polls"`
	ExitGrace  time.Duration `yaml:"exit_grace"`

	EntryLookback time.Duration `yaml:"entry_lookback"`
	ExitPadding   time.Duration `yaml:"exit_padding"`
	AuditLookback time.Duration `yaml:"audit_lookback"`
	AuditEvery    int           `yaml:"audit_every"`
}
