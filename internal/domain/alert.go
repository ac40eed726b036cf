package domain

import "time"

// Severity labels a rule for operators.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ViolationRule is a static bound check on one channel. A nil bound means
// the channel is unbounded on that side.
type ViolationRule struct {
	Name                    string   `yaml:"name"`
	Channel                 string   `yaml:"channel"`
	Lower                   *float64 `yaml:"lower"`
	Upper                   *float64 `yaml:"upper"`
	RequiredConsecutiveHits int      `yaml:"required_consecutive_hits"`
	RepeatIntervalHits      int      `yaml:"repeat_interval_hits"`
	Severity                Severity `yaml:"severity"`
}

// Check reports whether v lies outside the rule's bounds and, if so, which
// bound was crossed.
func (r ViolationRule) Check(v float64) (violated bool, side BoundSide, bound float64) {
	if r.Lower != nil && v < *r.Lower {
		return true, BoundLower, *r.Lower
	}
	if r.Upper != nil && v > *r.Upper {
		return true, BoundUpper, *r.Upper
	}
	return false, "", 0
}

// BoundSide names the side of a rule that was crossed.
type BoundSide string

const (
	BoundLower BoundSide = "lower"
	BoundUpper BoundSide = "upper"
)

// RuleState is the runtime bookkeeping the auditor keeps per rule.
type RuleState struct {
	ConsecutiveHits int
	FiredCount      int
	FirstViolation  time.Time
	LastSampleTime  time.Time
}

// Alert is emitted when a rule's violation streak reaches its first-fire
// threshold, and again at every repeat interval while it persists.
type Alert struct {
	Rule           string
	Channel        string
	Severity       Severity
	FirstViolation time.Time
	SampleTime     time.Time
	Value          float64
	Bound          float64
	Side           BoundSide
	Hits           int
	Repeat         bool
}
