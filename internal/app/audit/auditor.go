package audit

import (
	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

// Auditor evaluates violation rules against snapshots and rate-limits the
// resulting alerts. It owns one RuleState per rule and is not safe for
// concurrent use.
type Auditor struct {
	rules  []domain.ViolationRule
	states []domain.RuleState
	obs    ports.Observability
}

func New(rules []domain.ViolationRule, obs ports.Observability) *Auditor {
	rs := make([]domain.ViolationRule, len(rules))
	copy(rs, rules)
	for i := range rs {
		if rs[i].Name == "" {
			rs[i].Name = rs[i].Channel
		}
		if rs[i].RequiredConsecutiveHits < 1 {
			rs[i].RequiredConsecutiveHits = 1
		}
	}
	return &Auditor{rules: rs, states: make([]domain.RuleState, len(rs)), obs: obs}
}

func (a *Auditor) Rules() []domain.ViolationRule { return a.rules }

// Channels lists the channels the rules read, without duplicates.
func (a *Auditor) Channels() []string {
	seen := make(map[string]struct{}, len(a.rules))
	out := make([]string, 0, len(a.rules))
	for _, r := range a.rules {
		if _, ok := seen[r.Channel]; ok {
			continue
		}
		seen[r.Channel] = struct{}{}
		out = append(out, r.Channel)
	}
	return out
}

// State returns the runtime state of the named rule.
func (a *Auditor) State(name string) (domain.RuleState, bool) {
	for i, r := range a.rules {
		if r.Name == name {
			return a.states[i], true
		}
	}
	return domain.RuleState{}, false
}

// Reset clears every streak, e.g. when a contact ends.
func (a *Auditor) Reset() {
	for i := range a.states {
		a.states[i] = domain.RuleState{}
	}
}

// Evaluate feeds every sample newer than each rule's last seen sample into
// that rule's streak. A rule whose channel is absent from snap is left as is.
func (a *Auditor) Evaluate(snap domain.Snapshot) []domain.Alert {
	var alerts []domain.Alert
	for i := range a.rules {
		rule := a.rules[i]
		st := &a.states[i]

		series := snap[rule.Channel]
		if !st.LastSampleTime.IsZero() {
			series = series.After(st.LastSampleTime)
		}
		for _, rd := range series {
			st.LastSampleTime = rd.Time
			v, ok := rd.Value.Float()
			if !ok {
				continue
			}

			violated, side, bound := rule.Check(v)
			if !violated {
				if st.ConsecutiveHits > 0 {
					a.obs.LogDebug("rule_cleared",
						ports.Field{Key: "rule", Value: rule.Name},
						ports.Field{Key: "hits", Value: st.ConsecutiveHits})
				}
				*st = domain.RuleState{LastSampleTime: rd.Time}
				continue
			}

			st.ConsecutiveHits++
			if st.ConsecutiveHits == 1 {
				st.FirstViolation = rd.Time
			}
			if !shouldFire(rule, st.ConsecutiveHits) {
				continue
			}
			st.FiredCount++
			alerts = append(alerts, domain.Alert{
				Rule:           rule.Name,
				Channel:        rule.Channel,
				Severity:       rule.Severity,
				FirstViolation: st.FirstViolation,
				SampleTime:     rd.Time,
				Value:          v,
				Bound:          bound,
				Side:           side,
				Hits:           st.ConsecutiveHits,
				Repeat:         st.FiredCount > 1,
			})
		}
	}

	if len(alerts) > 0 {
		a.obs.IncCounter("commsentinel_alerts_total", float64(len(alerts)))
	}
	return alerts
}

// shouldFire is true at the first-fire threshold and at every repeat
// interval after it.
func shouldFire(rule domain.ViolationRule, hits int) bool {
	req := rule.RequiredConsecutiveHits
	if hits == req {
		return true
	}
	if rule.RepeatIntervalHits <= 0 || hits < req {
		return false
	}
	return (hits-req)%rule.RepeatIntervalHits == 0
}
