package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ghalamif/commsentinel/internal/domain"
)

const timeLayout = "01/02/2006 15:04:05"

// SummaryField renders the latest value of one channel. A non-zero Scale
// converts a numeric reading as (v - Offset) / Scale, e.g. bus current in
// amps back to DN; converted values are always printed with Precision digits.
type SummaryField struct {
	Label     string  `yaml:"label"`
	Channel   string  `yaml:"channel"`
	Unit      string  `yaml:"unit"`
	Precision int     `yaml:"precision"`
	Scale     float64 `yaml:"scale"`
	Offset    float64 `yaml:"offset"`
}

// Range is an open interval; a nil side is unbounded.
type Range struct {
	Above *float64 `yaml:"above"`
	Below *float64 `yaml:"below"`
}

func (r Range) contains(v float64) bool {
	return (r.Above == nil || v > *r.Above) && (r.Below == nil || v < *r.Below)
}

// NamedState is one expected condition of a StateIndicator, one entry per
// channel: exact numbers (Values), exact text (Text) or open intervals
// (Ranges). A Default state matches when nothing else does.
type NamedState struct {
	Name    string    `yaml:"name"`
	Values  []float64 `yaml:"values"`
	Text    []string  `yaml:"text"`
	Ranges  []Range   `yaml:"ranges"`
	Default bool      `yaml:"default"`
}

// Arity is the number of channels the state describes, 0 for a default.
func (st NamedState) Arity() int {
	switch {
	case st.Values != nil:
		return len(st.Values)
	case st.Text != nil:
		return len(st.Text)
	case st.Ranges != nil:
		return len(st.Ranges)
	}
	return 0
}

func (st NamedState) matches(vals []domain.Value) bool {
	if len(vals) != st.Arity() {
		return false
	}
	for i, v := range vals {
		switch {
		case st.Text != nil:
			if v.IsNumeric() || v.String() != st.Text[i] {
				return false
			}
		case st.Values != nil:
			if f, ok := v.Float(); !ok || f != st.Values[i] {
				return false
			}
		default:
			if f, ok := v.Float(); !ok || !st.Ranges[i].contains(f) {
				return false
			}
		}
	}
	return true
}

// StateIndicator maps the latest values of a channel tuple onto a named
// state, e.g. top/bottom voltage steps (42, 53) onto "at HALF voltage",
// format FMT1 onto "OBSERVING" or a shield rate above zero onto "UP".
type StateIndicator struct {
	Label    string       `yaml:"label"`
	Channels []string     `yaml:"channels"`
	States   []NamedState `yaml:"states"`
}

// Formatter builds operator messages from snapshots and alerts.
type Formatter struct {
	Fields     []SummaryField
	Indicators []StateIndicator
}

// Channels lists every channel the formatter reads, without duplicates.
func (f Formatter) Channels() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(ch string) {
		if _, ok := seen[ch]; ok || ch == "" {
			return
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	for _, fl := range f.Fields {
		add(fl.Channel)
	}
	for _, ind := range f.Indicators {
		for _, ch := range ind.Channels {
			add(ch)
		}
	}
	return out
}

func (f Formatter) EntryMessage(at time.Time, snap domain.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "We are now *IN COMM* as of `%s`\n", at.UTC().Format(timeLayout))
	f.writeBody(&b, snap, "is")
	return b.String()
}

func (f Formatter) ExitMessage(at time.Time, session domain.CommSession, snap domain.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "It appears that COMM has ended as of `%s` (contact began `%s`)\n",
		at.UTC().Format(timeLayout), session.StartTime.UTC().Format(timeLayout))
	f.writeBody(&b, snap, "was")
	return b.String()
}

func (f Formatter) writeBody(b *strings.Builder, snap domain.Snapshot, verb string) {
	if len(f.Indicators) > 0 {
		b.WriteString("\n")
	}
	for _, ind := range f.Indicators {
		fmt.Fprintf(b, "*%s* %s %s\n", ind.Label, verb, indicatorState(ind, snap))
	}
	if len(f.Fields) > 0 {
		b.WriteString("\n")
	}
	for _, fl := range f.Fields {
		fmt.Fprintf(b, "*%s* %s `%s`\n", fl.Label, verb, fieldValue(fl, snap))
	}
}

func fieldValue(fl SummaryField, snap domain.Snapshot) string {
	r, ok := snap.Latest(fl.Channel)
	if !ok {
		return "no data"
	}
	s := r.Value.String()
	if v, numeric := r.Value.Float(); numeric {
		switch {
		case fl.Scale != 0:
			s = strconv.FormatFloat((v-fl.Offset)/fl.Scale, 'f', fl.Precision, 64)
		case fl.Precision > 0:
			s = strconv.FormatFloat(v, 'f', fl.Precision, 64)
		}
	}
	if fl.Unit != "" {
		s += " " + fl.Unit
	}
	return s
}

func indicatorState(ind StateIndicator, snap domain.Snapshot) string {
	vals := make([]domain.Value, 0, len(ind.Channels))
	parts := make([]string, 0, len(ind.Channels))
	for _, ch := range ind.Channels {
		r, ok := snap.Latest(ch)
		if !ok {
			return "UNKNOWN (no data)"
		}
		vals = append(vals, r.Value)
		parts = append(parts, r.Value.String())
	}

	for _, st := range ind.States {
		if !st.Default && st.matches(vals) {
			return st.Name
		}
	}
	for _, st := range ind.States {
		if st.Default {
			return st.Name
		}
	}
	return fmt.Sprintf("in a POTENTIALLY UNEXPECTED state (%s). CHECK THIS!", strings.Join(parts, "/"))
}

func (f Formatter) AlertMessage(a domain.Alert) string {
	prefix := "WARNING"
	if a.Severity == domain.SeverityCritical {
		prefix = "CRITICAL"
	}
	repeat := ""
	if a.Repeat {
		repeat = " (still violating)"
	}
	return fmt.Sprintf("%s%s: `%s` (%s) reads `%s`, beyond its %s limit of `%s`. Out of limits since `%s`, %d consecutive samples.",
		prefix, repeat, a.Channel, a.Rule,
		strconv.FormatFloat(a.Value, 'f', -1, 64), a.Side,
		strconv.FormatFloat(a.Bound, 'f', -1, 64),
		a.FirstViolation.UTC().Format(timeLayout), a.Hits)
}
