package domain

import (
	"sort"
	"strconv"
	"time"
)

// Value is a single telemetry value. Engineering channels are mostly numeric,
// but some (telemetry format, mode words) are reported as text.
type Value struct {
	num     float64
	text    string
	numeric bool
}

// Number wraps a numeric telemetry value.
func Number(v float64) Value { return Value{num: v, numeric: true} }

// Text wraps a textual telemetry value.
func Text(s string) Value { return Value{text: s} }

// Float returns the numeric value and whether the value is numeric.
func (v Value) Float() (float64, bool) { return v.num, v.numeric }

// IsNumeric reports whether the value carries a number.
func (v Value) IsNumeric() bool { return v.numeric }

func (v Value) String() string {
	if v.numeric {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.text
}

// Equal compares two values by kind and content.
func (v Value) Equal(o Value) bool {
	if v.numeric != o.numeric {
		return false
	}
	if v.numeric {
		return v.num == o.num
	}
	return v.text == o.text
}

// Reading is one sample of a named engineering channel.
type Reading struct {
	Channel string    `json:"channel"`
	Value   Value     `json:"-"`
	Time    time.Time `json:"time"`
}

// Series is a time-ordered run of readings for one channel.
type Series []Reading

// Sort orders the series by sample time, oldest first.
func (s Series) Sort() {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })
}

// Latest returns the newest reading.
func (s Series) Latest() (Reading, bool) {
	if len(s) == 0 {
		return Reading{}, false
	}
	return s[len(s)-1], true
}

// After returns the readings strictly newer than t.
func (s Series) After(t time.Time) Series {
	idx := sort.Search(len(s), func(i int) bool { return s[i].Time.After(t) })
	return s[idx:]
}

// Snapshot maps channel identifiers to the series fetched for them.
type Snapshot map[string]Series

// Latest returns the newest reading of channel, if any.
func (s Snapshot) Latest(channel string) (Reading, bool) {
	return s[channel].Latest()
}

// Channels returns the channel identifiers present in the snapshot, sorted.
func (s Snapshot) Channels() []string {
	out := make([]string, 0, len(s))
	for ch := range s {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}
