package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestSeriesSortAndAfter(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Series{
		{Channel: "X", Value: Number(3), Time: base.Add(3 * time.Second)},
		{Channel: "X", Value: Number(1), Time: base.Add(1 * time.Second)},
		{Channel: "X", Value: Number(2), Time: base.Add(2 * time.Second)},
	}
	s.Sort()
	for i, want := range []float64{1, 2, 3} {
		if got, _ := s[i].Value.Float(); got != want {
			t.Fatalf("sorted[%d] = %v, want %v", i, got, want)
		}
	}

	after := s.After(base.Add(2 * time.Second))
	if len(after) != 1 {
		t.Fatalf("After should be strict, got %d readings", len(after))
	}
	if len(s.After(time.Time{})) != 3 {
		t.Fatalf("zero time should keep every reading")
	}

	latest, ok := s.Latest()
	if !ok || !latest.Time.Equal(base.Add(3*time.Second)) {
		t.Fatalf("unexpected latest reading %+v", latest)
	}
	if _, ok := (Series{}).Latest(); ok {
		t.Fatalf("empty series has no latest reading")
	}
}

func TestValueKinds(t *testing.T) {
	n := Number(2.5)
	if v, ok := n.Float(); !ok || v != 2.5 {
		t.Fatalf("Number float = %v, %v", v, ok)
	}
	if n.String() != "2.5" {
		t.Fatalf("Number string = %q", n.String())
	}

	txt := Text("FMT2")
	if txt.IsNumeric() {
		t.Fatalf("text value reported numeric")
	}
	if _, ok := txt.Float(); ok {
		t.Fatalf("text value must not convert to float")
	}
	if txt.String() != "FMT2" {
		t.Fatalf("Text string = %q", txt.String())
	}

	if !n.Equal(Number(2.5)) || n.Equal(Text("2.5")) || !txt.Equal(Text("FMT2")) {
		t.Fatalf("Equal compares kind and content")
	}
}

func TestSnapshotChannelsSorted(t *testing.T) {
	snap := Snapshot{"B": nil, "A": nil, "C": nil}
	got := snap.Channels()
	if fmt.Sprint(got) != "[A B C]" {
		t.Fatalf("Channels = %v", got)
	}
}

func TestViolationRuleCheck(t *testing.T) {
	lo, hi := 0.0, 10.0
	r := ViolationRule{Lower: &lo, Upper: &hi}

	if v, _, _ := r.Check(10); v {
		t.Fatalf("value on the bound is in range")
	}
	if v, side, bound := r.Check(-1); !v || side != BoundLower || bound != lo {
		t.Fatalf("expected lower violation, got %v %s %v", v, side, bound)
	}
	if v, side, bound := r.Check(11); !v || side != BoundUpper || bound != hi {
		t.Fatalf("expected upper violation, got %v %s %v", v, side, bound)
	}

	upperOnly := ViolationRule{Upper: &hi}
	if v, _, _ := upperOnly.Check(-1e9); v {
		t.Fatalf("nil lower bound is unbounded")
	}
}

func TestErrorKind(t *testing.T) {
	cases := map[string]error{
		"":                      nil,
		"timeout":               fmt.Errorf("poll: %w", ErrTimeout),
		"data_unavailable":      fmt.Errorf("fetch: %w", ErrDataUnavailable),
		"notification_delivery": ErrNotificationDelivery,
		"configuration":         ErrConfiguration,
		"unclassified":          context.Canceled,
	}
	for want, err := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
	if ErrorKind(errors.Join(ErrDataUnavailable, ErrTimeout)) != "timeout" {
		t.Fatalf("timeout takes precedence")
	}
}

func TestCommStateString(t *testing.T) {
	if InComm.String() != "IN_COMM" || NotInComm.String() != "NOT_IN_COMM" {
		t.Fatalf("unexpected state names %s %s", InComm, NotInComm)
	}
}
