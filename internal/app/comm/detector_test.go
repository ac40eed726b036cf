package comm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ghalamif/commsentinel/internal/app/snapshot"
	"github.com/ghalamif/commsentinel/internal/domain"
)

func TestDetectorPresentWhenHeartbeatHasSamples(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	f := &stubFetcher{snap: domain.Snapshot{
		"CVCDUCTR": {{Channel: "CVCDUCTR", Value: domain.Number(1), Time: now.Add(-10 * time.Second)}},
	}}
	obs := newMockObs()
	d := NewDetector(f, DetectorConfig{Channel: "CVCDUCTR", Now: func() time.Time { return now }}, obs)

	hb := d.Poll(context.Background())
	if !hb.Present || !hb.ObservedAt.Equal(now) {
		t.Fatalf("unexpected heartbeat %+v", hb)
	}
	if len(f.reqs) != 1 || !f.reqs[0].Start.Equal(now.Add(-60*time.Second)) {
		t.Fatalf("expected a 60s lookback window, got %+v", f.reqs)
	}
	if obs.counters["commsentinel_polls_total"] != 1 {
		t.Fatalf("expected poll counter")
	}
}

func TestDetectorFetchErrorCountsAsAbsent(t *testing.T) {
	f := &stubFetcher{err: domain.ErrDataUnavailable}
	obs := newMockObs()
	d := NewDetector(f, DetectorConfig{Channel: "CVCDUCTR"}, obs)

	if d.Poll(context.Background()).Present {
		t.Fatalf("expected absent heartbeat on fetch error")
	}
	if obs.counters["commsentinel_heartbeat_missing_total"] != 1 {
		t.Fatalf("expected heartbeat_missing counter")
	}
}

func TestDetectorEmptySeriesIsAbsent(t *testing.T) {
	f := &stubFetcher{snap: domain.Snapshot{"CVCDUCTR": nil}}
	d := NewDetector(f, DetectorConfig{Channel: "CVCDUCTR"}, newMockObs())
	if d.Poll(context.Background()).Present {
		t.Fatalf("expected absent heartbeat for empty series")
	}
}

func TestDetectorForceContactSkipsFetch(t *testing.T) {
	f := &stubFetcher{err: errors.New("should not be called")}
	d := NewDetector(f, DetectorConfig{Channel: "CVCDUCTR", ForceContact: true}, newMockObs())
	if !d.Poll(context.Background()).Present {
		t.Fatalf("expected forced contact")
	}
	if len(f.reqs) != 0 {
		t.Fatalf("forced contact must not query telemetry")
	}
}

type stubFetcher struct {
	snap domain.Snapshot
	err  error
	reqs []snapshot.Request
}

func (s *stubFetcher) Fetch(_ context.Context, req snapshot.Request) (domain.Snapshot, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}
