// Package snapshot fetches named telemetry channels over a time window and
// normalises the result into a domain.Snapshot.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

// Request describes one fetch. AllowSubset tolerates channels with no data
// in range; without it any empty channel fails the whole fetch.
type Request struct {
	Channels    []string
	Start       time.Time
	Stop        *time.Time
	AllowSubset bool
}

// Snapshotter re-queries the source on every call; nothing is cached.
type Snapshotter struct {
	source ports.TelemetrySource
	obs    ports.Observability
}

func New(source ports.TelemetrySource, obs ports.Observability) *Snapshotter {
	return &Snapshotter{source: source, obs: obs}
}

// Fetch returns the requested channels. Every failure is wrapped in
// domain.ErrDataUnavailable, except context expiry which keeps its cause so
// the poll loop can classify it as a timeout.
func (s *Snapshotter) Fetch(ctx context.Context, req Request) (domain.Snapshot, error) {
	if len(req.Channels) == 0 {
		return domain.Snapshot{}, nil
	}
	if req.Stop != nil && req.Stop.Before(req.Start) {
		return nil, fmt.Errorf("%w: window stop %s before start %s", domain.ErrDataUnavailable, req.Stop, req.Start)
	}

	start := time.Now()
	raw, err := s.source.Query(ctx, req.Channels, req.Start, req.Stop)
	s.obs.ObserveLatency("commsentinel_fetch_latency_seconds", time.Since(start).Seconds())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("query %s: %w", s.source.Name(), ctxErr)
		}
		if errors.Is(err, domain.ErrDataUnavailable) {
			return nil, fmt.Errorf("query %s: %w", s.source.Name(), err)
		}
		return nil, fmt.Errorf("%w: query %s: %v", domain.ErrDataUnavailable, s.source.Name(), err)
	}

	out := make(domain.Snapshot, len(req.Channels))
	var missing []string
	for _, ch := range req.Channels {
		series := raw[ch]
		if len(series) == 0 {
			missing = append(missing, ch)
			continue
		}
		cp := make(domain.Series, len(series))
		copy(cp, series)
		cp.Sort()
		out[ch] = cp
	}

	if len(missing) > 0 {
		if !req.AllowSubset || len(out) == 0 {
			return nil, fmt.Errorf("%w: no data in range for %s", domain.ErrDataUnavailable, strings.Join(missing, ","))
		}
		s.obs.LogDebug("snapshot_partial", ports.Field{Key: "missing", Value: missing})
	}
	return out, nil
}
