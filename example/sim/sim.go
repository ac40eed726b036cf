// Package sim is a toy telemetry source for the examples: the heartbeat
// channel alternates between present and absent, and a temperature channel
// drifts through its limits.
package sim

import (
	"context"
	"math"
	"time"

	"github.com/ghalamif/commsentinel"
)

type Source struct {
	Heartbeat string
	Period    time.Duration
	start     time.Time
}

func New(heartbeat string, period time.Duration) *Source {
	return &Source{Heartbeat: heartbeat, Period: period, start: time.Now()}
}

func (s *Source) Name() string { return "sim" }

func (s *Source) Query(_ context.Context, channels []string, start time.Time, stop *time.Time) (map[string]commsentinel.Series, error) {
	end := time.Now()
	if stop != nil && stop.Before(end) {
		end = *stop
	}
	out := make(map[string]commsentinel.Series, len(channels))
	for _, ch := range channels {
		var series commsentinel.Series
		for t := start.Truncate(time.Second); !t.After(end); t = t.Add(time.Second) {
			if t.Before(start) {
				continue
			}
			if ch == s.Heartbeat {
				if s.inComm(t) {
					series = append(series, commsentinel.Reading{Channel: ch, Value: commsentinel.Number(1), Time: t})
				}
				continue
			}
			phase := t.Sub(s.start).Seconds() / s.Period.Seconds()
			v := 20 + 10*math.Sin(2*math.Pi*phase)
			series = append(series, commsentinel.Reading{Channel: ch, Value: commsentinel.Number(v), Time: t})
		}
		if len(series) > 0 {
			out[ch] = series
		}
	}
	return out, nil
}

func (s *Source) inComm(t time.Time) bool {
	return int(t.Sub(s.start)/(s.Period/2))%2 == 0
}
