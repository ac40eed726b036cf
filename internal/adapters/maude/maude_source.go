// Package maude queries a MAUDE-style live telemetry web service. Responses
// are JSON of the form
//
//	{"data": [{"msid": "CVCDUCTR", "times": [1714560000.25, ...], "values": [12, ...]}]}
//
// with times in Unix seconds. The feed is low latency but routinely returns
// partial or malformed payloads while frames are streaming in. A malformed
// MSID is dropped from the result; the others are still returned.
package maude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

type Config struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Source struct {
	base   string
	client *http.Client
	obs    ports.Observability
}

func NewSource(cfg Config, client *http.Client, obs ports.Observability) *Source {
	return &Source{base: strings.TrimRight(cfg.BaseURL, "/"), client: client, obs: obs}
}

func (s *Source) Name() string { return "maude" }

type response struct {
	Data []struct {
		MSID   string            `json:"msid"`
		Times  []float64         `json:"times"`
		Values []json.RawMessage `json:"values"`
	} `json:"data"`
}

func (s *Source) Query(ctx context.Context, channels []string, start time.Time, stop *time.Time) (map[string]domain.Series, error) {
	if len(channels) == 0 {
		return map[string]domain.Series{}, nil
	}

	q := url.Values{}
	q.Set("msids", strings.Join(channels, ","))
	q.Set("start", start.UTC().Format(time.RFC3339))
	if stop != nil {
		q.Set("stop", stop.UTC().Format(time.RFC3339))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/msids?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("maude request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: maude get: %w", domain.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: maude read: %w", domain.ErrDataUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: maude status %d", domain.ErrDataUnavailable, resp.StatusCode)
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: maude decode: %v", domain.ErrDataUnavailable, err)
	}

	out := make(map[string]domain.Series, len(r.Data))
	for _, d := range r.Data {
		series, err := decodeSeries(d.MSID, d.Times, d.Values)
		if err != nil {
			s.obs.LogDebug("maude_msid_dropped",
				ports.Field{Key: "msid", Value: d.MSID},
				ports.Field{Key: "error", Value: err.Error()})
			continue
		}
		out[d.MSID] = series
	}
	return out, nil
}

func decodeSeries(msid string, times []float64, values []json.RawMessage) (domain.Series, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%d times but %d values", len(times), len(values))
	}
	series := make(domain.Series, 0, len(times))
	for i, ts := range times {
		v, err := decodeValue(values[i])
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		series = append(series, domain.Reading{Channel: msid, Value: v, Time: unixSeconds(ts)})
	}
	return series, nil
}

func decodeValue(raw json.RawMessage) (domain.Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.Value{}, fmt.Errorf("missing value")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.Value{}, err
		}
		return domain.Text(s), nil
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return domain.Value{}, err
	}
	return domain.Number(f), nil
}

func unixSeconds(s float64) time.Time {
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

var _ ports.TelemetrySource = (*Source)(nil)
