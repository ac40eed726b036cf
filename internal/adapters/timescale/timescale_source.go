package timescale

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

// Source reads archived telemetry from a TimescaleDB hypertable shaped as
// (channel text, ts timestamptz, value double precision, text_value text).
type Source struct {
	db        *sql.DB
	tableName string
	obs       ports.Observability
}

func NewSource(db *sql.DB, table string, obs ports.Observability) *Source {
	return &Source{db: db, tableName: table, obs: obs}
}

func (t *Source) Name() string { return "timescaledb" }

func (t *Source) Query(ctx context.Context, channels []string, start time.Time, stop *time.Time) (map[string]domain.Series, error) {
	if len(channels) == 0 {
		return map[string]domain.Series{}, nil
	}

	var b strings.Builder
	b.WriteString("SELECT channel, ts, value, text_value FROM ")
	b.WriteString(t.tableName)
	b.WriteString(" WHERE channel = ANY($1) AND ts >= $2")
	args := []any{pq.Array(channels), start}
	if stop != nil {
		args = append(args, *stop)
		b.WriteString(fmt.Sprintf(" AND ts <= $%d", len(args)))
	}
	b.WriteString(" ORDER BY channel, ts")

	rows, err := t.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", domain.ErrDataUnavailable, t.tableName, err)
	}
	defer rows.Close()

	out := make(map[string]domain.Series, len(channels))
	skipped := 0
	for rows.Next() {
		var (
			ch   string
			ts   time.Time
			num  sql.NullFloat64
			text sql.NullString
		)
		if err := rows.Scan(&ch, &ts, &num, &text); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", domain.ErrDataUnavailable, t.tableName, err)
		}

		var v domain.Value
		switch {
		case num.Valid:
			v = domain.Number(num.Float64)
		case text.Valid:
			v = domain.Text(text.String)
		default:
			skipped++
			continue
		}
		out[ch] = append(out[ch], domain.Reading{Channel: ch, Value: v, Time: ts})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrDataUnavailable, t.tableName, err)
	}

	if skipped > 0 {
		t.obs.LogDebug("timescale_rows_skipped", ports.Field{Key: "count", Value: skipped})
	}
	return out, nil
}

var _ ports.TelemetrySource = (*Source)(nil)
