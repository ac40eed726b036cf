package ports

import (
	"context"
	"time"

	"github.com/ghalamif/commsentinel/internal/domain"
)

// TelemetrySource answers windowed queries for named channels. A nil stop
// means "up to now". Implementations return per-channel series in time
// order; channels with no samples in range are absent or empty.
type TelemetrySource interface {
	Query(ctx context.Context, channels []string, start time.Time, stop *time.Time) (map[string]domain.Series, error)
	Name() string
}

// Lifecycle is implemented by sources that hold a live connection
// (subscriptions, pools) and need explicit start/stop.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop() error
}
