package commsentinel

import (
	"github.com/ghalamif/commsentinel/internal/app/pipeline"
	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

// Reading is one sample of a named telemetry channel.
type Reading = domain.Reading

// Series is a time-ordered run of readings.
type Series = domain.Series

// Value is a numeric or textual telemetry value.
type Value = domain.Value

// ViolationRule is a static bound check on one channel.
type ViolationRule = domain.ViolationRule

// Alert is a confirmed, rate-limited rule violation.
type Alert = domain.Alert

// Status is the poll loop state served on /status.
type Status = pipeline.Status

// TelemetrySource answers windowed channel queries (live feed, archive, OPC UA, simulators).
type TelemetrySource = ports.TelemetrySource

// Lifecycle is implemented by sources that hold a connection open.
type Lifecycle = ports.Lifecycle

// Notifier delivers a message to a named destination channel.
type Notifier = ports.Notifier

// Observability emits logs and metrics about polls, transitions and deliveries.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Sentinel errors, matched with errors.Is.
var (
	ErrDataUnavailable      = domain.ErrDataUnavailable
	ErrNotificationDelivery = domain.ErrNotificationDelivery
	ErrConfiguration        = domain.ErrConfiguration
	ErrTimeout              = domain.ErrTimeout
)

// Number and Text build telemetry values for custom sources.
func Number(v float64) Value { return domain.Number(v) }
func Text(s string) Value    { return domain.Text(s) }
