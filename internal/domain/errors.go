package domain

import "errors"

var (
	// ErrDataUnavailable marks a transient telemetry fetch failure.
	ErrDataUnavailable = errors.New("commsentinel: telemetry unavailable")
	// ErrNotificationDelivery marks a failed notification send.
	ErrNotificationDelivery = errors.New("commsentinel: notification delivery failed")
	// ErrConfiguration marks an unrecoverable startup problem.
	ErrConfiguration = errors.New("commsentinel: configuration error")
	// ErrTimeout marks a cycle that exceeded its wall-clock budget.
	ErrTimeout = errors.New("commsentinel: cycle timed out")
)

// ErrorKind classifies err against the taxonomy above for logging.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrNotificationDelivery):
		return "notification_delivery"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "unclassified"
	}
}
