package ports

import "context"

// Notifier delivers a text message to a named destination channel.
type Notifier interface {
	Send(ctx context.Context, channel, text string) error
	Name() string
}
