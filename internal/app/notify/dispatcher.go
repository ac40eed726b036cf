// Package notify formats operator messages and hands them to a Notifier.
package notify

import (
	"context"
	"fmt"

	"github.com/ghalamif/commsentinel/internal/domain"
	"github.com/ghalamif/commsentinel/internal/ports"
)

// Dispatcher sends to one destination channel and absorbs delivery
// failures: they are logged and counted, never returned.
type Dispatcher struct {
	notifier ports.Notifier
	channel  string
	obs      ports.Observability
}

func NewDispatcher(n ports.Notifier, channel string, obs ports.Observability) *Dispatcher {
	return &Dispatcher{notifier: n, channel: channel, obs: obs}
}

// Channel is the destination every message goes to.
func (d *Dispatcher) Channel() string { return d.channel }

// Send reports whether the message was delivered.
func (d *Dispatcher) Send(ctx context.Context, text string) bool {
	if err := d.notifier.Send(ctx, d.channel, text); err != nil {
		err = fmt.Errorf("%w: %s to %s: %v", domain.ErrNotificationDelivery, d.notifier.Name(), d.channel, err)
		d.obs.IncCounter("commsentinel_notifications_failed_total", 1)
		d.obs.LogError("notification_dropped", err,
			ports.Field{Key: "notifier", Value: d.notifier.Name()},
			ports.Field{Key: "channel", Value: d.channel})
		return false
	}
	d.obs.IncCounter("commsentinel_notifications_sent_total", 1)
	return true
}
