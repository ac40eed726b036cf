package commsentinel

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrChannelNotifierClosed is returned when a channel notifier is used after being closed.
var ErrChannelNotifierClosed = errors.New("commsentinel: channel notifier closed")

// Message is one outbound notification.
type Message struct {
	Channel string
	Text    string
}

// MessageHandler receives notifications from a callback notifier.
type MessageHandler func(Message) error

// NewCallbackNotifier adapts a function into a Notifier so callers can route
// messages anywhere without defining a type.
func NewCallbackNotifier(name string, fn MessageHandler) Notifier {
	if name == "" {
		name = "callback"
	}
	return &callbackNotifier{name: name, fn: fn}
}

// NewChannelNotifier exposes messages on a channel; it returns the notifier,
// the read-only channel, and a close function the caller should invoke
// during shutdown.
func NewChannelNotifier(name string, buffer int) (Notifier, <-chan Message, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Message, buffer)
	n := &channelNotifier{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return n, ch, func() { n.close() }
}

type callbackNotifier struct {
	name string
	fn   MessageHandler
}

func (n *callbackNotifier) Send(_ context.Context, channel, text string) error {
	if n.fn == nil {
		return fmt.Errorf("callback notifier %q: nil handler", n.name)
	}
	return n.fn(Message{Channel: channel, Text: text})
}

func (n *callbackNotifier) Name() string { return n.name }

type channelNotifier struct {
	name   string
	ch     chan Message
	closed chan struct{}
	mu     sync.RWMutex
	once   sync.Once
}

func (n *channelNotifier) Send(ctx context.Context, channel, text string) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	select {
	case <-n.closed:
		return ErrChannelNotifierClosed
	default:
	}

	select {
	case <-n.closed:
		return ErrChannelNotifierClosed
	case <-ctx.Done():
		return ctx.Err()
	case n.ch <- Message{Channel: channel, Text: text}:
		return nil
	}
}

func (n *channelNotifier) Name() string { return n.name }

func (n *channelNotifier) close() {
	n.once.Do(func() {
		close(n.closed)
		n.mu.Lock()
		close(n.ch)
		n.mu.Unlock()
	})
}
