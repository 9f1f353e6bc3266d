package bus

import "context"

// NoopBus discards every event. Used when run events are disabled.
type NoopBus struct{}

// NewNoopBus creates a bus that accepts and drops all events.
func NewNoopBus() *NoopBus { return &NoopBus{} }

func (*NoopBus) Publish(context.Context, string, Event) error { return nil }

func (*NoopBus) Subscribe(context.Context, string, Handler) error { return nil }

func (*NoopBus) Close() error { return nil }
