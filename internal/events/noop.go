package events

import "context"

// NoopPublisher is a Publisher that drops every event; used when no NATS URL
// is configured.
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(context.Context, string, any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}
