package broker

import "context"

// NoopBroker discards lifecycle events. Used when the broker is disabled.
type NoopBroker struct{}

func NewNoopBroker() *NoopBroker {
	return &NoopBroker{}
}

func (b *NoopBroker) Publish(ctx context.Context, channel string, event Event) error {
	return nil
}

func (b *NoopBroker) Subscribe(ctx context.Context, channel string) (<-chan Event, error) {
	events := make(chan Event)
	go func() {
		<-ctx.Done()
		close(events)
	}()
	return events, nil
}

func (b *NoopBroker) Close() error {
	return nil
}

func (b *NoopBroker) Type() string {
	return "none"
}
