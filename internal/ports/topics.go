package ports

import "context"

type TopicsPort interface {
	TopicExists(ctx context.Context, project string, topic string) (bool, error)

	// Publish sends one message and returns the server-assigned id.
	// Payloads are already wrapped in the fleet envelope.
	Publish(ctx context.Context, project string, topic string, payload []byte) (string, error)
}

// SubscriberPort pulls messages from a subscription until the context
// ends. Handler errors nack the message.
type SubscriberPort interface {
	Receive(ctx context.Context, project string, subscription string, handle func(ctx context.Context, data []byte) error) error
}
