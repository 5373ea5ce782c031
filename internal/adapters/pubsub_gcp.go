package adapters

import (
	"context"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"funcfleet/internal/ports"
)

// PubSubGCPAdapter publishes fleet envelopes and pulls admin relay
// messages. Clients are cached per project.
type PubSubGCPAdapter struct {
	mu      sync.Mutex
	clients map[string]*pubsub.Client
}

func NewPubSubGCPAdapter() *PubSubGCPAdapter {
	return &PubSubGCPAdapter{clients: map[string]*pubsub.Client{}}
}

func (a *PubSubGCPAdapter) client(ctx context.Context, project string) (*pubsub.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if client, ok := a.clients[project]; ok {
		return client, nil
	}
	client, err := pubsub.NewClient(ctx, project)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create pubsub client").
			WithCause(err)
	}
	a.clients[project] = client
	return client, nil
}

func (a *PubSubGCPAdapter) TopicExists(ctx context.Context, project string, topic string) (bool, error) {
	client, err := a.client(ctx, project)
	if err != nil {
		return false, err
	}
	exists, err := client.Topic(topic).Exists(ctx)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to check topic").
			WithCause(err)
	}
	return exists, nil
}

func (a *PubSubGCPAdapter) Publish(ctx context.Context, project string, topic string, payload []byte) (string, error) {
	client, err := a.client(ctx, project)
	if err != nil {
		return "", err
	}
	result := client.Topic(topic).Publish(ctx, &pubsub.Message{Data: payload})
	id, err := result.Get(ctx)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to publish message").
			WithCause(err)
	}
	return id, nil
}

func (a *PubSubGCPAdapter) Receive(ctx context.Context, project string, subscription string, handle func(ctx context.Context, data []byte) error) error {
	client, err := a.client(ctx, project)
	if err != nil {
		return err
	}
	sub := client.Subscription(subscription)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if err := handle(ctx, msg.Data); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if err != nil && ctx.Err() == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("subscription receive failed").
			WithCause(err)
	}
	return nil
}

var _ ports.TopicsPort = (*PubSubGCPAdapter)(nil)
var _ ports.SubscriberPort = (*PubSubGCPAdapter)(nil)
