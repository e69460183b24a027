package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"alertsphere/internal/notification/domain"
)

// PubSubAdmin creates and checks device subscriptions on the alerts topic.
type PubSubAdmin struct {
	client      *pubsub.Client
	topic       string
	ackDeadline time.Duration
}

func NewPubSubAdmin(client *pubsub.Client, topic string) *PubSubAdmin {
	return &PubSubAdmin{client: client, topic: topic, ackDeadline: 10 * time.Second}
}

func (a *PubSubAdmin) EnsureSubscription(ctx context.Context, id string) (string, error) {
	sub := a.client.Subscription(id)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return "", fmt.Errorf("check subscription %s: %w", id, err)
	}
	if exists {
		return sub.String(), nil
	}

	topic := a.client.Topic(a.topic)
	topicExists, err := topic.Exists(ctx)
	if err != nil {
		return "", fmt.Errorf("check topic %s: %w", a.topic, err)
	}
	if !topicExists {
		return "", &domain.PlatformError{Op: "registerBackgroundContext", Code: "topic-missing"}
	}

	// Device subscriptions must outlive long stretches with the client closed.
	sub, err = a.client.CreateSubscription(ctx, id, pubsub.SubscriptionConfig{
		Topic:            topic,
		AckDeadline:      a.ackDeadline,
		ExpirationPolicy: time.Duration(0),
	})
	if status.Code(err) == codes.AlreadyExists {
		// Another context registered the same path concurrently.
		return a.client.Subscription(id).String(), nil
	}
	if err != nil {
		return "", fmt.Errorf("create subscription %s: %w", id, err)
	}
	return sub.String(), nil
}

func (a *PubSubAdmin) SubscriptionExists(ctx context.Context, name string) (bool, error) {
	return a.client.Subscription(subscriptionIDFromName(name)).Exists(ctx)
}

// TopicExists reports whether the alerts topic is reachable; it is the
// messaging subsystem's initialisation check.
func (a *PubSubAdmin) TopicExists(ctx context.Context) (bool, error) {
	return a.client.Topic(a.topic).Exists(ctx)
}

func subscriptionIDFromName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// SubscriptionSource receives raw pushes from the subscription registered
// for a background context path. Every message is acknowledged once after
// the handler returns, whatever it did with the payload.
type SubscriptionSource struct {
	client  *pubsub.Client
	resolve func(ctx context.Context) (string, error)
}

func NewSubscriptionSource(client *pubsub.Client, resolve func(ctx context.Context) (string, error)) *SubscriptionSource {
	return &SubscriptionSource{client: client, resolve: resolve}
}

func (s *SubscriptionSource) Receive(ctx context.Context, handle func(ctx context.Context, data []byte)) error {
	name, err := s.resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve subscription: %w", err)
	}
	sub := s.client.Subscription(subscriptionIDFromName(name))
	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		handle(ctx, msg.Data)
		msg.Ack()
	})
}
