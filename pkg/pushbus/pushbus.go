package pushbus

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// NewClient opens a Pub/Sub client, using credentialsFile when set and
// application default credentials otherwise.
func NewClient(ctx context.Context, projectID, credentialsFile string) (*pubsub.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	return client, nil
}

// Publisher fans alert pushes out to every device subscription on a topic.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

func NewPublisher(client *pubsub.Client, topicID string) *Publisher {
	return &Publisher{client: client, topic: client.Topic(topicID)}
}

// EnsureTopic creates the topic when it does not exist yet.
func (p *Publisher) EnsureTopic(ctx context.Context) error {
	exists, err := p.topic.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check topic %s: %w", p.topic.ID(), err)
	}
	if exists {
		return nil
	}
	if _, err := p.client.CreateTopic(ctx, p.topic.ID()); err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic.ID(), err)
	}
	return nil
}

// Publish sends data and blocks until the server assigns a message id.
func (p *Publisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	id, err := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", p.topic.ID(), err)
	}
	return id, nil
}

// Stop flushes pending publishes.
func (p *Publisher) Stop() {
	p.topic.Stop()
}
