package repository

import (
	"context"

	"alertsphere/internal/chat/domain"
	"alertsphere/pkg/remote"
)

// HTTPChatClient calls the relay server's chat endpoint.
type HTTPChatClient struct {
	client *remote.Client
}

func NewHTTPChatClient(client *remote.Client) *HTTPChatClient {
	return &HTTPChatClient{client: client}
}

// Ask sends one message and returns the reply, which is empty when the
// server answered without one. Failures are *remote.ServerError or
// *remote.TransportError.
func (c *HTTPChatClient) Ask(ctx context.Context, message string) (string, error) {
	var resp domain.ChatResponse
	if err := c.client.PostJSON(ctx, "/api/chat", domain.ChatRequest{Message: message}, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}
