package fcm

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// NewApp initialises a Firebase app shared by the messaging and Firestore
// clients. An empty credentialsFile falls back to application default
// credentials.
func NewApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}

// Client wraps Firebase Cloud Messaging for web push tokens.
type Client struct {
	messagingClient *messaging.Client
	icon            string
	logger          *slog.Logger
}

// NewClient creates an FCM client from an initialised app. icon is the fixed
// notification icon path sent with every web push.
func NewClient(ctx context.Context, app *firebase.App, icon string, logger *slog.Logger) (*Client, error) {
	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("FCM client initialized")
	return &Client{messagingClient: messagingClient, icon: icon, logger: logger}, nil
}

// NotificationData contains the data to send in a push notification
type NotificationData struct {
	Title string
	Body  string
	Data  map[string]string
}

// SendResult reports a multicast outcome. Dead tokens will never succeed
// again and should be removed; Retry tokens failed transiently.
type SendResult struct {
	Success int
	Dead    []string
	Retry   []string
}

func (c *Client) message(notification NotificationData) (*messaging.Notification, *messaging.WebpushConfig) {
	return &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		}, &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: notification.Title,
				Body:  notification.Body,
				Icon:  c.icon,
			},
		}
}

// SendToDevice sends a push notification to a specific device token
func (c *Client) SendToDevice(ctx context.Context, token string, notification NotificationData) error {
	n, webpush := c.message(notification)
	response, err := c.messagingClient.Send(ctx, &messaging.Message{
		Token:        token,
		Notification: n,
		Data:         notification.Data,
		Webpush:      webpush,
	})
	if err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}

	c.logger.Debug("FCM message sent", slog.String("id", response))
	return nil
}

// SendToDevices multicasts a push notification. At most 500 tokens are sent
// per request, larger lists are chunked.
func (c *Client) SendToDevices(ctx context.Context, tokens []string, notification NotificationData) (SendResult, error) {
	var result SendResult
	n, webpush := c.message(notification)

	for start := 0; start < len(tokens); start += 500 {
		end := min(start+500, len(tokens))
		batch := tokens[start:end]

		response, err := c.messagingClient.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       batch,
			Notification: n,
			Data:         notification.Data,
			Webpush:      webpush,
		})
		if err != nil {
			return result, fmt.Errorf("failed to send FCM multicast message: %w", err)
		}

		result.Success += response.SuccessCount
		for i, resp := range response.Responses {
			if resp.Success {
				continue
			}
			if messaging.IsUnregistered(resp.Error) || messaging.IsInvalidArgument(resp.Error) {
				result.Dead = append(result.Dead, batch[i])
			} else {
				result.Retry = append(result.Retry, batch[i])
			}
			c.logger.Warn("FCM delivery failed",
				slog.String("token", truncate(batch[i])),
				slog.Any("error", resp.Error),
			)
		}
	}

	c.logger.Info("FCM multicast sent",
		slog.Int("success", result.Success),
		slog.Int("dead", len(result.Dead)),
		slog.Int("retry", len(result.Retry)),
	)
	return result, nil
}

func truncate(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
