package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	notificationdomain "alertsphere/internal/notification/domain"
	"alertsphere/internal/subscriber/domain"
	"alertsphere/internal/subscriber/repository"
)

// SubscriberUsecase is the server side of token registration.
type SubscriberUsecase interface {
	RegisterToken(ctx context.Context, owner string, req domain.RegisterTokenRequest) (string, error)
	UnregisterToken(ctx context.Context, token string) error
	// WebTokens and RemoveDead back the broadcast fan-out.
	WebTokens(ctx context.Context) ([]string, error)
	RemoveDead(ctx context.Context, tokens []string) error
}

type subscriberUsecase struct {
	repo       repository.TokenRepository
	suppressed repository.SuppressionCache
	logger     *slog.Logger
}

func NewSubscriberUsecase(repo repository.TokenRepository, suppressed repository.SuppressionCache, logger *slog.Logger) SubscriberUsecase {
	if suppressed == nil {
		suppressed = repository.NoSuppression{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &subscriberUsecase{repo: repo, suppressed: suppressed, logger: logger}
}

// RegisterToken upserts the token and returns the platform it was filed
// under. Pub/Sub device tokens are recognised by shape; anything else is an
// FCM web token unless the client says otherwise.
func (u *subscriberUsecase) RegisterToken(ctx context.Context, owner string, req domain.RegisterTokenRequest) (string, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return "", domain.ErrTokenRequired
	}
	if owner == "" {
		owner = domain.AnonymousOwner
	}

	suppressed, err := u.suppressed.IsSuppressed(ctx, token)
	if err != nil {
		u.logger.Warn("suppression lookup failed", slog.Any("error", err))
	} else if suppressed {
		return "", domain.ErrTokenSuppressed
	}

	platform := classifyPlatform(token, req.Platform)
	if err := u.repo.Save(ctx, owner, token, platform); err != nil {
		return "", fmt.Errorf("failed to save token: %w", err)
	}
	return platform, nil
}

func (u *subscriberUsecase) UnregisterToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return domain.ErrTokenRequired
	}
	return u.repo.Delete(ctx, token)
}

func (u *subscriberUsecase) WebTokens(ctx context.Context) ([]string, error) {
	return u.repo.TokensByPlatform(ctx, domain.PlatformWeb)
}

// RemoveDead deletes tokens the push provider reported as gone and keeps
// them suppressed for a while.
func (u *subscriberUsecase) RemoveDead(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	n, err := u.repo.DeleteMany(ctx, tokens)
	if err != nil {
		return fmt.Errorf("failed to delete dead tokens: %w", err)
	}
	if err := u.suppressed.Suppress(ctx, tokens...); err != nil {
		u.logger.Warn("failed to suppress dead tokens", slog.Any("error", err))
	}
	u.logger.Info("removed dead tokens", slog.Int64("count", n))
	return nil
}

func classifyPlatform(token, requested string) string {
	if _, _, err := notificationdomain.ParsePubSubToken(token); err == nil {
		return domain.PlatformPubSub
	}
	if requested = strings.ToLower(strings.TrimSpace(requested)); requested != "" && requested != domain.PlatformPubSub {
		return requested
	}
	return domain.PlatformWeb
}
