package platform

import (
	"context"

	"alertsphere/internal/notification/domain"
)

// Gateway is the terminal-and-Pub/Sub implementation of domain.Gateway.
type Gateway struct {
	permissions *Permissions
	registry    *ContextRegistry
	issuer      *TokenIssuer
	display     domain.Display
}

func NewGateway(permissions *Permissions, registry *ContextRegistry, issuer *TokenIssuer, display domain.Display) *Gateway {
	return &Gateway{
		permissions: permissions,
		registry:    registry,
		issuer:      issuer,
		display:     display,
	}
}

func (g *Gateway) RequestPermission(ctx context.Context) (domain.Permission, error) {
	return g.permissions.Request(ctx)
}

func (g *Gateway) RegisterBackgroundContext(ctx context.Context, path string) (*domain.Registration, error) {
	return g.registry.Register(ctx, path)
}

func (g *Gateway) FetchToken(ctx context.Context, vapidKey string, reg *domain.Registration) (string, error) {
	return g.issuer.Fetch(ctx, vapidKey, reg)
}

func (g *Gateway) ShowNotification(ctx context.Context, n domain.Notification) error {
	return g.display.Show(ctx, n)
}
