package usecase

import (
	"context"
	"log/slog"
	"sync"

	"alertsphere/internal/notification/domain"
	"alertsphere/pkg/metrics"
)

// ForegroundBridge turns push payloads that arrive while the application is
// open into in-app notifications, using the same display primitive as the
// background path.
type ForegroundBridge struct {
	messaging domain.Messaging
	gateway   domain.Gateway
	icon      string
	logger    *slog.Logger

	mu       sync.Mutex
	listener domain.Listener
}

func NewForegroundBridge(messaging domain.Messaging, gateway domain.Gateway, icon string, logger *slog.Logger) *ForegroundBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForegroundBridge{
		messaging: messaging,
		gateway:   gateway,
		icon:      icon,
		logger:    logger,
	}
}

// Listen attaches the foreground listener and reports whether it did. It is a
// no-op when messaging is not ready yet or a listener is already attached.
// A listener whose delivery ends on its own no longer counts as attached.
// onEvent, if set, is called after each notification is shown.
func (b *ForegroundBridge) Listen(onEvent func(domain.Notification)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.listener != nil {
		return false
	}
	if !b.messaging.Ready().Ready() {
		b.logger.Debug("messaging not ready, foreground listener not attached")
		return false
	}

	l, err := b.messaging.OnMessage(func(ctx context.Context, p domain.Payload) {
		b.handle(ctx, p, onEvent)
	})
	if err != nil {
		b.logger.Warn("failed to attach foreground listener", slog.Any("error", err))
		return false
	}
	b.listener = l
	go b.watch(l)
	return true
}

// Attached reports whether a listener is currently delivering.
func (b *ForegroundBridge) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listener != nil
}

// Close detaches the listener.
func (b *ForegroundBridge) Close() {
	b.mu.Lock()
	l := b.listener
	b.listener = nil
	b.mu.Unlock()

	if l != nil {
		l.Stop()
	}
}

func (b *ForegroundBridge) watch(l domain.Listener) {
	<-l.Done()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listener == l {
		b.listener = nil
		b.logger.Warn("foreground listener stopped, it can be attached again")
	}
}

func (b *ForegroundBridge) handle(ctx context.Context, p domain.Payload, onEvent func(domain.Notification)) {
	n, ok := p.ToNotification(b.icon)
	if !ok {
		metrics.NotificationsDroppedTotal.WithLabelValues("foreground", "no_title").Inc()
		b.logger.Debug("dropping foreground payload without title")
		return
	}

	if err := b.gateway.ShowNotification(ctx, n); err != nil {
		b.logger.Error("failed to show foreground notification",
			slog.String("title", n.Title),
			slog.Any("error", err),
		)
		return
	}
	metrics.NotificationsShownTotal.WithLabelValues("foreground").Inc()

	if onEvent != nil {
		onEvent(n)
	}
}
