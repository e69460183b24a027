package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"alertsphere/internal/notification/domain"
	"alertsphere/pkg/readiness"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGateway behaves like a platform that remembers permission decisions and
// registrations, so repeat calls neither prompt nor re-register.
type fakeGateway struct {
	mu sync.Mutex

	answer      domain.Permission
	promptErr   error
	registerErr error
	fetchErr    error
	token       string

	decided       domain.Permission
	prompts       int
	registrations map[string]*domain.Registration
	registerCalls int
	fetchCalls    int
	shown         []domain.Notification
	showErr       error
}

func newFakeGateway(answer domain.Permission) *fakeGateway {
	return &fakeGateway{
		answer:        answer,
		token:         "token-123",
		registrations: make(map[string]*domain.Registration),
	}
}

func (g *fakeGateway) RequestPermission(ctx context.Context) (domain.Permission, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.decided == domain.PermissionGranted || g.decided == domain.PermissionDenied {
		return g.decided, nil
	}
	g.prompts++
	if g.promptErr != nil {
		return domain.PermissionDefault, g.promptErr
	}
	if g.answer != domain.PermissionDefault {
		g.decided = g.answer
	}
	return g.answer, nil
}

func (g *fakeGateway) RegisterBackgroundContext(ctx context.Context, path string) (*domain.Registration, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registerCalls++
	if g.registerErr != nil {
		return nil, g.registerErr
	}
	if reg, ok := g.registrations[path]; ok {
		return reg, nil
	}
	reg := &domain.Registration{Path: path, Subscription: "projects/test/subscriptions/sw", RegisteredAt: time.Now()}
	g.registrations[path] = reg
	return reg, nil
}

func (g *fakeGateway) FetchToken(ctx context.Context, vapidKey string, reg *domain.Registration) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetchCalls++
	if g.fetchErr != nil {
		return "", g.fetchErr
	}
	return g.token, nil
}

func (g *fakeGateway) ShowNotification(ctx context.Context, n domain.Notification) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.showErr != nil {
		return g.showErr
	}
	g.shown = append(g.shown, n)
	return nil
}

func (g *fakeGateway) Shown() []domain.Notification {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.Notification(nil), g.shown...)
}

type fakeMessaging struct {
	ready *readiness.Signal

	mu        sync.Mutex
	handlers  []domain.MessageHandler
	listeners []*fakeListener
	attaches  int
}

func newFakeMessaging() *fakeMessaging {
	return &fakeMessaging{ready: readiness.New()}
}

func readyMessaging() *fakeMessaging {
	m := newFakeMessaging()
	m.ready.Resolve(nil)
	return m
}

func (m *fakeMessaging) Ready() *readiness.Signal { return m.ready }

func (m *fakeMessaging) OnMessage(handler domain.MessageHandler) (domain.Listener, error) {
	if !m.ready.Ready() {
		return nil, domain.ErrMessagingNotReady
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attaches++
	idx := len(m.handlers)
	m.handlers = append(m.handlers, handler)
	l := &fakeListener{done: make(chan struct{})}
	l.end = func() {
		m.mu.Lock()
		m.handlers[idx] = nil
		m.mu.Unlock()
		close(l.done)
	}
	m.listeners = append(m.listeners, l)
	return l, nil
}

// failAll ends every attached listener as a dying receive loop would.
func (m *fakeMessaging) failAll() {
	m.mu.Lock()
	listeners := append([]*fakeListener(nil), m.listeners...)
	m.mu.Unlock()
	for _, l := range listeners {
		l.Stop()
	}
}

func (m *fakeMessaging) deliver(p domain.Payload) {
	m.mu.Lock()
	handlers := append([]domain.MessageHandler(nil), m.handlers...)
	m.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h(context.Background(), p)
		}
	}
}

type fakeListener struct {
	once sync.Once
	end  func()
	done chan struct{}
}

func (l *fakeListener) Stop() { l.once.Do(l.end) }
func (l *fakeListener) Done() <-chan struct{} { return l.done }

type recordingDisplay struct {
	mu    sync.Mutex
	shown []domain.Notification
}

func (d *recordingDisplay) Show(ctx context.Context, n domain.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, n)
	return nil
}
