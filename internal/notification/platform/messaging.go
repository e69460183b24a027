package platform

import (
	"context"
	"log/slog"
	"sync"

	"alertsphere/internal/notification/domain"
	"alertsphere/pkg/readiness"
)

// MessageSource delivers raw push payloads until ctx is cancelled.
type MessageSource interface {
	Receive(ctx context.Context, handle func(ctx context.Context, data []byte)) error
}

// Connector performs the asynchronous messaging initialisation and returns
// the source foreground listeners receive from.
type Connector func(ctx context.Context) (MessageSource, error)

// Messaging is the messaging subsystem. Its readiness signal resolves once,
// after Init's connector returns.
type Messaging struct {
	ready    *readiness.Signal
	logger   *slog.Logger
	initOnce sync.Once

	mu     sync.Mutex
	base   context.Context
	source MessageSource
}

func NewMessaging(logger *slog.Logger) *Messaging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Messaging{ready: readiness.New(), logger: logger, base: context.Background()}
}

// Init starts initialisation in the background. Listeners attached later
// receive until ctx is done. Only the first call has any effect.
func (m *Messaging) Init(ctx context.Context, connect Connector) {
	m.initOnce.Do(func() {
		m.mu.Lock()
		m.base = ctx
		m.mu.Unlock()
		go m.connect(ctx, connect)
	})
}

func (m *Messaging) connect(ctx context.Context, connect Connector) {
	src, err := connect(ctx)
	if err == nil && src == nil {
		err = domain.ErrMessagingUnavailable
	}
	if err == nil {
		m.mu.Lock()
		m.source = src
		m.mu.Unlock()
	}
	if m.ready.Resolve(err) && err != nil {
		m.logger.Error("messaging initialisation failed", slog.Any("error", err))
	}
}

func (m *Messaging) Ready() *readiness.Signal { return m.ready }

// OnMessage starts delivering decoded payloads to handler. Payloads that are
// not valid JSON are logged and skipped.
func (m *Messaging) OnMessage(handler domain.MessageHandler) (domain.Listener, error) {
	if !m.ready.Ready() {
		return nil, domain.ErrMessagingNotReady
	}
	m.mu.Lock()
	src, base := m.source, m.base
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(base)
	l := &listener{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(l.done)
		err := src.Receive(ctx, func(ctx context.Context, data []byte) {
			p, err := domain.DecodePayload(data)
			if err != nil {
				m.logger.Warn("skipping malformed foreground payload", slog.Any("error", err))
				return
			}
			handler(ctx, p)
		})
		if err != nil && ctx.Err() == nil {
			m.logger.Error("foreground receive stopped", slog.Any("error", err))
		}
	}()
	return l, nil
}

type listener struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (l *listener) Stop() {
	l.cancel()
	<-l.done
}

func (l *listener) Done() <-chan struct{} { return l.done }
