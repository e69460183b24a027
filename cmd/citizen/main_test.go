package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	notificationdomain "alertsphere/internal/notification/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// promptingTokens blocks in AcquireToken the way an open permission prompt
// holds the terminal.
type promptingTokens struct {
	answered chan struct{}
	err      error
}

func (p *promptingTokens) AcquireToken(ctx context.Context) (*notificationdomain.DeviceToken, error) {
	<-p.answered
	if p.err != nil {
		return nil, p.err
	}
	return &notificationdomain.DeviceToken{Value: "tok-1", Owner: "anonymous"}, nil
}

type slowRegistrar struct {
	release chan struct{}
	calls   atomic.Int32
}

func (r *slowRegistrar) Register(ctx context.Context, token notificationdomain.DeviceToken) error {
	r.calls.Add(1)
	<-r.release
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterDevice_TerminalFreeOnlyAfterPrompt(t *testing.T) {
	tokens := &promptingTokens{answered: make(chan struct{})}
	registrar := &slowRegistrar{release: make(chan struct{})}

	returned := make(chan (<-chan struct{}), 1)
	go func() { returned <- registerDevice(context.Background(), tokens, registrar, quietLogger()) }()

	select {
	case <-returned:
		t.Fatal("chat could start while the permission prompt is open")
	case <-time.After(50 * time.Millisecond):
	}

	close(tokens.answered)
	var stored <-chan struct{}
	select {
	case stored = <-returned:
	case <-time.After(time.Second):
		t.Fatal("registerDevice did not return after the prompt")
	}

	// Storing the token does not hold up the client.
	require.Eventually(t, func() bool { return registrar.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	select {
	case <-stored:
		t.Fatal("stored closed before the sinks finished")
	default:
	}
	close(registrar.release)
	<-stored
}

func TestRegisterDevice_NoTokenSkipsSinks(t *testing.T) {
	tokens := &promptingTokens{answered: make(chan struct{}), err: errors.New("permission denied")}
	close(tokens.answered)
	registrar := &slowRegistrar{release: make(chan struct{})}

	stored := registerDevice(context.Background(), tokens, registrar, quietLogger())

	<-stored
	assert.Zero(t, registrar.calls.Load())
}
