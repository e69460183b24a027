// Package readiness provides a once-resolved readiness signal that any number
// of goroutines can wait on with a deadline.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrTimeout is returned by Wait when the signal is not resolved in time.
var ErrTimeout = errors.New("readiness: timed out")

// Signal is resolved exactly once, either successfully or with an error.
type Signal struct {
	once sync.Once
	done chan struct{}
	err  error
}

func New() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Resolve marks the signal ready (err == nil) or failed. Only the first call
// has any effect; it reports whether this call resolved the signal.
func (s *Signal) Resolve(err error) bool {
	resolved := false
	s.once.Do(func() {
		s.err = err
		close(s.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the signal is resolved.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Ready reports whether the signal resolved successfully, without blocking.
func (s *Signal) Ready() bool {
	select {
	case <-s.done:
		return s.err == nil
	default:
		return false
	}
}

// Wait blocks until the signal resolves, the timeout elapses or ctx ends.
// A non-positive timeout waits only on ctx.
func (s *Signal) Wait(ctx context.Context, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-s.done:
		return s.err
	case <-expired:
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
