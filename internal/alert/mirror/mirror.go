// Package mirror keeps in-memory, always-current snapshots of server-side
// ordered collections.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"alertsphere/pkg/metrics"
)

// ErrAlreadySubscribed is returned when an owner subscribes to a query it is
// already watching.
var ErrAlreadySubscribed = errors.New("already subscribed to this query")

// Query identifies a watched collection and its optional ordering.
type Query struct {
	Collection string
	OrderBy    string
	Desc       bool
}

func (q Query) String() string {
	if q.OrderBy == "" {
		return q.Collection
	}
	dir := "asc"
	if q.Desc {
		dir = "desc"
	}
	return fmt.Sprintf("%s order by %s %s", q.Collection, q.OrderBy, dir)
}

// Document is one record of a raw snapshot.
type Document interface {
	ID() string
	DataTo(v any) error
}

// RawSnapshot is the full collection state after one server change, in query
// order.
type RawSnapshot struct {
	Docs   []Document
	ReadAt time.Time
}

// SnapshotIterator yields raw snapshots in server commit order. Next blocks
// until the next change; Stop releases the underlying listener.
type SnapshotIterator interface {
	Next() (*RawSnapshot, error)
	Stop()
}

// Source opens listeners on an ordered collection store.
type Source interface {
	Watch(ctx context.Context, q Query) SnapshotIterator
}

// Snapshot is a decoded full-collection snapshot. Each one replaces the
// previous state entirely.
type Snapshot[T any] struct {
	Items  []T
	Size   int
	ReadAt time.Time
}

// Decoder converts a document into an item.
type Decoder[T any] func(Document) (T, error)

// DocID decodes a document to its id, for collections where only
// cardinality matters.
func DocID(d Document) (string, error) { return d.ID(), nil }

// Subscriptions tracks the live listeners of one owner and enforces at most
// one active listener per query.
type Subscriptions struct {
	owner  string
	source Source
	logger *slog.Logger

	mu     sync.Mutex
	active map[Query]context.CancelFunc
	wg     sync.WaitGroup
}

func NewSubscriptions(owner string, source Source, logger *slog.Logger) *Subscriptions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriptions{
		owner:  owner,
		source: source,
		logger: logger.With(slog.String("owner", owner)),
		active: make(map[Query]context.CancelFunc),
	}
}

// Active reports how many listeners are still running.
func (s *Subscriptions) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Close releases every listener and waits for them to stop.
func (s *Subscriptions) Close() {
	s.mu.Lock()
	for _, cancel := range s.active {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Subscriptions) acquire(q Query, cancel context.CancelFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[q]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, q)
	}
	s.active[q] = cancel
	s.wg.Add(1)
	return nil
}

func (s *Subscriptions) release(q Query) {
	s.mu.Lock()
	delete(s.active, q)
	s.mu.Unlock()
	s.wg.Done()
}

// Subscribe watches q and returns a channel of decoded snapshots plus the
// release function. One snapshot is delivered per server change, in commit
// order. The channel is closed after release or when the listener fails.
// Release is idempotent and returns once no further snapshot can be sent.
func Subscribe[T any](ctx context.Context, subs *Subscriptions, q Query, decode Decoder[T]) (<-chan Snapshot[T], func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	if err := subs.acquire(q, cancel); err != nil {
		cancel()
		return nil, nil, err
	}

	it := subs.source.Watch(ctx, q)
	out := make(chan Snapshot[T])
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer subs.release(q)
		defer close(out)
		defer it.Stop()

		for {
			raw, err := it.Next()
			if err != nil {
				if ctx.Err() == nil {
					subs.logger.Error("collection listener stopped",
						slog.String("query", q.String()),
						slog.Any("error", err),
					)
				}
				return
			}

			snap := Snapshot[T]{Items: make([]T, 0, len(raw.Docs)), ReadAt: raw.ReadAt}
			for _, doc := range raw.Docs {
				item, err := decode(doc)
				if err != nil {
					subs.logger.Warn("skipping undecodable document",
						slog.String("collection", q.Collection),
						slog.String("id", doc.ID()),
						slog.Any("error", err),
					)
					continue
				}
				snap.Items = append(snap.Items, item)
			}
			snap.Size = len(snap.Items)

			select {
			case out <- snap:
				metrics.SnapshotsDeliveredTotal.WithLabelValues(q.Collection).Inc()
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	return out, unsubscribe, nil
}
