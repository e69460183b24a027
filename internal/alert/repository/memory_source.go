package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"alertsphere/internal/alert/mirror"
)

// MemorySource is an in-process ordered collection store with the same
// listener semantics as Firestore: every watcher receives the current state
// on attach and then exactly one full snapshot per write. Documents missing
// the ordering field are excluded from ordered queries; ties keep insertion
// order.
type MemorySource struct {
	mu          sync.Mutex
	seq         int64
	collections map[string]map[string]*memDoc
	watchers    map[*memIterator]struct{}
	now         func() time.Time
}

type memDoc struct {
	id   string
	seq  int64
	data map[string]any
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		collections: make(map[string]map[string]*memDoc),
		watchers:    make(map[*memIterator]struct{}),
		now:         time.Now,
	}
}

// Add inserts a document with a generated id and returns the id.
func (m *MemorySource) Add(collection string, data map[string]any) string {
	id := uuid.New().String()
	m.Set(collection, id, data)
	return id
}

// Set creates or replaces a document. A replaced document keeps its position
// among ties.
func (m *MemorySource) Set(collection, id string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string]*memDoc)
		m.collections[collection] = docs
	}
	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}
	if existing, ok := docs[id]; ok {
		existing.data = copied
	} else {
		m.seq++
		docs[id] = &memDoc{id: id, seq: m.seq, data: copied}
	}
	m.notifyLocked(collection)
}

// Delete removes a document; deleting a missing document still counts as a
// write.
func (m *MemorySource) Delete(collection, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], id)
	m.notifyLocked(collection)
}

// Watchers reports how many listeners are attached.
func (m *MemorySource) Watchers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers)
}

func (m *MemorySource) Watch(ctx context.Context, q mirror.Query) mirror.SnapshotIterator {
	m.mu.Lock()
	defer m.mu.Unlock()

	it := &memIterator{ctx: ctx, source: m, query: q, signal: make(chan struct{}, 1)}
	m.watchers[it] = struct{}{}
	it.push(m.snapshotLocked(q))
	return it
}

func (m *MemorySource) notifyLocked(collection string) {
	for it := range m.watchers {
		if it.query.Collection == collection {
			it.push(m.snapshotLocked(it.query))
		}
	}
}

func (m *MemorySource) snapshotLocked(q mirror.Query) *mirror.RawSnapshot {
	var docs []*memDoc
	for _, d := range m.collections[q.Collection] {
		if q.OrderBy != "" {
			if _, ok := d.data[q.OrderBy]; !ok {
				continue
			}
		}
		docs = append(docs, d)
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].seq < docs[j].seq })
	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			c := compareValues(docs[i].data[q.OrderBy], docs[j].data[q.OrderBy])
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}

	out := &mirror.RawSnapshot{Docs: make([]mirror.Document, 0, len(docs)), ReadAt: m.now().UTC()}
	for _, d := range docs {
		out.Docs = append(out.Docs, memDocument{id: d.id, data: d.data})
	}
	return out
}

// compareValues orders values of the same kind; nil sorts first.
func compareValues(a, b any) int {
	switch av := a.(type) {
	case nil:
		if b == nil {
			return 0
		}
		return -1
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case *time.Time:
		if bv, ok := b.(*time.Time); ok && av != nil && bv != nil {
			return av.Compare(*bv)
		}
	case int:
		if bv, ok := b.(int); ok {
			return av - bv
		}
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	}
	if b == nil {
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

type memDocument struct {
	id   string
	data map[string]any
}

func (d memDocument) ID() string { return d.id }

func (d memDocument) DataTo(v any) error {
	raw, err := json.Marshal(d.data)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", d.id, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.id, err)
	}
	return nil
}

type memIterator struct {
	ctx    context.Context
	source *MemorySource
	query  mirror.Query
	signal chan struct{}

	mu      sync.Mutex
	queue   []*mirror.RawSnapshot
	stopped bool
}

func (it *memIterator) push(s *mirror.RawSnapshot) {
	it.mu.Lock()
	it.queue = append(it.queue, s)
	it.mu.Unlock()
	select {
	case it.signal <- struct{}{}:
	default:
	}
}

func (it *memIterator) Next() (*mirror.RawSnapshot, error) {
	for {
		it.mu.Lock()
		if it.stopped {
			it.mu.Unlock()
			return nil, iterator.Done
		}
		if len(it.queue) > 0 {
			s := it.queue[0]
			it.queue = it.queue[1:]
			it.mu.Unlock()
			return s, nil
		}
		it.mu.Unlock()

		select {
		case <-it.signal:
		case <-it.ctx.Done():
			return nil, it.ctx.Err()
		}
	}
}

func (it *memIterator) Stop() {
	it.mu.Lock()
	it.stopped = true
	it.queue = nil
	it.mu.Unlock()

	it.source.mu.Lock()
	delete(it.source.watchers, it)
	it.source.mu.Unlock()
}
