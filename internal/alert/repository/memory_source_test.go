package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"

	"alertsphere/internal/alert/domain"
	"alertsphere/internal/alert/mirror"
)

func ids(s *mirror.RawSnapshot) []string {
	out := make([]string, 0, len(s.Docs))
	for _, d := range s.Docs {
		out = append(out, d.ID())
	}
	return out
}

func TestMemorySource_InitialAndPerWriteSnapshots(t *testing.T) {
	src := NewMemorySource()
	src.Set("incidents", "a", map[string]any{"kind": "fire"})

	it := src.Watch(context.Background(), mirror.Query{Collection: "incidents"})
	defer it.Stop()

	first, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(first))

	src.Set("incidents", "b", map[string]any{"kind": "flood"})
	src.Delete("incidents", "a")
	src.Set("shelters", "s1", map[string]any{})

	second, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(second))

	third, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(third))
}

func TestMemorySource_OrderingAndTies(t *testing.T) {
	src := NewMemorySource()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	src.Set("broadcasts", "old", map[string]any{"timestamp": t0})
	src.Set("broadcasts", "tie-1", map[string]any{"timestamp": t0.Add(time.Minute)})
	src.Set("broadcasts", "tie-2", map[string]any{"timestamp": t0.Add(time.Minute)})
	src.Set("broadcasts", "pending", map[string]any{"title": "no timestamp yet"})
	src.Set("broadcasts", "new", map[string]any{"timestamp": t0.Add(time.Hour)})

	it := src.Watch(context.Background(), mirror.Query{Collection: "broadcasts", OrderBy: "timestamp", Desc: true})
	defer it.Stop()

	snap, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "tie-1", "tie-2", "old"}, ids(snap))
}

func TestMemorySource_StopDetaches(t *testing.T) {
	src := NewMemorySource()
	it := src.Watch(context.Background(), mirror.Query{Collection: "incidents"})
	assert.Equal(t, 1, src.Watchers())

	it.Stop()
	src.Set("incidents", "a", map[string]any{})

	assert.Zero(t, src.Watchers())
	_, err := it.Next()
	assert.ErrorIs(t, err, iterator.Done)
}

func TestMemorySource_CancelledNext(t *testing.T) {
	src := NewMemorySource()
	ctx, cancel := context.WithCancel(context.Background())
	it := src.Watch(ctx, mirror.Query{Collection: "incidents"})
	defer it.Stop()

	_, err := it.Next()
	require.NoError(t, err)
	cancel()
	_, err = it.Next()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryBroadcastWriter_DecodesAsRecord(t *testing.T) {
	src := NewMemorySource()
	w := NewMemoryBroadcastWriter(src)
	id, err := w.Create(context.Background(), "Evacuation Order", "Leave Sector 5")
	require.NoError(t, err)

	it := src.Watch(context.Background(), mirror.Query{Collection: domain.CollectionBroadcasts, OrderBy: domain.BroadcastOrderField, Desc: true})
	defer it.Stop()
	snap, err := it.Next()
	require.NoError(t, err)
	require.Len(t, snap.Docs, 1)

	var rec domain.BroadcastRecord
	require.NoError(t, snap.Docs[0].DataTo(&rec))
	assert.Equal(t, id, snap.Docs[0].ID())
	assert.Equal(t, "Evacuation Order", rec.Title)
	assert.Equal(t, "Leave Sector 5", rec.Message)
	require.NotNil(t, rec.Timestamp)
}
