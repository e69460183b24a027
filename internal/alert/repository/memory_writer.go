package repository

import (
	"context"
	"time"

	"alertsphere/internal/alert/domain"
)

// MemoryBroadcastWriter writes broadcasts into a MemorySource, stamping them
// with the current time as the server would.
type MemoryBroadcastWriter struct {
	source *MemorySource
	now    func() time.Time
}

func NewMemoryBroadcastWriter(source *MemorySource) *MemoryBroadcastWriter {
	return &MemoryBroadcastWriter{source: source, now: time.Now}
}

func (w *MemoryBroadcastWriter) Create(ctx context.Context, title, message string) (string, error) {
	return w.source.Add(domain.CollectionBroadcasts, map[string]any{
		"title":                    title,
		"message":                  message,
		domain.BroadcastOrderField: w.now().UTC(),
	}), nil
}
