package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"alertsphere/internal/alert/domain"
	"alertsphere/internal/alert/mirror"
)

// FirestoreSource watches Firestore collections with realtime listeners.
type FirestoreSource struct {
	client *firestore.Client
}

func NewFirestoreSource(client *firestore.Client) *FirestoreSource {
	return &FirestoreSource{client: client}
}

func (s *FirestoreSource) Watch(ctx context.Context, q mirror.Query) mirror.SnapshotIterator {
	query := s.client.Collection(q.Collection).Query
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	return &firestoreIterator{it: query.Snapshots(ctx)}
}

type firestoreIterator struct {
	it *firestore.QuerySnapshotIterator
}

func (f *firestoreIterator) Next() (*mirror.RawSnapshot, error) {
	snap, err := f.it.Next()
	if err != nil {
		return nil, err
	}
	docs, err := snap.Documents.GetAll()
	if err != nil {
		return nil, fmt.Errorf("read snapshot documents: %w", err)
	}

	out := &mirror.RawSnapshot{Docs: make([]mirror.Document, 0, len(docs)), ReadAt: snap.ReadTime}
	for _, d := range docs {
		out.Docs = append(out.Docs, firestoreDocument{doc: d})
	}
	return out, nil
}

func (f *firestoreIterator) Stop() { f.it.Stop() }

type firestoreDocument struct {
	doc *firestore.DocumentSnapshot
}

func (d firestoreDocument) ID() string { return d.doc.Ref.ID }

func (d firestoreDocument) DataTo(v any) error { return d.doc.DataTo(v) }

// FirestoreBroadcastWriter creates broadcast records stamped by the server.
type FirestoreBroadcastWriter struct {
	client *firestore.Client
}

func NewFirestoreBroadcastWriter(client *firestore.Client) *FirestoreBroadcastWriter {
	return &FirestoreBroadcastWriter{client: client}
}

func (w *FirestoreBroadcastWriter) Create(ctx context.Context, title, message string) (string, error) {
	ref, _, err := w.client.Collection(domain.CollectionBroadcasts).Add(ctx, map[string]any{
		"title":                    title,
		"message":                  message,
		domain.BroadcastOrderField: firestore.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("create broadcast: %w", err)
	}
	return ref.ID, nil
}
