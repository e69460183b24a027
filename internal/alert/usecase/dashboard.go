package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"alertsphere/internal/alert/domain"
	"alertsphere/internal/alert/mirror"
)

// Dashboard mirrors the citizen-facing collections: the cardinality of
// incidents, shelters, safe zones and citizen reports, and the full list of
// broadcasts newest first.
type Dashboard struct {
	subs   *mirror.Subscriptions
	logger *slog.Logger

	emitMu   sync.Mutex
	mu       sync.Mutex
	stats    domain.Stats
	onChange func(domain.Stats)
	started  bool
	wg       sync.WaitGroup
}

func NewDashboard(source mirror.Source, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		subs:   mirror.NewSubscriptions("dashboard", source, logger),
		logger: logger,
	}
}

// OnChange sets the callback invoked with the full view after every snapshot.
// Calls are serialised.
func (d *Dashboard) OnChange(fn func(domain.Stats)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = fn
}

// Stats returns the current view.
func (d *Dashboard) Stats() domain.Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneStats(d.stats)
}

// Start attaches the five listeners. It returns once they are attached;
// snapshots are applied in the background until Close.
func (d *Dashboard) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return nil
	}
	d.started = true
	d.mu.Unlock()

	counts := []struct {
		collection string
		apply      func(*domain.Stats, int)
	}{
		{domain.CollectionIncidents, func(s *domain.Stats, n int) { s.Incidents = n }},
		{domain.CollectionShelters, func(s *domain.Stats, n int) { s.Shelters = n }},
		{domain.CollectionSafeZones, func(s *domain.Stats, n int) { s.SafeZones = n }},
		{domain.CollectionCitizenReports, func(s *domain.Stats, n int) { s.CitizenReports = n }},
	}

	for _, c := range counts {
		ch, _, err := mirror.Subscribe(ctx, d.subs, mirror.Query{Collection: c.collection}, mirror.DocID)
		if err != nil {
			d.subs.Close()
			return fmt.Errorf("subscribe %s: %w", c.collection, err)
		}
		apply := c.apply
		d.consume(func() bool {
			snap, ok := <-ch
			if ok {
				d.update(snap.ReadAt, func(s *domain.Stats) { apply(s, snap.Size) })
			}
			return ok
		})
	}

	q := mirror.Query{Collection: domain.CollectionBroadcasts, OrderBy: domain.BroadcastOrderField, Desc: true}
	ch, _, err := mirror.Subscribe(ctx, d.subs, q, DecodeBroadcast)
	if err != nil {
		d.subs.Close()
		return fmt.Errorf("subscribe %s: %w", domain.CollectionBroadcasts, err)
	}
	d.consume(func() bool {
		snap, ok := <-ch
		if ok {
			d.update(snap.ReadAt, func(s *domain.Stats) { s.Broadcasts = snap.Items })
		}
		return ok
	})

	d.logger.Info("dashboard listening", slog.Int("subscriptions", d.subs.Active()))
	return nil
}

// Close releases every subscription and waits until no callback can run.
func (d *Dashboard) Close() {
	d.subs.Close()
	d.wg.Wait()
}

// Active reports the number of live subscriptions.
func (d *Dashboard) Active() int { return d.subs.Active() }

func (d *Dashboard) consume(next func() bool) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for next() {
		}
	}()
}

func (d *Dashboard) update(readAt time.Time, apply func(*domain.Stats)) {
	d.emitMu.Lock()
	defer d.emitMu.Unlock()

	d.mu.Lock()
	apply(&d.stats)
	d.stats.UpdatedAt = readAt
	view, fn := cloneStats(d.stats), d.onChange
	d.mu.Unlock()

	if fn != nil {
		fn(view)
	}
}

func cloneStats(s domain.Stats) domain.Stats {
	s.Broadcasts = append([]domain.BroadcastRecord(nil), s.Broadcasts...)
	return s
}

// DecodeBroadcast converts a broadcasts document into a record.
func DecodeBroadcast(d mirror.Document) (domain.BroadcastRecord, error) {
	var rec domain.BroadcastRecord
	if err := d.DataTo(&rec); err != nil {
		return rec, err
	}
	rec.ID = d.ID()
	return rec, nil
}
