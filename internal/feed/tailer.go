package feed

import (
	"context"
	"log/slog"
	"time"

	"rostersync/internal/logging"
	"rostersync/internal/roster"
)

// Lister is the slice of the roster store the tailer needs.
type Lister interface {
	List(ctx context.Context) ([]*roster.Record, error)
}

// Tailer turns store polling into a typed change feed. It holds the previous
// snapshot keyed by record id and emits insert/update/delete events; the
// first poll seeds the snapshot without emitting, so a daemon restart does
// not replay the whole table (the startup sweep is the convergence path).
type Tailer struct {
	store    Lister
	interval time.Duration
	logger   *slog.Logger
	events   chan Event

	prev   map[int64]roster.Record
	seeded bool
}

// NewTailer builds a Tailer polling at the given interval.
func NewTailer(store Lister, interval time.Duration, logger *slog.Logger) *Tailer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tailer{
		store:    store,
		interval: interval,
		logger:   logger.With(logging.String(logging.FieldComponent, "feed")),
		events:   make(chan Event, 64),
	}
}

// Events exposes the change feed.
func (t *Tailer) Events() <-chan Event {
	return t.events
}

// Run drives the poll loop until cancellation.
func (t *Tailer) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if err := t.poll(ctx); err != nil {
			t.logger.Warn("poll failed", logging.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Tailer) poll(ctx context.Context) error {
	records, err := t.store.List(ctx)
	if err != nil {
		return err
	}

	next := make(map[int64]roster.Record, len(records))
	for _, rec := range records {
		next[rec.ID] = *rec
	}

	if !t.seeded {
		t.prev = next
		t.seeded = true
		return nil
	}

	for id, current := range next {
		before, existed := t.prev[id]
		if !existed {
			snapshot := current
			if err := t.emit(ctx, Event{Kind: KindInsert, After: &snapshot}); err != nil {
				return err
			}
			continue
		}
		if !roster.TrackedFieldsEqual(before, current) {
			beforeCopy, afterCopy := before, current
			if err := t.emit(ctx, Event{Kind: KindUpdate, Before: &beforeCopy, After: &afterCopy}); err != nil {
				return err
			}
		}
	}
	for id, before := range t.prev {
		if _, still := next[id]; !still {
			snapshot := before
			if err := t.emit(ctx, Event{Kind: KindDelete, Before: &snapshot}); err != nil {
				return err
			}
		}
	}

	t.prev = next
	return nil
}

func (t *Tailer) emit(ctx context.Context, event Event) error {
	select {
	case t.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
