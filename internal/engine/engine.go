package engine

import (
	"context"
	"log/slog"

	"rostersync/internal/directory"
	"rostersync/internal/feed"
	"rostersync/internal/logging"
	"rostersync/internal/roster"
)

// Schedule is the scheduler surface the engine needs.
type Schedule func(entityKey string, rec roster.Record)

// Link is the linker surface the engine needs.
type Link func(ctx context.Context, ent directory.Entity) (*roster.Record, error)

// Engine connects the change feed and the directory join stream to the
// reconciliation path. One loop dispatches feed events through the relevance
// filter to the scheduler; a second routes joins to the linker.
type Engine struct {
	events   <-chan feed.Event
	joins    <-chan directory.JoinEvent
	schedule Schedule
	link     Link
	logger   *slog.Logger
}

// New builds an Engine.
func New(events <-chan feed.Event, joins <-chan directory.JoinEvent, schedule Schedule, link Link, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		events:   events,
		joins:    joins,
		schedule: schedule,
		link:     link,
		logger:   logger.With(logging.String(logging.FieldComponent, "engine")),
	}
}

// Run consumes feed events until cancellation. A task error never reaches
// this loop; the scheduler confines it to its entity's chain.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-e.events:
			if !ok {
				return nil
			}
			e.dispatch(event)
		}
	}
}

// RunJoins consumes directory join events until cancellation.
func (e *Engine) RunJoins(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-e.joins:
			if !ok {
				return nil
			}
			e.logger.Debug("entity joined",
				logging.String(logging.FieldEntityID, event.Entity.ID),
				logging.String("handle", event.Entity.Handle))
			if _, err := e.link(ctx, event.Entity); err != nil {
				e.logger.Error("link attempt failed",
					logging.String(logging.FieldEntityID, event.Entity.ID),
					logging.Error(err))
			}
		}
	}
}

func (e *Engine) dispatch(event feed.Event) {
	if !relevant(event) {
		return
	}
	rec := *event.After
	e.logger.Debug("relevant change",
		logging.String("kind", string(event.Kind)),
		logging.Int64(logging.FieldRecordID, rec.ID),
		logging.String(logging.FieldEntityID, rec.EntityID))
	e.schedule(rec.EntityID, rec)
}

// relevant applies the dispatch filter: inserts and updates whose after-row
// has a linked entity and whose tracked fields actually moved. Deletes are
// intentionally inert; removing a record never strips its assignments.
func relevant(event feed.Event) bool {
	switch event.Kind {
	case feed.KindInsert:
		return event.After != nil && event.After.Resolved()
	case feed.KindUpdate:
		if event.After == nil || !event.After.Resolved() {
			return false
		}
		if event.Before == nil {
			return true
		}
		return !roster.TrackedFieldsEqual(*event.Before, *event.After)
	default:
		return false
	}
}
