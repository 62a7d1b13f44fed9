package linker

import (
	"context"
	"log/slog"

	"rostersync/internal/config"
	"rostersync/internal/directory"
	"rostersync/internal/logging"
	"rostersync/internal/notifications"
	"rostersync/internal/roster"
)

// Store is the slice of the roster store the linker needs.
type Store interface {
	ListUnresolved(ctx context.Context) ([]*roster.Record, error)
	LinkEntity(ctx context.Context, id int64, entityID string) (bool, error)
}

// ScheduleFunc hands a newly linked record to the reconciliation path.
type ScheduleFunc func(entityKey string, rec roster.Record)

// SweepResult summarizes one full linking sweep.
type SweepResult struct {
	Linked    int `json:"linked"`
	Ambiguous int `json:"ambiguous"`
	Unmatched int `json:"unmatched"`
}

// Linker resolves directory entities to roster records by name. Matching is
// conservative: an ambiguous candidate is skipped, never guessed.
type Linker struct {
	store    Store
	client   directory.Client
	schedule ScheduleFunc
	notifier notifications.Service
	logger   *slog.Logger
}

// New builds a Linker.
func New(store Store, client directory.Client, schedule ScheduleFunc, notifier notifications.Service, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(config.Notifications{})
	}
	return &Linker{
		store:    store,
		client:   client,
		schedule: schedule,
		notifier: notifier,
		logger:   logger.With(logging.String(logging.FieldComponent, "linker")),
	}
}

// TryLink attempts to resolve one entity against the unresolved records. A
// match writes the entity id under the "identifier currently null" guard and
// hands the linked record to the scheduler. No match is not an error.
func (l *Linker) TryLink(ctx context.Context, ent directory.Entity) (*roster.Record, error) {
	unresolved, err := l.store.ListUnresolved(ctx)
	if err != nil {
		return nil, err
	}

	rec, ambiguous := match(candidates(ent), unresolved)
	if rec == nil {
		if ambiguous {
			l.logger.Warn("ambiguous name match; skipping",
				logging.String(logging.FieldEntityID, ent.ID),
				logging.String("handle", ent.Handle))
		}
		return nil, nil
	}

	linked, err := l.store.LinkEntity(ctx, rec.ID, ent.ID)
	if err != nil {
		return nil, err
	}
	if !linked {
		// Lost the race with another writer; the guard held.
		l.logger.Info("record already linked; no-op",
			logging.Int64(logging.FieldRecordID, rec.ID),
			logging.String(logging.FieldEntityID, ent.ID))
		return nil, nil
	}

	rec.EntityID = ent.ID
	l.logger.Info("record linked",
		logging.Int64(logging.FieldRecordID, rec.ID),
		logging.String(logging.FieldEntityID, ent.ID),
		logging.String("handle", rec.Handle))

	if l.schedule != nil {
		l.schedule(ent.ID, *rec)
	}
	if err := l.notifier.NotifyRecordLinked(ctx, rec.Handle, ent.ID); err != nil {
		l.logger.Warn("link notification failed", logging.Error(err))
	}
	return rec, nil
}

// Sweep runs the matcher over every unresolved record against the full
// membership snapshot, linking every unambiguous match.
func (l *Linker) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	members, err := l.client.Members(ctx)
	if err != nil {
		return result, err
	}
	unresolved, err := l.store.ListUnresolved(ctx)
	if err != nil {
		return result, err
	}

	for _, ent := range members {
		if len(unresolved) == 0 {
			break
		}
		rec, ambiguous := match(candidates(ent), unresolved)
		if rec == nil {
			if ambiguous {
				result.Ambiguous++
				l.logger.Warn("ambiguous name match during sweep; skipping",
					logging.String(logging.FieldEntityID, ent.ID),
					logging.String("handle", ent.Handle))
			}
			continue
		}

		linked, err := l.store.LinkEntity(ctx, rec.ID, ent.ID)
		if err != nil {
			return result, err
		}
		if !linked {
			continue
		}
		result.Linked++
		rec.EntityID = ent.ID
		l.logger.Info("record linked",
			logging.Int64(logging.FieldRecordID, rec.ID),
			logging.String(logging.FieldEntityID, ent.ID),
			logging.String("handle", rec.Handle))
		if l.schedule != nil {
			l.schedule(ent.ID, *rec)
		}

		remaining := unresolved[:0]
		for _, candidate := range unresolved {
			if candidate.ID != rec.ID {
				remaining = append(remaining, candidate)
			}
		}
		unresolved = remaining
	}

	result.Unmatched = len(unresolved)

	if err := l.notifier.NotifySweepCompleted(ctx, result.Linked, result.Ambiguous, result.Unmatched); err != nil {
		l.logger.Warn("sweep notification failed", logging.Error(err))
	}
	return result, nil
}
