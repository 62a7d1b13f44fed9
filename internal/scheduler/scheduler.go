package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"rostersync/internal/logging"
	"rostersync/internal/roster"
	"rostersync/internal/services"
)

// ApplyFunc reconciles one record. The scheduler catches and logs its errors;
// a failed task never blocks the next one for the same key.
type ApplyFunc func(ctx context.Context, rec roster.Record) error

// Stats reports per-state task counts for the status surface.
type Stats struct {
	PendingDebounce int `json:"pending_debounce"`
	Queued          int `json:"queued"`
	Applying        int `json:"applying"`
}

// Scheduler debounces and serializes reconciliation per entity key. A new
// event within the debounce window replaces the pending snapshot and restarts
// the timer (latest-wins); once the window settles the snapshot joins a
// strict per-key FIFO. Distinct keys run concurrently.
type Scheduler struct {
	debounce time.Duration
	apply    ApplyFunc
	logger   *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	stopped bool
	wg      sync.WaitGroup
}

type entry struct {
	timer    *time.Timer
	timerGen uint64
	pending  *roster.Record
	queue    []roster.Record
	applying bool
}

// New builds a Scheduler.
func New(debounce time.Duration, apply ApplyFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		debounce: debounce,
		apply:    apply,
		logger:   logger.With(logging.String(logging.FieldComponent, "scheduler")),
		entries:  make(map[string]*entry),
	}
}

// Schedule records a changed snapshot for an entity key. Calls after Stop are
// dropped.
func (s *Scheduler) Schedule(entityKey string, rec roster.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	e, ok := s.entries[entityKey]
	if !ok {
		e = &entry{}
		s.entries[entityKey] = e
	}

	// Always arm a fresh timer instead of resetting: a timer whose callback
	// already fired but has not taken the lock yet cannot be re-armed, so the
	// superseded callback is invalidated by generation instead.
	snapshot := rec
	e.pending = &snapshot
	e.timerGen++
	gen := e.timerGen
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(s.debounce, func() { s.fire(entityKey, gen) })
}

// fire moves the settled pending snapshot onto the key's FIFO and starts the
// chain drainer when idle. A stale generation means the window was superseded
// after this callback was scheduled; the live timer owns the snapshot.
func (s *Scheduler) fire(entityKey string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entityKey]
	if !ok || gen != e.timerGen {
		return
	}
	e.timer = nil
	if e.pending == nil || s.stopped {
		return
	}
	e.queue = append(e.queue, *e.pending)
	e.pending = nil

	if !e.applying {
		e.applying = true
		s.wg.Add(1)
		go s.runChain(entityKey)
	}
}

// runChain drains one key's FIFO, one task at a time.
func (s *Scheduler) runChain(entityKey string) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		e := s.entries[entityKey]
		if e == nil || len(e.queue) == 0 {
			if e != nil {
				e.applying = false
			}
			s.mu.Unlock()
			return
		}
		rec := e.queue[0]
		e.queue = e.queue[1:]
		s.mu.Unlock()

		taskID := uuid.NewString()
		ctx := services.WithTaskID(context.Background(), taskID)
		ctx = services.WithEntityID(ctx, entityKey)
		ctx = services.WithRecordID(ctx, rec.ID)
		log := logging.WithContext(ctx, s.logger)

		log.Debug("task started")
		if err := s.apply(ctx, rec); err != nil {
			log.Error("task failed", logging.Error(err))
			continue
		}
		log.Debug("task settled")
	}
}

// Stop cancels pending debounce timers and waits for in-flight tasks.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for _, e := range s.entries {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		e.pending = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Stats returns current per-state counts.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats Stats
	for _, e := range s.entries {
		if e.pending != nil {
			stats.PendingDebounce++
		}
		stats.Queued += len(e.queue)
		if e.applying {
			stats.Applying++
		}
	}
	return stats
}
