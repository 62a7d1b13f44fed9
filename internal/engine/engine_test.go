package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"rostersync/internal/directory"
	"rostersync/internal/feed"
	"rostersync/internal/roster"
)

type scheduleRecorder struct {
	mu    sync.Mutex
	calls []roster.Record
}

func (r *scheduleRecorder) schedule(entityKey string, rec roster.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, rec)
}

func (r *scheduleRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func runEngine(t *testing.T, events chan feed.Event, joins chan directory.JoinEvent, sched *scheduleRecorder, link Link) {
	t.Helper()
	if link == nil {
		link = func(ctx context.Context, ent directory.Entity) (*roster.Record, error) { return nil, nil }
	}
	e := New(events, joins, sched.schedule, link, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Run(ctx)
	}()
	joinsDone := make(chan struct{})
	go func() {
		defer close(joinsDone)
		_ = e.RunJoins(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		<-joinsDone
	})
}

func waitForCount(t *testing.T, sched *scheduleRecorder, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sched.count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("schedule count = %d, want %d", sched.count(), want)
}

func TestInsertWithEntityIsDispatched(t *testing.T) {
	events := make(chan feed.Event, 1)
	sched := &scheduleRecorder{}
	runEngine(t, events, nil, sched, nil)

	events <- feed.Event{Kind: feed.KindInsert, After: &roster.Record{ID: 1, EntityID: "ent-1", Tier: "T1"}}
	waitForCount(t, sched, 1)
}

func TestUnlinkedRowsAreIgnored(t *testing.T) {
	events := make(chan feed.Event, 2)
	sched := &scheduleRecorder{}
	runEngine(t, events, nil, sched, nil)

	events <- feed.Event{Kind: feed.KindInsert, After: &roster.Record{ID: 1, Tier: "T1"}}
	events <- feed.Event{Kind: feed.KindUpdate,
		Before: &roster.Record{ID: 1, Tier: "T1"},
		After:  &roster.Record{ID: 1, Tier: "T2"},
	}

	time.Sleep(50 * time.Millisecond)
	if sched.count() != 0 {
		t.Fatalf("unlinked rows dispatched %d times", sched.count())
	}
}

func TestUpdateWithoutTrackedDeltaIsIgnored(t *testing.T) {
	events := make(chan feed.Event, 1)
	sched := &scheduleRecorder{}
	runEngine(t, events, nil, sched, nil)

	same := roster.Record{ID: 1, EntityID: "ent-1", Tier: "T1"}
	before, after := same, same
	events <- feed.Event{Kind: feed.KindUpdate, Before: &before, After: &after}

	time.Sleep(50 * time.Millisecond)
	if sched.count() != 0 {
		t.Fatalf("no-delta update dispatched %d times", sched.count())
	}
}

func TestDeleteIsInert(t *testing.T) {
	events := make(chan feed.Event, 1)
	sched := &scheduleRecorder{}
	runEngine(t, events, nil, sched, nil)

	events <- feed.Event{Kind: feed.KindDelete, Before: &roster.Record{ID: 1, EntityID: "ent-1"}}

	time.Sleep(50 * time.Millisecond)
	if sched.count() != 0 {
		t.Fatalf("delete dispatched %d times", sched.count())
	}
}

func TestJoinEventsRouteToLinker(t *testing.T) {
	joins := make(chan directory.JoinEvent, 1)
	sched := &scheduleRecorder{}
	linked := make(chan string, 1)
	link := func(ctx context.Context, ent directory.Entity) (*roster.Record, error) {
		linked <- ent.ID
		return nil, nil
	}
	runEngine(t, nil, joins, sched, link)

	joins <- directory.JoinEvent{Entity: directory.Entity{ID: "ent-7", Handle: "faker"}}

	select {
	case id := <-linked:
		if id != "ent-7" {
			t.Fatalf("linked entity = %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("join not routed to linker")
	}
}
