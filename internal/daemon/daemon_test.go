package daemon

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"rostersync/internal/config"
	"rostersync/internal/directory"
	"rostersync/internal/roster"
)

type stubClient struct {
	members []directory.Entity
	joins   chan directory.JoinEvent
}

func newStubClient(members ...directory.Entity) *stubClient {
	return &stubClient{members: members, joins: make(chan directory.JoinEvent)}
}

func (s *stubClient) Entity(ctx context.Context, id string) (directory.Entity, error) {
	for _, member := range s.members {
		if member.ID == id {
			return member, nil
		}
	}
	return directory.Entity{}, nil
}

func (s *stubClient) Members(ctx context.Context) ([]directory.Entity, error) {
	return s.members, nil
}

func (s *stubClient) AddTags(ctx context.Context, id string, tagIDs []string) error    { return nil }
func (s *stubClient) RemoveTags(ctx context.Context, id string, tagIDs []string) error { return nil }

func (s *stubClient) Tag(ctx context.Context, tagID string) (directory.Tag, error) {
	return directory.Tag{ID: tagID, Rank: 1}, nil
}

func (s *stubClient) ActorRank(ctx context.Context) (int, error) { return 10, nil }

func (s *stubClient) Joins() <-chan directory.JoinEvent { return s.joins }

func (s *stubClient) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func testDaemon(t *testing.T, client directory.Client) (*Daemon, *roster.Store) {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Directory.BaseURL = "https://directory.test"
	cfg.Directory.Token = "tok"
	cfg.Directory.ActorID = "bot"

	store, err := roster.Open(&cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	d, err := New(&cfg, store, client, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, store
}

func TestStartRejectsSecondInstance(t *testing.T) {
	d, _ := testDaemon(t, newStubClient())

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail")
	}
}

func TestStartupSweepLinksRecords(t *testing.T) {
	client := newStubClient(directory.Entity{ID: "ent-1", Handle: "faker"})
	d, store := testDaemon(t, client)
	ctx := context.Background()

	if _, err := store.Put(ctx, &roster.Record{Handle: "faker", Tier: "T1"}); err != nil {
		t.Fatal(err)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer d.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := store.FindByHandle(ctx, "faker")
		if err != nil {
			t.Fatal(err)
		}
		if rec.EntityID == "ent-1" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("startup sweep did not link the record")
}

func TestStatusReflectsStoreHealth(t *testing.T) {
	d, store := testDaemon(t, newStubClient())
	ctx := context.Background()

	if _, err := store.Put(ctx, &roster.Record{Handle: "chovy"}); err != nil {
		t.Fatal(err)
	}

	status := d.Status(ctx)
	if status.Running {
		t.Fatal("daemon not started yet")
	}
	if status.Roster.Total != 1 || status.Roster.Unresolved != 1 {
		t.Fatalf("roster health = %+v", status.Roster)
	}
	if status.LockPath == "" || status.StorePath == "" {
		t.Fatalf("paths missing: %+v", status)
	}
}

func TestStopReleasesLock(t *testing.T) {
	d, _ := testDaemon(t, newStubClient())
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatal(err)
	}
	d.Stop()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart after stop should succeed: %v", err)
	}
	d.Stop()
}
