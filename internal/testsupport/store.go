package testsupport

import (
	"context"
	"testing"

	"rostersync/internal/config"
	"rostersync/internal/roster"
)

// MustOpenStore opens a roster.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *roster.Store {
	t.Helper()

	store, err := roster.Open(cfg)
	if err != nil {
		t.Fatalf("roster.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// PutRecord upserts a roster record for tests using the provided store.
func PutRecord(t testing.TB, store *roster.Store, rec *roster.Record) *roster.Record {
	t.Helper()

	stored, err := store.Put(context.Background(), rec)
	if err != nil {
		t.Fatalf("store.Put: %v", err)
	}
	return stored
}
