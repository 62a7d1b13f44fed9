package reconcile

import (
	"context"
	"errors"
	"testing"

	"rostersync/internal/directory"
	"rostersync/internal/roster"
	"rostersync/internal/services"
)

func newTestApplier(t *testing.T, client *stubClient) *Applier {
	t.Helper()
	return NewApplier(client, testCatalog(t), NewAppliedCache(), nil)
}

func TestApplyRemovalsBeforeAdds(t *testing.T) {
	client := newStubClient(directory.Entity{
		ID:     "u1",
		TagIDs: []string{"role-T1", "role-MID", "role-PLAYER", "role-UNMANAGED"},
	})
	applier := newTestApplier(t, client)
	rec := roster.Record{ID: 1, EntityID: "u1", Tier: "T2", Position: "MID"}

	result, err := applier.Apply(context.Background(), rec)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(result.Removed) != 1 || result.Removed[0] != "role-T1" {
		t.Fatalf("Removed = %v", result.Removed)
	}
	if len(result.Added) != 1 || result.Added[0] != "role-T2" {
		t.Fatalf("Added = %v", result.Added)
	}

	order := client.callOrder()
	if len(order) != 2 || order[0] != "remove" || order[1] != "add" {
		t.Fatalf("call order = %v", order)
	}

	for _, tag := range client.entity.TagIDs {
		if tag == "role-T1" {
			t.Fatal("stale tier tag still present")
		}
	}
	found := false
	for _, tag := range client.entity.TagIDs {
		if tag == "role-UNMANAGED" {
			found = true
		}
	}
	if !found {
		t.Fatal("unmanaged tag was touched")
	}
}

func TestApplySecondRunIsIdempotent(t *testing.T) {
	client := newStubClient(directory.Entity{ID: "u1", TagIDs: nil})
	applier := newTestApplier(t, client)
	rec := roster.Record{ID: 1, EntityID: "u1", Tier: "T2"}

	if _, err := applier.Apply(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := len(client.callOrder())

	result, err := applier.Apply(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Skipped {
		t.Fatal("second identical apply should short-circuit")
	}
	if len(client.callOrder()) != callsAfterFirst {
		t.Fatalf("second apply issued mutations: %v", client.callOrder())
	}
	if client.fetches != 1 {
		t.Fatalf("second apply should not re-fetch, fetches=%d", client.fetches)
	}
}

func TestApplyUnresolvedRecordDoesNothing(t *testing.T) {
	client := newStubClient(directory.Entity{ID: "u1"})
	applier := newTestApplier(t, client)

	result, err := applier.Apply(context.Background(), roster.Record{ID: 9, Tier: "T1"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Skipped {
		t.Fatal("unlinked record should be skipped")
	}
	if client.fetches != 0 || len(client.callOrder()) != 0 {
		t.Fatal("unlinked record caused directory I/O")
	}
}

func TestApplyEntityFetchFailureClearsCache(t *testing.T) {
	client := newStubClient(directory.Entity{ID: "u1"})
	cache := NewAppliedCache()
	applier := NewApplier(client, testCatalog(t), cache, nil)
	rec := roster.Record{ID: 1, EntityID: "u1", Tier: "T1"}

	if _, err := applier.Apply(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Get("u1"); !ok {
		t.Fatal("cache not populated after success")
	}

	client.entityErr = services.Wrap(services.ErrTransient, "directory", "fetch entity", "boom", nil)
	rec.Tier = "T2"
	if _, err := applier.Apply(context.Background(), rec); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if _, ok := cache.Get("u1"); ok {
		t.Fatal("cache entry should be cleared on total failure")
	}
}

func TestApplyPartialSuccessKeepsCache(t *testing.T) {
	client := newStubClient(directory.Entity{ID: "u1", TagIDs: []string{"role-T1"}})
	client.addErr = services.Wrap(services.ErrTransient, "directory", "add tags", "boom", nil)
	cache := NewAppliedCache()
	applier := NewApplier(client, testCatalog(t), cache, nil)
	rec := roster.Record{ID: 1, EntityID: "u1", Tier: "T2"}

	result, err := applier.Apply(context.Background(), rec)
	if err != nil {
		t.Fatalf("partial success should not return an error: %v", err)
	}
	if len(result.Removed) != 1 || len(result.Added) != 0 {
		t.Fatalf("result = %+v", result)
	}
	if _, ok := cache.Get("u1"); !ok {
		t.Fatal("partial success should update cache")
	}
}

func TestApplyBothStepsFailingReturnsError(t *testing.T) {
	client := newStubClient(directory.Entity{ID: "u1", TagIDs: []string{"role-T1"}})
	client.addErr = services.Wrap(services.ErrTransient, "directory", "add tags", "boom", nil)
	client.removeErr = services.Wrap(services.ErrTransient, "directory", "remove tags", "boom", nil)
	cache := NewAppliedCache()
	applier := NewApplier(client, testCatalog(t), cache, nil)
	rec := roster.Record{ID: 1, EntityID: "u1", Tier: "T2"}

	if _, err := applier.Apply(context.Background(), rec); err == nil {
		t.Fatal("total mutation failure should return an error")
	}
	if _, ok := cache.Get("u1"); ok {
		t.Fatal("total failure should clear cache")
	}
}

func TestApplyRankLookupFailureClearsCache(t *testing.T) {
	client := newStubClient(directory.Entity{ID: "u1", TagIDs: nil})
	client.rankErr = services.Wrap(services.ErrTransient, "directory", "actor rank", "boom", nil)
	cache := NewAppliedCache()
	applier := NewApplier(client, testCatalog(t), cache, nil)
	rec := roster.Record{ID: 1, EntityID: "u1", Tier: "T2"}

	if _, err := applier.Apply(context.Background(), rec); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if _, ok := cache.Get("u1"); ok {
		t.Fatal("cache entry should be cleared when no mutation was attempted")
	}
	if len(client.callOrder()) != 0 {
		t.Fatalf("mutations issued without a capability check: %v", client.callOrder())
	}

	client.rankErr = nil
	result, err := applier.Apply(context.Background(), rec)
	if err != nil {
		t.Fatalf("apply after recovery: %v", err)
	}
	if result.Skipped || len(result.Added) == 0 {
		t.Fatalf("entity did not converge after recovery: %+v", result)
	}
}

func TestApplyTagLookupFailureClearsCache(t *testing.T) {
	client := newStubClient(directory.Entity{ID: "u1", TagIDs: nil})
	client.tagErr = services.Wrap(services.ErrTransient, "directory", "fetch tag", "boom", nil)
	cache := NewAppliedCache()
	applier := NewApplier(client, testCatalog(t), cache, nil)
	rec := roster.Record{ID: 1, EntityID: "u1", Tier: "T2"}

	if _, err := applier.Apply(context.Background(), rec); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if _, ok := cache.Get("u1"); ok {
		t.Fatal("cache entry should be cleared when every tag lookup failed")
	}

	client.tagErr = nil
	result, err := applier.Apply(context.Background(), rec)
	if err != nil {
		t.Fatalf("apply after recovery: %v", err)
	}
	if result.Skipped || len(result.Added) == 0 {
		t.Fatalf("entity did not converge after recovery: %+v", result)
	}
}

func TestApplyDropsTagsActorCannotMutate(t *testing.T) {
	client := newStubClient(directory.Entity{ID: "u1", TagIDs: nil})
	client.rank = 5
	client.tags["role-T2"] = directory.Tag{ID: "role-T2", Rank: 8}

	applier := newTestApplier(t, client)
	rec := roster.Record{ID: 1, EntityID: "u1", Tier: "T2", Position: "MID"}

	result, err := applier.Apply(context.Background(), rec)
	if err != nil {
		t.Fatalf("dropped tag must not be fatal: %v", err)
	}
	for _, tag := range result.Added {
		if tag == "role-T2" {
			t.Fatal("forbidden tag was applied")
		}
	}
	if len(result.Dropped) != 1 || result.Dropped[0] != "role-T2" {
		t.Fatalf("Dropped = %v", result.Dropped)
	}
	if len(result.Added) == 0 {
		t.Fatal("permitted tags should still be applied")
	}
}

func TestApplyExternallyManagedTagNeverTouched(t *testing.T) {
	client := newStubClient(directory.Entity{ID: "u1", TagIDs: []string{"role-T1"}})
	client.tags["role-T1"] = directory.Tag{ID: "role-T1", Rank: 0, Managed: true}

	applier := newTestApplier(t, client)
	result, err := applier.Apply(context.Background(), roster.Record{ID: 1, EntityID: "u1", Tier: "T2"})
	if err != nil {
		t.Fatal(err)
	}
	for _, tag := range result.Removed {
		if tag == "role-T1" {
			t.Fatal("externally managed tag was removed")
		}
	}
}
