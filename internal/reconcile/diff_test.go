package reconcile

import (
	"sort"
	"testing"

	"rostersync/internal/catalog"
)

func TestDiffCorrectiveChangeSet(t *testing.T) {
	cat := testCatalog(t)
	observedFull := []string{"role-T1", "role-MID", "role-PLAYER", "role-UNMANAGED"}
	observedManaged := catalog.NewTagSet(cat.Intersect(observedFull)...)
	desired := catalog.NewTagSet("role-T2", "role-MID", "role-PLAYER")

	toAdd, toRemove := Diff(desired, observedManaged)
	if len(toAdd) != 1 || toAdd[0] != "role-T2" {
		t.Fatalf("toAdd = %v", toAdd)
	}
	if len(toRemove) != 1 || toRemove[0] != "role-T1" {
		t.Fatalf("toRemove = %v", toRemove)
	}
}

func TestDiffLaws(t *testing.T) {
	desired := catalog.NewTagSet("a", "b", "c")
	observed := catalog.NewTagSet("b", "c", "d", "e")

	toAdd, toRemove := Diff(desired, observed)
	for _, tag := range toAdd {
		if observed.Contains(tag) {
			t.Fatalf("toAdd intersects observed: %v", toAdd)
		}
	}
	for _, tag := range toRemove {
		if !observed.Contains(tag) {
			t.Fatalf("toRemove outside observed: %v", toRemove)
		}
		if desired.Contains(tag) {
			t.Fatalf("toRemove intersects desired: %v", toRemove)
		}
	}
	if !sort.StringsAreSorted(toAdd) || !sort.StringsAreSorted(toRemove) {
		t.Fatalf("outputs not sorted: %v %v", toAdd, toRemove)
	}
}

func TestDiffEmptyWhenConverged(t *testing.T) {
	set := catalog.NewTagSet("a", "b")
	toAdd, toRemove := Diff(set, set.Clone())
	if len(toAdd) != 0 || len(toRemove) != 0 {
		t.Fatalf("converged state should diff empty: %v %v", toAdd, toRemove)
	}
}
