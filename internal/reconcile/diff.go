package reconcile

import (
	"sort"

	"rostersync/internal/catalog"
)

// Diff computes the corrective change set between desired state and the
// catalog-managed slice of an entity's observed tags. Callers intersect the
// observed set with the catalog before diffing, so unmanaged tags can never
// appear in either output. Outputs are sorted for determinism.
func Diff(desired, observedManaged catalog.TagSet) (toAdd, toRemove []string) {
	for tag := range desired {
		if !observedManaged.Contains(tag) {
			toAdd = append(toAdd, tag)
		}
	}
	for tag := range observedManaged {
		if !desired.Contains(tag) {
			toRemove = append(toRemove, tag)
		}
	}
	sort.Strings(toAdd)
	sort.Strings(toRemove)
	return toAdd, toRemove
}
