package linker

import (
	"strings"

	"golang.org/x/text/cases"

	"rostersync/internal/directory"
	"rostersync/internal/roster"
)

var foldCaser = cases.Fold()

// candidates lists an entity's match strings in priority order: raw handle,
// handle plus discriminant, display name. Trimmed, empties dropped,
// duplicates removed, order preserved.
func candidates(ent directory.Entity) []string {
	raw := []string{ent.Handle}
	if strings.TrimSpace(ent.Discriminant) != "" {
		raw = append(raw, ent.Handle+"#"+ent.Discriminant)
	}
	raw = append(raw, ent.DisplayName)

	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, candidate := range raw {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}

// match runs the exact pass over all candidates, then the case-folded pass
// only if the exact pass found nothing. First unambiguous match wins in
// candidate priority order; a candidate matching more than one record is
// skipped. ambiguous reports whether any candidate was skipped that way and
// no link resulted.
func match(cands []string, unresolved []*roster.Record) (rec *roster.Record, ambiguous bool) {
	exact := func(candidate, handle string) bool { return candidate == handle }
	folded := func(candidate, handle string) bool {
		return foldCaser.String(candidate) == foldCaser.String(handle)
	}

	for _, equal := range []func(string, string) bool{exact, folded} {
		for _, candidate := range cands {
			var found *roster.Record
			count := 0
			for _, record := range unresolved {
				if equal(candidate, record.Handle) {
					found = record
					count++
				}
			}
			switch {
			case count == 1:
				return found, false
			case count > 1:
				ambiguous = true
			}
		}
	}
	return nil, ambiguous
}
