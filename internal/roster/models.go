package roster

import (
	"strings"
	"time"
)

// Record is one authoritative roster row. Category fields hold the raw source
// strings; resolution against the managed-attribute catalog happens at
// desired-state computation, where unknown values surface as anomalies rather
// than parse failures.
type Record struct {
	ID               int64
	EntityID         string // directory entity id; empty until linked
	Handle           string
	DisplayName      string
	Tier             string
	Position         string
	PositionOverride string
	Squad            string
	Captain          bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Resolved reports whether the record is linked to a directory entity.
func (r Record) Resolved() bool {
	return r.EntityID != ""
}

// EffectivePosition returns the override when set, the base position
// otherwise.
func (r Record) EffectivePosition() string {
	if strings.TrimSpace(r.PositionOverride) != "" {
		return r.PositionOverride
	}
	return r.Position
}

// TrackedFieldsEqual reports whether the fields that influence desired state
// are identical between two records. The change feed uses this to suppress
// events for edits the engine does not care about.
func TrackedFieldsEqual(a, b Record) bool {
	return a.EntityID == b.EntityID &&
		a.Tier == b.Tier &&
		a.Position == b.Position &&
		a.PositionOverride == b.PositionOverride &&
		a.Squad == b.Squad &&
		a.Captain == b.Captain
}

// HealthSummary aggregates record counts for status output.
type HealthSummary struct {
	Total      int
	Resolved   int
	Unresolved int
}
