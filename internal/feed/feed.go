package feed

import "rostersync/internal/roster"

// Kind discriminates feed events.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Event is one observed change in the roster store. Before is nil for
// inserts, After is nil for deletes.
type Event struct {
	Kind   Kind
	Before *roster.Record
	After  *roster.Record
}
