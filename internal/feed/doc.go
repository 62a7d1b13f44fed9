// Package feed derives a typed change feed from the roster store by polling:
// insert, update (with before/after snapshots), and delete events on a
// channel consumed by the engine dispatch loop.
package feed
