// Package roster holds the authoritative record model and its SQLite store.
// The store is the single source of truth; the directory is only ever a
// projection of it.
package roster
