// Package engine dispatches roster change events and directory joins to the
// reconciliation components.
package engine
