// Package daemon wires the reconciliation components together, enforces
// single-instance execution, and exposes the operations the IPC surface
// forwards.
package daemon
