// Package reconcile contains the core of the engine: desired-state
// computation, diffing against observed managed tags, the last-applied cache,
// and the applier that pushes corrective change sets to the directory.
package reconcile
