// Package scheduler debounces record change events and serializes
// reconciliation per entity key: latest-wins within the debounce window,
// strict FIFO once settled, full concurrency across distinct keys.
package scheduler
