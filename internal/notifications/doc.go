// Package notifications sends operator-facing push notifications via ntfy.
// With no topic configured every method is a no-op.
package notifications
