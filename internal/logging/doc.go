// Package logging builds the slog handlers, attribute helpers, and context
// plumbing used across rostersync. The console handler renders compact
// single-line output with the component attribute promoted into the prefix;
// the JSON handler is intended for log shipping.
package logging
