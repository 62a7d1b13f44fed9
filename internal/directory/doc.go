// Package directory defines the engine's view of the external member
// directory: entity and tag types, the per-tag mutation capability rule, and
// the Client interface implemented by httpdir.
package directory
