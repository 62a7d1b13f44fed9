// Package linker resolves directory entities to roster records by name:
// exact handle matching first, Unicode case folding second, ambiguity always
// skipped. Links are written under an "identifier currently null" guard.
package linker
