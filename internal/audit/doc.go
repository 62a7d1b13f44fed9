// Package audit reports roster records that still lack a directory identity,
// suppressing repeats while the unresolved set is unchanged.
package audit
