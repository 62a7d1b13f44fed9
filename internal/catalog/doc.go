// Package catalog defines the managed-attribute catalog: the closed set of
// directory tags rostersync may add or remove, and the lookups that translate
// roster record values into tags.
package catalog
