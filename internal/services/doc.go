// Package services holds the error taxonomy and context plumbing shared by
// every component that talks to the roster store or the member directory.
package services
