// Package httpdir is the HTTP implementation of directory.Client: bearer
// token auth, JSON bodies, typed error mapping, TTL-cached tag metadata, and
// join detection via membership polling.
package httpdir
