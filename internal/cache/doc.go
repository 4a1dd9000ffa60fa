// Package cache keeps the line items of looked up orders in a SQLite file so
// that running the same export again does not query the Admin API for every
// review.
//
// Only order lookups are cached. Reports are never stored. The database lives
// in the user's XDG cache directory unless another directory is configured,
// and entries older than the configured maximum age are ignored.
package cache
