// Package store defines interfaces for job persistence.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, so the job service works the same against
// PostgreSQL or the in-memory store.
package store
