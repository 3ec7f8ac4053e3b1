// Package memory provides an in-process implementation of store.JobStore.
// It is used when no database is configured and in tests. Data does not
// survive a restart.
package memory
