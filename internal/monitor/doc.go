// Package monitor watches a long-running server-side job until it reaches a
// terminal state.
//
// A Monitor is started with the opaque handle returned by job submission. It
// polls a StatusService on a fixed interval, accumulates the progress messages
// it sees and reports exactly one terminal outcome (completed, failed or
// cancelled) to its Observer. All monitor state is owned by a single run loop
// goroutine; requests run asynchronously and post their responses back to that
// loop, so at most one request is ever outstanding.
package monitor
