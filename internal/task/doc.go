// Package task manages background job queuing, execution, and lifecycle.
// It runs long-running jobs on a pool of workers so they don't block HTTP
// request handling, lets individual running jobs be cancelled, and keeps a
// registry of the job types the server knows how to run.
package task
