// Package progress implements the server side of job monitoring. It accepts
// job submissions, runs them on the task runner, and answers the progress,
// result, cancel and email-alert requests made by monitoring clients.
//
// Progress messages are delivered at most once: each call to Progress drains
// the messages recorded since the previous call. Every operation is scoped to
// the job's owner, and a job owned by someone else is reported as not found.
package progress
