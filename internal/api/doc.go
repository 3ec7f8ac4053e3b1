// Package api provides the HTTP handlers for job submission and monitoring.
// Handlers translate between JSON requests and the progress service, and map
// service errors to status codes without leaking internal details.
package api
