// Package events provides types and interfaces for job lifecycle notifications.
//
// Services emit a JobEvent when a job reaches a terminal state without knowing
// which handlers will process it. Handlers (for example the email alert
// handler) register with an emitter and react to the events they care about.
//
// The primary components are:
//   - JobEvent: a job finished, failed or was cancelled
//   - EventHandler: interface for components that can handle events
//   - EventEmitter: interface for components that can emit events
package events
