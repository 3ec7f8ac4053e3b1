// Package client is the HTTP implementation of monitor.StatusService. It
// talks to the taskwatch server API and also submits new jobs.
package client
