// Package service holds application services that sit between the HTTP API
// and the stores. Job handling lives in internal/progress; this package tree
// currently holds authentication.
package service
