package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry errors
var (
	ErrUnknownJobType   = errors.New("unknown job type")
	ErrInvalidParams    = errors.New("invalid job parameters")
	ErrDuplicateJobType = errors.New("job type already registered")
)

// Reporter receives progress descriptions from a running job.
type Reporter interface {
	Report(ctx context.Context, description string) error
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(ctx context.Context, description string) error

// Report implements Reporter.
func (f ReporterFunc) Report(ctx context.Context, description string) error {
	return f(ctx, description)
}

// JobFunc runs a job of a registered type. The returned payload is stored as
// the job's result. Implementations must return promptly once ctx is done.
type JobFunc func(ctx context.Context, params json.RawMessage, report Reporter) (json.RawMessage, error)

// Definition describes a runnable job type.
type Definition struct {
	Run JobFunc

	// ValidateParams checks the parameters before the job is accepted.
	// Optional.
	ValidateParams func(params json.RawMessage) error
}

// Registry maps job type names to their definitions. It is safe for
// concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a job type.
func (r *Registry) Register(jobType string, def Definition) error {
	if jobType == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownJobType)
	}
	if def.Run == nil {
		return fmt.Errorf("job type %q has no run function", jobType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.defs[jobType]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJobType, jobType)
	}
	r.defs[jobType] = def
	return nil
}

// Lookup returns the definition of a job type.
func (r *Registry) Lookup(jobType string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[jobType]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownJobType, jobType)
	}
	return def, nil
}

// Validate checks that jobType is known and params are acceptable for it.
func (r *Registry) Validate(jobType string, params json.RawMessage) error {
	def, err := r.Lookup(jobType)
	if err != nil {
		return err
	}
	if def.ValidateParams == nil {
		return nil
	}
	if err := def.ValidateParams(params); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}

// Types returns the registered job type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.defs))
	for t := range r.defs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
