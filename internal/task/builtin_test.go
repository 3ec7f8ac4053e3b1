package task

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReporter collects reported descriptions
type recordingReporter struct {
	mu           sync.Mutex
	descriptions []string
	err          error
}

func (r *recordingReporter) Report(ctx context.Context, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.descriptions = append(r.descriptions, description)
	return nil
}

func (r *recordingReporter) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.descriptions...)
}

func runBuiltin(t *testing.T, jobType, params string, report Reporter) (json.RawMessage, error) {
	t.Helper()
	def, err := NewDefaultRegistry().Lookup(jobType)
	require.NoError(t, err)
	return def.Run(context.Background(), json.RawMessage(params), report)
}

func TestCountdown(t *testing.T) {
	rep := &recordingReporter{}
	result, err := runBuiltin(t, TypeCountdown, `{"steps":3,"delay_ms":0}`, rep)

	require.NoError(t, err)
	assert.JSONEq(t, `{"steps":3}`, string(result))
	assert.Equal(t, []string{"step 1 of 3", "step 2 of 3", "step 3 of 3"}, rep.all())
}

func TestCountdown_ZeroSteps(t *testing.T) {
	rep := &recordingReporter{}
	result, err := runBuiltin(t, TypeCountdown, `{"steps":0}`, rep)

	require.NoError(t, err)
	assert.JSONEq(t, `{"steps":0}`, string(result))
	assert.Empty(t, rep.all())
}

func TestCountdown_Cancelled(t *testing.T) {
	def, err := NewDefaultRegistry().Lookup(TypeCountdown)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	rep := &recordingReporter{}

	done := make(chan error, 1)
	go func() {
		_, err := def.Run(ctx, json.RawMessage(`{"steps":100,"delay_ms":50}`), rep)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("countdown did not stop after cancellation")
	}
	assert.Less(t, len(rep.all()), 100)
}

func TestCountdown_ReportError(t *testing.T) {
	rep := &recordingReporter{err: errors.New("store down")}
	_, err := runBuiltin(t, TypeCountdown, `{"steps":2,"delay_ms":0}`, rep)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
}

func TestFail(t *testing.T) {
	t.Run("custom message", func(t *testing.T) {
		rep := &recordingReporter{}
		_, err := runBuiltin(t, TypeFail, `{"after_steps":2,"message":"disk full","delay_ms":0}`, rep)

		require.Error(t, err)
		assert.Equal(t, "disk full", err.Error())
		assert.Equal(t, []string{"step 1 of 2", "step 2 of 2"}, rep.all())
	})

	t.Run("default message", func(t *testing.T) {
		_, err := runBuiltin(t, TypeFail, `{"delay_ms":0}`, &recordingReporter{})
		require.Error(t, err)
		assert.Equal(t, defaultFailureMessage, err.Error())
	})
}

func TestBuiltinValidation(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		name    string
		jobType string
		params  string
		wantErr bool
	}{
		{"countdown defaults", TypeCountdown, ``, false},
		{"countdown empty object", TypeCountdown, `{}`, false},
		{"countdown negative steps", TypeCountdown, `{"steps":-1}`, true},
		{"countdown too many steps", TypeCountdown, `{"steps":5000}`, true},
		{"countdown malformed", TypeCountdown, `{"steps":"many"}`, true},
		{"fail valid", TypeFail, `{"after_steps":1,"message":"x"}`, false},
		{"fail negative delay", TypeFail, `{"delay_ms":-5}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Validate(tt.jobType, json.RawMessage(tt.params))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParams)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
