package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskwatch/internal/domain"
	"github.com/phrazzld/taskwatch/internal/progress"
	"github.com/phrazzld/taskwatch/internal/service/auth"
	"github.com/phrazzld/taskwatch/internal/task"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", fmt.Errorf("wrapped: %w", auth.ErrExpiredToken), http.StatusUnauthorized},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"not found", progress.ErrJobNotFound, http.StatusNotFound},
		{"invalid job", progress.ErrInvalidJob, http.StatusBadRequest},
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest},
		{"not ready", progress.ErrResultNotReady, http.StatusAccepted},
		{"failed", &progress.JobFailedError{Message: "x"}, http.StatusConflict},
		{"cancelled", progress.ErrJobCancelled, http.StatusGone},
		{"busy", progress.ErrBusy, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"service error", progress.NewServiceError("submit", "x", errors.New("db")), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(errors.New("SELECT * FROM jobs failed")))
	assert.Equal(t, "Job not found", GetSafeErrorMessage(progress.ErrJobNotFound))
	assert.Equal(t, "disk full", GetSafeErrorMessage(&progress.JobFailedError{Message: "disk full"}))
	assert.Equal(t, "Unknown job type",
		GetSafeErrorMessage(errors.Join(progress.ErrInvalidJob, fmt.Errorf("%w: nope", task.ErrUnknownJobType))))
	assert.Equal(t, "Invalid params: must be a JSON object",
		GetSafeErrorMessage(errors.Join(progress.ErrInvalidJob, domain.ErrInvalidJobParams)))
}

func TestInvalidJobMessage_ValidationErrors(t *testing.T) {
	r := task.NewDefaultRegistry()
	err := r.Validate(task.TypeCountdown, []byte(`{"steps":-1}`))

	assert.Equal(t, "Invalid Steps: too small", GetSafeErrorMessage(errors.Join(progress.ErrInvalidJob, err)))
}

func TestSanitizeValidationError(t *testing.T) {
	type req struct {
		Type string `validate:"required"`
	}
	err := validator.New().Struct(req{})

	assert.Equal(t, "Invalid Type: required field", SanitizeValidationError(err))
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
