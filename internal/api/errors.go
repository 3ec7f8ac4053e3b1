package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskwatch/internal/api/shared"
	"github.com/phrazzld/taskwatch/internal/domain"
	"github.com/phrazzld/taskwatch/internal/progress"
	"github.com/phrazzld/taskwatch/internal/service/auth"
	"github.com/phrazzld/taskwatch/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var failed *progress.JobFailedError

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidSubject),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, progress.ErrJobNotFound):
		return http.StatusNotFound

	case errors.Is(err, progress.ErrInvalidJob),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	case errors.Is(err, progress.ErrResultNotReady):
		return http.StatusAccepted

	case errors.As(err, &failed):
		return http.StatusConflict

	case errors.Is(err, progress.ErrJobCancelled):
		return http.StatusGone

	case errors.Is(err, progress.ErrBusy):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var failed *progress.JobFailedError

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidSubject):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Authentication required"
	case errors.Is(err, progress.ErrJobNotFound):
		return "Job not found"
	case errors.Is(err, progress.ErrInvalidJob):
		return invalidJobMessage(err)
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid job ID"
	case errors.Is(err, progress.ErrResultNotReady):
		return "Job result not ready"
	case errors.As(err, &failed):
		// The failure message is produced by the job itself and is part of
		// the result contract.
		return failed.Message
	case errors.Is(err, progress.ErrJobCancelled):
		return "Job was cancelled"
	case errors.Is(err, progress.ErrBusy):
		return "Server is busy, try again later"
	default:
		return "An unexpected error occurred"
	}
}

// invalidJobMessage describes an invalid submission without exposing
// anything beyond the job type and field names.
func invalidJobMessage(err error) string {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs) && len(verrs) > 0:
		return SanitizeValidationError(verrs)
	case errors.Is(err, domain.ErrInvalidJobParams):
		return "Invalid params: must be a JSON object"
	case errors.Is(err, task.ErrUnknownJobType):
		return "Unknown job type"
	default:
		return "Invalid job parameters"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the error response for err. fallbackMsg replaces the
// generic message for unexpected errors when it is not empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMsg != "" {
		message = fallbackMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
