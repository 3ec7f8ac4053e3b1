package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskwatch/internal/api/shared"
	"github.com/phrazzld/taskwatch/internal/domain"
	"github.com/phrazzld/taskwatch/internal/platform/logger"
	"github.com/phrazzld/taskwatch/internal/progress"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	jobService progress.JobService
	logger     *slog.Logger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobService progress.JobService, logger *slog.Logger) *JobHandler {
	if jobService == nil {
		panic("jobService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &JobHandler{
		jobService: jobService,
		logger:     logger.With(slog.String("component", "job_handler")),
	}
}

// SubmitJob handles POST /api/jobs
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, ok := shared.GetOwnerID(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	var req SubmitJobRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	job, err := h.jobService.Submit(r.Context(), ownerID, req.Type, req.Params)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit job")
		return
	}

	log.Debug("job accepted", slog.String("job_id", job.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, SubmitJobResponse{TaskID: job.ID.String()})
}

// GetProgress handles GET /api/jobs/{id}/progress
func (h *JobHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, jobID, ok := handleOwnerIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	updates, err := h.jobService.Progress(r.Context(), ownerID, jobID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get job progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, updates)
}

// GetResult handles GET /api/jobs/{id}/result
func (h *JobHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, jobID, ok := handleOwnerIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	result, err := h.jobService.Result(r.Context(), ownerID, jobID)
	if err != nil {
		var failed *progress.JobFailedError
		if errors.As(err, &failed) {
			shared.RespondWithJSON(w, r, http.StatusConflict, JobFailedResponse{
				Error:   failed.Message,
				Failed:  true,
				TraceID: shared.GetTraceID(r.Context()),
			})
			return
		}
		HandleAPIError(w, r, err, "Failed to get job result")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result); err != nil {
		log.Error("failed to write job result", slog.String("error", err.Error()))
	}
}

// CancelJob handles POST /api/jobs/{id}/cancel
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, jobID, ok := handleOwnerIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	cancelled, err := h.jobService.Cancel(r.Context(), ownerID, jobID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to cancel job")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CancelJobResponse{Cancelled: cancelled})
}

// AddEmailAlert handles POST /api/jobs/{id}/email-alert
func (h *JobHandler) AddEmailAlert(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, jobID, ok := handleOwnerIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.jobService.AddEmailAlert(r.Context(), ownerID, jobID); err != nil {
		HandleAPIError(w, r, err, "Failed to add email alert")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
