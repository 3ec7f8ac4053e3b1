package api

import (
	"encoding/json"
)

// SubmitJobRequest defines the payload for POST /api/jobs.
type SubmitJobRequest struct {
	Type   string          `json:"type"   validate:"required,max=64"`
	Params json.RawMessage `json:"params"`
}

// SubmitJobResponse is returned for an accepted job.
type SubmitJobResponse struct {
	TaskID string `json:"task_id"`
}

// CancelJobResponse reports whether a cancellation took effect.
type CancelJobResponse struct {
	Cancelled bool `json:"cancelled"`
}

// JobFailedResponse is the body of a result request for a failed job.
type JobFailedResponse struct {
	Error   string `json:"error"`
	Failed  bool   `json:"failed"`
	TraceID string `json:"trace_id,omitempty"`
}
