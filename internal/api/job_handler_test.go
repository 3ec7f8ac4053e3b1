package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskwatch/internal/api/shared"
	"github.com/phrazzld/taskwatch/internal/domain"
	"github.com/phrazzld/taskwatch/internal/progress"
	"github.com/phrazzld/taskwatch/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJobService implements progress.JobService with func fields
type fakeJobService struct {
	SubmitFn        func(ctx context.Context, ownerID uuid.UUID, jobType string, params json.RawMessage) (*domain.Job, error)
	ProgressFn      func(ctx context.Context, ownerID, jobID uuid.UUID) ([]progress.Update, error)
	ResultFn        func(ctx context.Context, ownerID, jobID uuid.UUID) (json.RawMessage, error)
	CancelFn        func(ctx context.Context, ownerID, jobID uuid.UUID) (bool, error)
	AddEmailAlertFn func(ctx context.Context, ownerID, jobID uuid.UUID) error
}

func (f *fakeJobService) Submit(ctx context.Context, ownerID uuid.UUID, jobType string, params json.RawMessage) (*domain.Job, error) {
	return f.SubmitFn(ctx, ownerID, jobType, params)
}

func (f *fakeJobService) Progress(ctx context.Context, ownerID, jobID uuid.UUID) ([]progress.Update, error) {
	return f.ProgressFn(ctx, ownerID, jobID)
}

func (f *fakeJobService) Result(ctx context.Context, ownerID, jobID uuid.UUID) (json.RawMessage, error) {
	return f.ResultFn(ctx, ownerID, jobID)
}

func (f *fakeJobService) Cancel(ctx context.Context, ownerID, jobID uuid.UUID) (bool, error) {
	return f.CancelFn(ctx, ownerID, jobID)
}

func (f *fakeJobService) AddEmailAlert(ctx context.Context, ownerID, jobID uuid.UUID) error {
	return f.AddEmailAlertFn(ctx, ownerID, jobID)
}

func (f *fakeJobService) Recover(ctx context.Context) (int, error) {
	return 0, nil
}

// withOwner stands in for the auth middleware
func withOwner(owner uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(shared.WithOwnerID(r.Context(), owner)))
		})
	}
}

func newTestRouter(svc progress.JobService, owner uuid.UUID) http.Handler {
	h := NewJobHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	if owner != uuid.Nil {
		r.Use(withOwner(owner))
	}
	r.Post("/api/jobs", h.SubmitJob)
	r.Get("/api/jobs/{id}/progress", h.GetProgress)
	r.Get("/api/jobs/{id}/result", h.GetResult)
	r.Post("/api/jobs/{id}/cancel", h.CancelJob)
	r.Post("/api/jobs/{id}/email-alert", h.AddEmailAlert)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, rdr))
	return w
}

func TestSubmitJob(t *testing.T) {
	owner := uuid.New()
	jobID := uuid.New()

	t.Run("accepted", func(t *testing.T) {
		svc := &fakeJobService{
			SubmitFn: func(ctx context.Context, o uuid.UUID, jobType string, params json.RawMessage) (*domain.Job, error) {
				assert.Equal(t, owner, o)
				assert.Equal(t, "countdown", jobType)
				assert.JSONEq(t, `{"steps":3}`, string(params))
				return &domain.Job{ID: jobID}, nil
			},
		}

		w := do(t, newTestRouter(svc, owner), http.MethodPost, "/api/jobs", `{"type":"countdown","params":{"steps":3}}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"task_id":"`+jobID.String()+`"}`, w.Body.String())
	})

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantMsg    string
	}{
		{"malformed body", `{"type":`, nil, http.StatusBadRequest, "Invalid request format"},
		{"missing type", `{"params":{}}`, nil, http.StatusBadRequest, "Invalid Type: required field"},
		{"unknown type", `{"type":"nope"}`, errors.Join(progress.ErrInvalidJob, task.ErrUnknownJobType), http.StatusBadRequest, "Unknown job type"},
		{"queue full", `{"type":"countdown"}`, progress.ErrBusy, http.StatusServiceUnavailable, "Server is busy, try again later"},
		{"store failure", `{"type":"countdown"}`, errors.New("pq: connection reset"), http.StatusInternalServerError, "Failed to submit job"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeJobService{
				SubmitFn: func(context.Context, uuid.UUID, string, json.RawMessage) (*domain.Job, error) {
					if tc.svcErr == nil {
						t.Fatal("service must not be called")
					}
					return nil, tc.svcErr
				},
			}

			w := do(t, newTestRouter(svc, owner), http.MethodPost, "/api/jobs", tc.body)

			assert.Equal(t, tc.wantStatus, w.Code)
			var body shared.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.wantMsg, body.Error)
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}

	t.Run("unauthenticated", func(t *testing.T) {
		w := do(t, newTestRouter(&fakeJobService{}, uuid.Nil), http.MethodPost, "/api/jobs", `{"type":"countdown"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetProgress(t *testing.T) {
	owner := uuid.New()
	jobID := uuid.New()

	svc := &fakeJobService{
		ProgressFn: func(ctx context.Context, o, id uuid.UUID) ([]progress.Update, error) {
			if id != jobID {
				return nil, progress.ErrJobNotFound
			}
			return []progress.Update{
				{Description: "step 1 of 2"},
				{Failed: true, Message: "boom"},
			}, nil
		},
	}
	router := newTestRouter(svc, owner)

	w := do(t, router, http.MethodGet, "/api/jobs/"+jobID.String()+"/progress", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[
		{"description":"step 1 of 2","done":false,"failed":false},
		{"description":"","done":false,"failed":true,"message":"boom"}
	]`, w.Body.String())

	w = do(t, router, http.MethodGet, "/api/jobs/"+uuid.NewString()+"/progress", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodGet, "/api/jobs/not-a-uuid/progress", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid job ID")
}

func TestGetResult(t *testing.T) {
	owner := uuid.New()
	jobID := uuid.New()

	tests := []struct {
		name       string
		result     json.RawMessage
		err        error
		wantStatus int
		wantBody   string
	}{
		{"completed", json.RawMessage(`{"steps":3}`), nil, http.StatusOK, `{"steps":3}`},
		{"not ready", nil, progress.ErrResultNotReady, http.StatusAccepted, `{"error":"Job result not ready"}`},
		{"failed", nil, &progress.JobFailedError{Message: "disk full"}, http.StatusConflict, `{"error":"disk full","failed":true}`},
		{"cancelled", nil, progress.ErrJobCancelled, http.StatusGone, `{"error":"Job was cancelled"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeJobService{
				ResultFn: func(context.Context, uuid.UUID, uuid.UUID) (json.RawMessage, error) {
					return tc.result, tc.err
				},
			}

			w := do(t, newTestRouter(svc, owner), http.MethodGet, "/api/jobs/"+jobID.String()+"/result", "")

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.JSONEq(t, tc.wantBody, w.Body.String())
		})
	}
}

func TestCancelJob(t *testing.T) {
	owner := uuid.New()
	jobID := uuid.New()

	for _, cancelled := range []bool{true, false} {
		svc := &fakeJobService{
			CancelFn: func(ctx context.Context, o, id uuid.UUID) (bool, error) {
				assert.Equal(t, owner, o)
				assert.Equal(t, jobID, id)
				return cancelled, nil
			},
		}

		w := do(t, newTestRouter(svc, owner), http.MethodPost, "/api/jobs/"+jobID.String()+"/cancel", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var body CancelJobResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, cancelled, body.Cancelled)
	}
}

func TestAddEmailAlert(t *testing.T) {
	owner := uuid.New()
	jobID := uuid.New()

	var called bool
	svc := &fakeJobService{
		AddEmailAlertFn: func(ctx context.Context, o, id uuid.UUID) error {
			called = true
			if id != jobID {
				return progress.ErrJobNotFound
			}
			return nil
		},
	}
	router := newTestRouter(svc, owner)

	w := do(t, router, http.MethodPost, "/api/jobs/"+jobID.String()+"/email-alert", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, called)

	w = do(t, router, http.MethodPost, "/api/jobs/"+uuid.NewString()+"/email-alert", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
