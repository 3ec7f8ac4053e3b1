package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/phrazzld/taskwatch/internal/api/shared"
	"github.com/phrazzld/taskwatch/internal/platform/logger"
	"github.com/phrazzld/taskwatch/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ownerEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, ok := shared.GetOwnerID(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(owner.String()))
	})
}

func TestAuthenticate(t *testing.T) {
	jwtSvc := auth.NewTestJWTService(auth.TestJWTSecret, time.Hour, nil)
	owner := uuid.New()
	token, err := jwtSvc.GenerateToken(context.Background(), owner)
	require.NoError(t, err)

	handler := NewAuthMiddleware(jwtSvc).Authenticate(ownerEcho(t))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, owner.String()},
		{"lowercase scheme", "bearer " + token, http.StatusOK, owner.String()},
		{"missing header", "", http.StatusUnauthorized, "Authorization header required"},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, "Invalid authorization format"},
		{"no token", "Bearer ", http.StatusUnauthorized, "Invalid authorization format"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantBody)
		})
	}
}

func TestAuthenticate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"expired", auth.ErrExpiredToken, http.StatusUnauthorized, "Token expired"},
		{"bad subject", auth.ErrInvalidSubject, http.StatusUnauthorized, "Invalid token"},
		{"unexpected", errors.New("key store offline"), http.StatusInternalServerError, "Authentication error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mock := auth.NewMockJWTService().WithValidationError(tc.err)
			handler := NewAuthMiddleware(mock).Authenticate(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("handler must not run")
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer whatever")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantBody)
			assert.NotContains(t, w.Body.String(), "key store offline")
		})
	}
}

func TestTraceMiddleware(t *testing.T) {
	base := slog.New(slog.NewTextHandler(io.Discard, nil))

	var gotTrace string
	var gotLogger *slog.Logger
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTrace = shared.GetTraceID(r.Context())
		gotLogger = logger.FromContextOrDefault(r.Context(), nil)
	})

	t.Run("generates trace id", func(t *testing.T) {
		w := httptest.NewRecorder()
		TraceMiddleware(base)(inner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, gotTrace, 32)
		assert.Equal(t, gotTrace, w.Header().Get("X-Trace-ID"))
		assert.NotNil(t, gotLogger)
	})

	t.Run("reuses chi request id", func(t *testing.T) {
		r := chi.NewRouter()
		r.Use(chimiddleware.RequestID)
		r.Use(TraceMiddleware(base))
		r.Get("/", inner)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(chimiddleware.RequestIDHeader, "req-42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-42", gotTrace)
		assert.Equal(t, "req-42", w.Header().Get("X-Trace-ID"))
	})
}
