package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwatch/internal/domain"
	"github.com/phrazzld/taskwatch/internal/store"
	"github.com/stretchr/testify/mock"
)

// JobStore is a mock of store.JobStore
type JobStore struct {
	mock.Mock
}

var _ store.JobStore = (*JobStore)(nil)

// Create is a mock implementation of store.JobStore.Create
func (m *JobStore) Create(ctx context.Context, job *domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// GetByID is a mock implementation of store.JobStore.GetByID
func (m *JobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	args := m.Called(ctx, id)
	return jobArg(args, 0), args.Error(1)
}

// MarkRunning is a mock implementation of store.JobStore.MarkRunning
func (m *JobStore) MarkRunning(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// AppendMessage is a mock implementation of store.JobStore.AppendMessage
func (m *JobStore) AppendMessage(ctx context.Context, id uuid.UUID, description string) error {
	args := m.Called(ctx, id, description)
	return args.Error(0)
}

// TakeMessages is a mock implementation of store.JobStore.TakeMessages
func (m *JobStore) TakeMessages(ctx context.Context, id uuid.UUID) ([]domain.JobMessage, error) {
	args := m.Called(ctx, id)
	if msgs, ok := args.Get(0).([]domain.JobMessage); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}

// Finish is a mock implementation of store.JobStore.Finish
func (m *JobStore) Finish(ctx context.Context, id uuid.UUID, outcome store.JobOutcome) (*domain.Job, error) {
	args := m.Called(ctx, id, outcome)
	return jobArg(args, 0), args.Error(1)
}

// SetEmailAlert is a mock implementation of store.JobStore.SetEmailAlert
func (m *JobStore) SetEmailAlert(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	args := m.Called(ctx, id)
	return jobArg(args, 0), args.Error(1)
}

// FailUnfinished is a mock implementation of store.JobStore.FailUnfinished
func (m *JobStore) FailUnfinished(ctx context.Context, message string) ([]*domain.Job, error) {
	args := m.Called(ctx, message)
	if jobs, ok := args.Get(0).([]*domain.Job); ok {
		return jobs, args.Error(1)
	}
	return nil, args.Error(1)
}

func jobArg(args mock.Arguments, i int) *domain.Job {
	if job, ok := args.Get(i).(*domain.Job); ok {
		return job
	}
	return nil
}
