package mocks

import (
	"github.com/google/uuid"
	"github.com/phrazzld/taskwatch/internal/task"
	"github.com/stretchr/testify/mock"
)

// Runner is a mock of the job runner used by the progress service
type Runner struct {
	mock.Mock
}

// Submit is a mock implementation of Runner.Submit
func (m *Runner) Submit(t task.Task) error {
	args := m.Called(t)
	return args.Error(0)
}

// Cancel is a mock implementation of Runner.Cancel
func (m *Runner) Cancel(id uuid.UUID) bool {
	args := m.Called(id)
	return args.Bool(0)
}
