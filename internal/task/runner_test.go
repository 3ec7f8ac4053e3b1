package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRunner_Submit(t *testing.T) {
	runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1, QueueSize: 1}, setupTestLogger())

	require.NoError(t, runner.Submit(newMockTask()))
	assert.ErrorIs(t, runner.Submit(newMockTask()), ErrQueueFull)

	runner.Stop()
	assert.ErrorIs(t, runner.Submit(newMockTask()), ErrQueueClosed)
}

func TestTaskRunner_Start_and_Processing(t *testing.T) {
	runner := NewTaskRunner(DefaultTaskRunnerConfig(), setupTestLogger())
	runner.Start()
	defer runner.Stop()

	var executed atomic.Int32
	for i := 0; i < 5; i++ {
		task := newMockTask()
		task.execFn = func(ctx context.Context) error {
			executed.Add(1)
			return nil
		}
		require.NoError(t, runner.Submit(task))
	}

	assert.Eventually(t, func() bool { return executed.Load() == 5 }, time.Second, 5*time.Millisecond)
}

func TestTaskRunner_TaskFailure(t *testing.T) {
	runner := NewTaskRunner(DefaultTaskRunnerConfig(), setupTestLogger())

	failed := make(chan Task, 1)
	runner.SetErrorHandler(func(task Task, err error) { failed <- task })
	runner.Start()
	defer runner.Stop()

	task := newMockTask()
	task.execFn = func(ctx context.Context) error { return assert.AnError }
	require.NoError(t, runner.Submit(task))

	select {
	case got := <-failed:
		assert.Equal(t, task.ID(), got.ID())
	case <-time.After(time.Second):
		t.Fatal("error handler was not called")
	}
}

func TestTaskRunner_Cancel(t *testing.T) {
	runner := NewTaskRunner(DefaultTaskRunnerConfig(), setupTestLogger())
	runner.Start()
	defer runner.Stop()

	started := make(chan struct{})
	finished := make(chan error, 1)
	task := newMockTask()
	task.execFn = func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		finished <- ctx.Err()
		return nil
	}
	require.NoError(t, runner.Submit(task))
	<-started

	assert.True(t, runner.Cancel(task.ID()))
	select {
	case err := <-finished:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("task was not cancelled")
	}
}

func TestTaskRunner_DefaultQueueSize(t *testing.T) {
	runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1}, nil)
	assert.Equal(t, DefaultTaskRunnerConfig().QueueSize, cap(runner.queue.tasks))
}
