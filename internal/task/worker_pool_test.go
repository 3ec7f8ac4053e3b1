package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTaskQueue implements TaskQueueReader for testing
type mockTaskQueue struct {
	tasks chan Task
}

func newMockTaskQueue() *mockTaskQueue {
	return &mockTaskQueue{
		tasks: make(chan Task, 10),
	}
}

func (m *mockTaskQueue) GetChannel() <-chan Task {
	return m.tasks
}

func TestNewWorkerPool(t *testing.T) {
	logger := setupTestLogger()
	queue := newMockTaskQueue()

	t.Run("valid worker count", func(t *testing.T) {
		pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 3}, logger)
		assert.Equal(t, 3, pool.workerCount)
	})

	t.Run("invalid worker count falls back to one", func(t *testing.T) {
		pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 0}, logger)
		assert.Equal(t, 1, pool.workerCount)
	})

	t.Run("nil logger", func(t *testing.T) {
		pool := NewWorkerPool(queue, DefaultWorkerPoolConfig(), nil)
		assert.NotNil(t, pool.logger)
	})
}

func TestSetErrorHandler(t *testing.T) {
	pool := NewWorkerPool(newMockTaskQueue(), DefaultWorkerPoolConfig(), setupTestLogger())
	assert.Nil(t, pool.errorHandler)

	pool.SetErrorHandler(func(task Task, err error) {})
	assert.NotNil(t, pool.errorHandler)
}

func TestWorkerPool_Start_Stop(t *testing.T) {
	pool := NewWorkerPool(newMockTaskQueue(), WorkerPoolConfig{WorkerCount: 2}, setupTestLogger())

	pool.Start()
	time.Sleep(10 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker pool did not stop")
	}
}

func TestWorkerPool_ProcessTask_Success(t *testing.T) {
	queue := newMockTaskQueue()
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())

	executed := make(chan struct{})
	task := newMockTask()
	task.execFn = func(ctx context.Context) error {
		close(executed)
		return nil
	}

	var handlerCalled bool
	pool.SetErrorHandler(func(Task, error) { handlerCalled = true })

	pool.Start()
	queue.tasks <- task

	select {
	case <-executed:
	case <-time.After(time.Second):
		t.Fatal("task was not executed")
	}

	pool.Stop()
	assert.False(t, handlerCalled)
}

func TestWorkerPool_ProcessTask_Error(t *testing.T) {
	queue := newMockTaskQueue()
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())

	taskErr := errors.New("task failed")
	task := newMockTask()
	task.execFn = func(ctx context.Context) error { return taskErr }

	handled := make(chan error, 1)
	pool.SetErrorHandler(func(failed Task, err error) {
		assert.Equal(t, task.ID(), failed.ID())
		handled <- err
	})

	pool.Start()
	defer pool.Stop()
	queue.tasks <- task

	select {
	case err := <-handled:
		assert.ErrorIs(t, err, taskErr)
	case <-time.After(time.Second):
		t.Fatal("error handler was not called")
	}
}

func TestWorkerPool_ProcessTask_Panic(t *testing.T) {
	queue := newMockTaskQueue()
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())

	task := newMockTask()
	task.execFn = func(ctx context.Context) error { panic("boom") }

	handled := make(chan error, 1)
	pool.SetErrorHandler(func(_ Task, err error) { handled <- err })

	pool.Start()
	defer pool.Stop()
	queue.tasks <- task

	select {
	case err := <-handled:
		assert.Contains(t, err.Error(), "panic")
		assert.Contains(t, err.Error(), "boom")
	case <-time.After(time.Second):
		t.Fatal("panic was not reported")
	}

	// The worker survives the panic and keeps processing
	next := make(chan struct{})
	second := newMockTask()
	second.execFn = func(ctx context.Context) error {
		close(next)
		return nil
	}
	queue.tasks <- second

	select {
	case <-next:
	case <-time.After(time.Second):
		t.Fatal("worker stopped after panic")
	}
}

func TestWorkerPool_Shutdown_DuringTask(t *testing.T) {
	queue := newMockTaskQueue()
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())

	taskStarted := make(chan struct{})
	var sawCancel bool
	task := newMockTask()
	task.execFn = func(ctx context.Context) error {
		close(taskStarted)
		<-ctx.Done()
		sawCancel = true
		return ctx.Err()
	}

	pool.Start()
	queue.tasks <- task

	select {
	case <-taskStarted:
	case <-time.After(time.Second):
		t.Fatal("task did not start")
	}

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		assert.True(t, sawCancel)
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after cancelling the running task")
	}
}

func TestWorkerPool_Cancel(t *testing.T) {
	queue := newMockTaskQueue()
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, setupTestLogger())

	taskStarted := make(chan struct{})
	result := make(chan error, 1)
	task := newMockTask()
	task.execFn = func(ctx context.Context) error {
		close(taskStarted)
		<-ctx.Done()
		result <- ctx.Err()
		return ctx.Err()
	}

	pool.Start()
	defer pool.Stop()

	assert.False(t, pool.Cancel(task.ID()), "task is not running yet")

	queue.tasks <- task
	<-taskStarted
	assert.Equal(t, 1, pool.Running())

	require.True(t, pool.Cancel(task.ID()))

	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("task context was not cancelled")
	}

	assert.Eventually(t, func() bool { return pool.Running() == 0 }, time.Second, 5*time.Millisecond)
	assert.False(t, pool.Cancel(uuid.New()))
}

func TestWorkerPool_ConcurrentWorkers(t *testing.T) {
	queue := newMockTaskQueue()
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 3}, setupTestLogger())

	const n = 3
	var wg sync.WaitGroup
	wg.Add(n)
	release := make(chan struct{})

	for i := 0; i < n; i++ {
		task := newMockTask()
		task.execFn = func(ctx context.Context) error {
			wg.Done()
			<-release
			return nil
		}
		queue.tasks <- task
	}

	pool.Start()
	defer pool.Stop()

	all := make(chan struct{})
	go func() {
		wg.Wait()
		close(all)
	}()

	select {
	case <-all:
	case <-time.After(time.Second):
		t.Fatal("tasks did not run concurrently")
	}
	close(release)
}
