package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Monitor polls a StatusService for the progress of one job and reports its
// terminal outcome. A Monitor is single use: it cannot be restarted once it
// has left the idle state.
type Monitor struct {
	svc    StatusService
	obs    Observer
	cfg    Config
	logger *slog.Logger

	// mu guards the fields below; they are written by Start and the run loop
	// and read by the accessor methods
	mu              sync.Mutex
	handle          Handle
	state           State
	statusText      string
	log             []string
	polls           int
	transportErrors int
	outcome         Outcome

	cancelCh chan struct{}
	detachCh chan struct{}
	done     chan struct{}
}

// New creates an idle Monitor. A nil observer discards events and a nil
// logger falls back to slog.Default().
func New(svc StatusService, obs Observer, cfg Config, logger *slog.Logger) *Monitor {
	if obs == nil {
		obs = ObserverFuncs{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		svc:      svc,
		obs:      obs,
		cfg:      cfg.withDefaults(),
		logger:   logger.With("component", "task_monitor"),
		state:    StateIdle,
		cancelCh: make(chan struct{}, 1),
		detachCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins polling the job identified by handle. The first poll is made
// one interval after Start returns.
func (m *Monitor) Start(handle Handle) error {
	if strings.TrimSpace(string(handle)) == "" {
		return ErrInvalidHandle
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle {
		return ErrAlreadyStarted
	}
	m.handle = handle
	m.state = StatePolling

	ctx, stop := context.WithCancel(context.Background())
	l := &loop{
		m:       m,
		ctx:     ctx,
		handle:  handle,
		logger:  m.logger.With("task_id", string(handle)),
		results: make(chan response, 1),
	}
	go l.run(stop)

	l.logger.Debug("monitor started", "poll_interval", m.cfg.PollInterval)
	return nil
}

// Cancel asks the server to stop the job. The monitor stops scheduling polls;
// an outstanding poll is allowed to finish and its response is discarded
// before the cancellation request is sent. Cancel is a no-op unless the
// monitor is polling.
func (m *Monitor) Cancel() {
	if m.State() != StatePolling {
		return
	}
	select {
	case m.cancelCh <- struct{}{}:
	default:
	}
}

// Detach stops monitoring without cancelling the job. When emailAlert is set
// the server is first asked to notify the owner once the job ends; if that
// request fails the monitor keeps running and the error is returned.
func (m *Monitor) Detach(ctx context.Context, emailAlert bool) error {
	m.mu.Lock()
	state, handle := m.state, m.handle
	m.mu.Unlock()

	switch state {
	case StateIdle:
		return ErrNotStarted
	case StatePolling:
	default:
		return nil
	}

	if emailAlert {
		if err := m.svc.AddEmailAlert(ctx, handle); err != nil {
			return fmt.Errorf("failed to register email alert: %w", err)
		}
	}

	select {
	case m.detachCh <- struct{}{}:
	case <-m.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Done returns a channel that is closed once monitoring has ended.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until monitoring ends or ctx is done. The returned error is the
// outcome's Err.
func (m *Monitor) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-m.done:
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.outcome, m.outcome.Err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// State returns the current monitor state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a copy of the monitor's observable state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := make([]string, len(m.log))
	copy(log, m.log)

	return Snapshot{
		Handle:          m.handle,
		State:           m.state,
		StatusText:      m.statusText,
		Log:             log,
		Polls:           m.polls,
		TransportErrors: m.transportErrors,
	}
}

type requestKind int

const (
	requestPoll requestKind = iota
	requestFetch
	requestCancel
)

func (k requestKind) String() string {
	switch k {
	case requestPoll:
		return "poll_status"
	case requestFetch:
		return "fetch_result"
	case requestCancel:
		return "request_cancel"
	default:
		return "unknown"
	}
}

type response struct {
	kind      requestKind
	updates   []StatusUpdate
	payload   json.RawMessage
	confirmed bool
	err       error
}

// loop holds the state owned by the run loop goroutine.
type loop struct {
	m       *Monitor
	ctx     context.Context
	handle  Handle
	logger  *slog.Logger
	results chan response

	inFlight        bool
	jobDone         bool
	cancelling      bool
	finished        bool
	lastDescription string
}

func (l *loop) run(stop context.CancelFunc) {
	defer stop()

	ticker := time.NewTicker(l.m.cfg.PollInterval)
	defer ticker.Stop()

	for !l.finished {
		select {
		case <-ticker.C:
			l.tick()
		case resp := <-l.results:
			l.dispatch(resp)
		case <-l.m.cancelCh:
			l.requestCancel()
		case <-l.m.detachCh:
			l.logger.Info("monitor detached, job keeps running")
			l.finish(Outcome{State: StateDetached, Err: ErrDetached})
		}
	}
}

func (l *loop) tick() {
	if l.inFlight {
		l.logger.Debug("request still in flight, skipping tick")
		return
	}
	if l.jobDone {
		l.send(requestFetch)
		return
	}
	l.send(requestPoll)
}

// send issues a request on its own goroutine; its response is delivered to
// the loop through l.results.
func (l *loop) send(kind requestKind) {
	l.inFlight = true
	if kind == requestPoll {
		l.m.mu.Lock()
		l.m.polls++
		l.m.mu.Unlock()
	}

	svc, handle, timeout := l.m.svc, l.handle, l.m.cfg.RequestTimeout
	go func() {
		ctx, cancel := context.WithTimeout(l.ctx, timeout)
		defer cancel()

		resp := response{kind: kind}
		switch kind {
		case requestPoll:
			resp.updates, resp.err = svc.PollStatus(ctx, handle)
		case requestFetch:
			resp.payload, resp.err = svc.FetchResult(ctx, handle)
		case requestCancel:
			resp.confirmed, resp.err = svc.RequestCancel(ctx, handle)
		}
		l.results <- resp
	}()
}

func (l *loop) dispatch(resp response) {
	l.inFlight = false

	if l.cancelling && resp.kind != requestCancel {
		l.logger.Debug("discarding response received after cancellation", "request", resp.kind.String())
		l.send(requestCancel)
		return
	}

	switch resp.kind {
	case requestPoll:
		l.handlePoll(resp)
	case requestFetch:
		l.handleFetch(resp)
	case requestCancel:
		l.handleCancel(resp)
	}
}

func (l *loop) handlePoll(resp response) {
	if resp.err != nil {
		l.requestFailure(resp.kind, resp.err)
		return
	}
	l.resetTransportErrors()

	seen := l.lastDescription
	text, descriptions, last := newDescriptions(resp.updates, seen)
	l.lastDescription = last
	for _, u := range resp.updates {
		if u.Failed {
			l.m.appendLog(descriptions)
			l.fail(failureMessage(u, seen))
			return
		}
		if u.Description != "" {
			seen = u.Description
		}
		if u.Done {
			l.jobDone = true
		}
	}

	if text != "" {
		display := truncate(text, l.m.cfg.MaxStatusLength)
		l.m.recordStatus(display, descriptions)
		l.m.obs.StatusChanged(display)
	}

	if l.jobDone {
		l.logger.Info("job finished, fetching result")
		l.send(requestFetch)
	}
}

func (l *loop) handleFetch(resp response) {
	var jobErr *JobFailedError

	switch {
	case resp.err == nil:
		l.resetTransportErrors()
		l.finish(Outcome{State: StateCompleted, Payload: resp.payload})
	case errors.Is(resp.err, ErrResultNotReady):
		l.resetTransportErrors()
		l.logger.Debug("result not ready yet, retrying on next tick")
	case errors.As(resp.err, &jobErr):
		l.fail(jobErr.Message)
	default:
		l.requestFailure(resp.kind, resp.err)
	}
}

func (l *loop) handleCancel(resp response) {
	if resp.err != nil {
		l.logger.Warn("cancel request failed", "error", resp.err)
		l.finish(Outcome{
			State: StateCancelled,
			Err:   fmt.Errorf("%w: %v", ErrCancellationRejected, resp.err),
		})
		return
	}

	o := Outcome{State: StateCancelled, Confirmed: resp.confirmed}
	if !resp.confirmed {
		l.logger.Warn("server could not cancel the job")
		o.Err = ErrCancellationRejected
	}
	l.finish(o)
}

func (l *loop) requestCancel() {
	if l.cancelling {
		return
	}
	l.cancelling = true
	l.logger.Info("cancellation requested", "request_in_flight", l.inFlight)

	if !l.inFlight {
		l.send(requestCancel)
	}
}

// requestFailure ends the monitor on an error retrying cannot fix and treats
// anything else as a transport failure.
func (l *loop) requestFailure(kind requestKind, err error) {
	if !errors.Is(err, ErrJobUnavailable) {
		l.transportFailure(kind, err)
		return
	}
	l.logger.Error("status service rejected the job", "request", kind.String(), "error", err)
	l.finish(Outcome{State: StateFailed, Message: err.Error(), Err: err})
}

// transportFailure records a failed request. The monitor keeps polling until
// MaxTransportErrors consecutive failures have been seen.
func (l *loop) transportFailure(kind requestKind, err error) {
	l.m.mu.Lock()
	l.m.transportErrors++
	attempts := l.m.transportErrors
	l.m.mu.Unlock()

	if attempts >= l.m.cfg.MaxTransportErrors {
		l.logger.Error("giving up on status service",
			"request", kind.String(),
			"attempts", attempts,
			"error", err)
		terr := &TransportError{Attempts: attempts, Err: err}
		l.finish(Outcome{State: StateFailed, Message: terr.Error(), Err: terr})
		return
	}

	l.logger.Warn("status request failed, retrying on next tick",
		"request", kind.String(),
		"attempt", attempts,
		"max_attempts", l.m.cfg.MaxTransportErrors,
		"error", err)
}

func (l *loop) resetTransportErrors() {
	l.m.mu.Lock()
	l.m.transportErrors = 0
	l.m.mu.Unlock()
}

func (l *loop) fail(message string) {
	l.finish(Outcome{
		State:   StateFailed,
		Message: message,
		Err:     &JobFailedError{Message: message},
	})
}

// finish moves the monitor to its final state and fires the matching event.
func (l *loop) finish(o Outcome) {
	l.finished = true

	l.m.mu.Lock()
	l.m.state = o.State
	l.m.outcome = o
	l.m.mu.Unlock()

	switch o.State {
	case StateCompleted:
		l.logger.Info("job completed", "payload_bytes", len(o.Payload))
		l.m.obs.Completed(o.Payload)
	case StateFailed:
		l.logger.Info("job failed", "message", o.Message)
		l.m.obs.Failed(o.Message)
	case StateCancelled:
		l.logger.Info("job cancelled", "confirmed", o.Confirmed)
		l.m.obs.Cancelled(o.Confirmed)
	}

	close(l.m.done)
}

func (m *Monitor) recordStatus(text string, descriptions []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusText = text
	m.log = append(m.log, descriptions...)
}

func (m *Monitor) appendLog(descriptions []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, descriptions...)
}

// failureMessage picks the message reported for a failed update.
func failureMessage(u StatusUpdate, lastDescription string) string {
	switch {
	case u.Description != "":
		return u.Description
	case u.Message != "":
		return u.Message
	case lastDescription != "":
		return lastDescription
	default:
		return "job failed"
	}
}
