package progress

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskwatch/internal/events"
)

// Notifier delivers a finished-job notification to the job's owner.
type Notifier interface {
	Notify(ctx context.Context, event *events.JobEvent) error
}

// LogNotifier records notifications as structured log entries.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With(slog.String("component", "log_notifier"))}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, event *events.JobEvent) error {
	n.logger.InfoContext(ctx, "job owner notified",
		slog.String("owner_id", event.OwnerID.String()),
		slog.String("job_id", event.JobID.String()),
		slog.String("job_type", event.JobType),
		slog.String("outcome", string(event.Type)),
		slog.String("message", event.Message))
	return nil
}

// AlertHandler forwards events for jobs with an email alert to a Notifier.
type AlertHandler struct {
	notifier Notifier
	logger   *slog.Logger
}

// Verify interface compliance at compile time
var _ events.EventHandler = (*AlertHandler)(nil)

// NewAlertHandler creates an AlertHandler.
func NewAlertHandler(notifier Notifier, logger *slog.Logger) *AlertHandler {
	if notifier == nil {
		panic("notifier cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertHandler{
		notifier: notifier,
		logger:   logger.With(slog.String("component", "alert_handler")),
	}
}

// HandleEvent implements events.EventHandler.
func (h *AlertHandler) HandleEvent(ctx context.Context, event *events.JobEvent) error {
	if !event.EmailAlert {
		return nil
	}

	if err := h.notifier.Notify(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "failed to notify job owner",
			slog.String("job_id", event.JobID.String()),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}
