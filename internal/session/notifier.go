package session

import (
	"log/slog"

	"github.com/chromaplay/effects-api/internal/result"
)

// Notifier is the notification surface the controller emits UI-state changes
// to. Rendering is out of scope: implementations project these events onto
// whatever surface they own (attempt records, logs, a websocket).
type Notifier interface {
	// OnStatusChange reports a human-readable status text transition.
	OnStatusChange(text string)
	// OnProgress reports the poll attempt count while a job is processing.
	OnProgress(attempt int)
	// OnResult reports a resolved generation result.
	OnResult(res result.Result)
	// OnError reports a failure message. Errors are never silently swallowed;
	// every failure reaches this callback exactly once unless the action was
	// superseded.
	OnError(message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) OnStatusChange(string)     {}
func (NopNotifier) OnProgress(int)            {}
func (NopNotifier) OnResult(result.Result)    {}
func (NopNotifier) OnError(string)            {}

// LogNotifier writes notifications to a structured logger. Used by the CLI,
// where logs are the UI.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a Notifier backed by the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OnStatusChange(text string) {
	n.logger.Info("status", slog.String("text", text))
}

func (n *LogNotifier) OnProgress(attempt int) {
	n.logger.Info("processing", slog.Int("poll", attempt))
}

func (n *LogNotifier) OnResult(res result.Result) {
	n.logger.Info("result ready",
		slog.String("media_url", res.MediaURL),
		slog.String("kind", string(res.Kind)),
	)
}

func (n *LogNotifier) OnError(message string) {
	n.logger.Error("generation error", slog.String("message", message))
}
