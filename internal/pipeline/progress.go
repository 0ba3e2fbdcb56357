package pipeline

import (
	"log/slog"
)

// Event types sent to a ProgressReporter
const (
	EventRunStarted  = "pipeline:start"
	EventStepUpdate  = "pipeline:step"
	EventRunFinished = "pipeline:complete"
)

// ProgressReporter receives step transitions while a run executes. The
// websocket hub satisfies it directly.
type ProgressReporter interface {
	BroadcastUpdate(eventType, step, status string, metadata interface{})
}

// LogReporter writes progress events to a logger. CLIs use it in place of
// the websocket hub.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a reporter that logs at debug level
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger.With(slog.String("component", "progress"))}
}

// BroadcastUpdate implements ProgressReporter
func (r *LogReporter) BroadcastUpdate(eventType, step, status string, metadata interface{}) {
	r.logger.Debug("pipeline progress",
		slog.String("event", eventType),
		slog.String("step", step),
		slog.String("status", status),
		slog.Any("metadata", metadata))
}

// MultiReporter fans one event out to several reporters
type MultiReporter []ProgressReporter

// BroadcastUpdate implements ProgressReporter
func (m MultiReporter) BroadcastUpdate(eventType, step, status string, metadata interface{}) {
	for _, r := range m {
		if r != nil {
			r.BroadcastUpdate(eventType, step, status, metadata)
		}
	}
}
