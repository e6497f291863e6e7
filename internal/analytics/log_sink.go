package analytics

import (
	"context"

	"github.com/performartech/hinis-website/infrastructure/logger"
	"github.com/performartech/hinis-website/internal/domain"
)

// LogSink writes every event to the structured log.
type LogSink struct {
	log logger.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Emit(_ context.Context, event domain.AnalyticsEvent) error {
	s.log.Info("Analytics event",
		logger.String("event_id", event.ID),
		logger.String("event", event.Name),
		logger.String("session_id", event.SessionID),
		logger.Any("params", event.Params),
	)
	return nil
}
