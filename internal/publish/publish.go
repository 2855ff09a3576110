// Package publish delivers status-change events to the host application.
// The engine only knows this sink; transports (SSE, notifications) live on
// the other side of it.
package publish

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Framerrr/framerr-monitor/internal/domain"
)

type Sink interface {
	Publish(ctx context.Context, ev domain.StatusEvent) error
}

// Multi fans an event out to every sink and reports the combined errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, ev domain.StatusEvent) error {
	var errs error
	for _, s := range m {
		if s == nil {
			continue
		}
		errs = multierr.Append(errs, s.Publish(ctx, ev))
	}
	return errs
}

// LogSink records status changes in the engine log. Useful as a default
// when no external sink is configured.
type LogSink struct {
	Logger *zap.Logger
}

func (l *LogSink) Publish(ctx context.Context, ev domain.StatusEvent) error {
	l.Logger.Info("status_changed",
		zap.String("monitor_id", string(ev.MonitorID)),
		zap.String("status", ev.Status.String()),
		zap.Float64("response_time_ms", ev.ResponseTimeMS),
		zap.Time("timestamp", ev.Timestamp),
	)
	return nil
}
