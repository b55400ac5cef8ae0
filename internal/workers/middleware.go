// internal/workers/middleware.go
package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pank1717/Stocks-sub000/internal/pkg/logger"
	"github.com/pank1717/Stocks-sub000/internal/pkg/metrics"
)

// Instrument logs and counts every processed task. The asynq task id is
// used as the request id of the handler's log records.
func Instrument(m *metrics.Metrics, l *slog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()
			if id, ok := asynq.GetTaskID(ctx); ok {
				ctx = logger.WithRequestID(ctx, id)
			}

			err := next.ProcessTask(ctx, t)

			if m != nil {
				m.RecordTask(t.Type(), err)
			}

			attrs := []any{
				slog.String("type", t.Type()),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				l.ErrorContext(ctx, "task failed", append(attrs, slog.String("error", err.Error()))...)
			} else {
				l.DebugContext(ctx, "task processed", attrs...)
			}
			return err
		})
	}
}
