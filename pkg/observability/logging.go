package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/catena/pkg/domain"
)

// LogHooks returns hooks that log every lifecycle event on logger.
// Node entries are logged at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run_start", "run_id", e.RunID)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run_end", "run_id", e.RunID, "steps", e.Steps, "outcome", Outcome(e.Err))
		},
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "run_id", e.RunID, "node_id", e.NodeID, "step", e.Step)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			attrs := []any{"run_id", e.RunID, "node_id", e.NodeID, "status", e.Status, "duration", e.Duration}
			if e.Err != nil {
				logger.WarnContext(ctx, "node_leave", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "node_leave", attrs...)
		},
		OnLimit: func(ctx context.Context, e *domain.LimitEvent) {
			logger.WarnContext(ctx, "limit_exceeded", "run_id", e.RunID, "node_id", e.NodeID, "limit", e.Err.Limit)
		},
	}
}
