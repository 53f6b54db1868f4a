package runtime

import (
	"context"
	"time"

	"github.com/aretw0/catena/pkg/domain"
)

func (e *Engine) emitRunStart(ctx context.Context, runID string, at time.Time) {
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{RunID: runID, Timestamp: at})
	}
}

func (e *Engine) emitRunEnd(ctx context.Context, runID string, steps int, err error) {
	if e.hooks.OnRunEnd != nil {
		e.hooks.OnRunEnd(ctx, &domain.RunEvent{
			RunID:     runID,
			Timestamp: e.now(),
			Steps:     steps,
			Err:       err,
		})
	}
}

func (e *Engine) emitNodeEnter(ctx context.Context, runID, nodeID string, step int) {
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			RunID:     runID,
			Timestamp: e.now(),
			NodeID:    nodeID,
			Step:      step,
		})
	}
}

func (e *Engine) emitNodeLeave(ctx context.Context, runID, nodeID string, step int, d time.Duration, err error) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	status := domain.StatusOK
	if err != nil {
		status = domain.StatusError
	}
	e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		RunID:     runID,
		Timestamp: e.now(),
		NodeID:    nodeID,
		Step:      step,
		Status:    status,
		Duration:  d,
		Err:       err,
	})
}

func (e *Engine) emitLimit(ctx context.Context, runID, nodeID string, err *domain.LimitExceededError) {
	if e.hooks.OnLimit != nil {
		e.hooks.OnLimit(ctx, &domain.LimitEvent{RunID: runID, NodeID: nodeID, Err: err})
	}
}
