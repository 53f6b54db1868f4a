package domain

import (
	"context"
	"time"
)

// RunEvent describes the start or end of a run.
type RunEvent struct {
	RunID     string
	Timestamp time.Time
	// Steps and Err are only set on run end.
	Steps int
	Err   error
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	RunID     string
	Timestamp time.Time
	NodeID    string
	Step      int
	// Status, Duration and Err are only set on leave.
	Status   EventStatus
	Duration time.Duration
	Err      error
}

// LimitEvent is emitted when a soft limit stops the loop.
type LimitEvent struct {
	RunID  string
	NodeID string
	Err    *LimitExceededError
}

// LifecycleHooks defines callbacks for engine observability.
// Any of them may be nil.
type LifecycleHooks struct {
	OnRunStart  func(context.Context, *RunEvent)
	OnRunEnd    func(context.Context, *RunEvent)
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnLimit     func(context.Context, *LimitEvent)
}

// Chain returns hooks that call h first and then next.
func (h LifecycleHooks) Chain(next LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart:  chainHook(h.OnRunStart, next.OnRunStart),
		OnRunEnd:    chainHook(h.OnRunEnd, next.OnRunEnd),
		OnNodeEnter: chainHook(h.OnNodeEnter, next.OnNodeEnter),
		OnNodeLeave: chainHook(h.OnNodeLeave, next.OnNodeLeave),
		OnLimit:     chainHook(h.OnLimit, next.OnLimit),
	}
}

func chainHook[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
