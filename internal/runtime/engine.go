package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/google/uuid"
)

// Engine is the sequential run loop.
// It holds no per-run state, so one Engine can serve many agents.
type Engine struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
	newID  func() string
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock replaces the wall clock used for the duration limit and events.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRunIDs replaces the run id generator (uuid v4 by default).
func WithRunIDs(gen func() string) EngineOption {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Plan is what a single execution needs besides the Context.
type Plan struct {
	Root     chain.Link
	Fallback chain.Link
	Config   domain.Config
}

// Outcome summarizes an execution. The Context carries the actual results.
type Outcome struct {
	RunID string
	Steps int
}

// Execute runs the chain starting at plan.Root against rc until the active
// path ends or a soft limit stops it.
//
// Node failures are recorded in rc.Error and routed to the node's error
// handler, or to plan.Fallback; they are never returned. Only an empty plan
// is reported as an error.
func (e *Engine) Execute(ctx context.Context, plan Plan, rc *domain.Context) (Outcome, error) {
	if plan.Root.IsZero() {
		return Outcome{}, &domain.ConfigurationError{Reason: "no root node", Err: domain.ErrNoRoot}
	}

	runID := e.newID()
	logger := e.logger.With("run_id", runID)

	if rc.NodeResults == nil {
		rc.NodeResults = []domain.Result{}
	}

	start := e.now()
	e.emitRunStart(ctx, runID, start)
	logger.Debug("run started", "root", plan.Root.ID())

	current := plan.Root
	steps := 0

	for !current.IsZero() {
		nodeID := current.ID()
		if rc.Workflow != nil {
			rc.Workflow.CurrentNodeID = nodeID
		}

		steps++

		if limit := e.checkLimits(ctx, plan.Config, steps, start); limit != nil {
			rc.Error = limit
			e.emitLimit(ctx, runID, nodeID, limit)
			logger.Warn("run stopped", "node_id", nodeID, "step", steps, "err", limit)
			break
		}

		e.emitNodeEnter(ctx, runID, nodeID, steps)
		began := e.now()

		result, err := runNode(ctx, current.Node(), rc)
		elapsed := e.now().Sub(began)

		if err == nil {
			if result != nil {
				rc.Append(*result)
			}
			rc.Record(domain.Event{NodeID: nodeID, At: e.now(), Status: domain.StatusOK})
			e.emitNodeLeave(ctx, runID, nodeID, steps, elapsed, nil)
			logger.Debug("node completed", "node_id", nodeID, "step", steps, "duration", elapsed)

			// Read after Run: the node may have rewritten its own successor.
			current = current.Next()
			continue
		}

		rc.Record(domain.Event{NodeID: nodeID, At: e.now(), Status: domain.StatusError})
		rc.Error = &domain.ExecutionError{NodeID: nodeID, Err: err}
		e.emitNodeLeave(ctx, runID, nodeID, steps, elapsed, err)

		next := current.ErrorHandler()
		if next.IsZero() {
			next = plan.Fallback
		}
		logger.Info("node failed", "node_id", nodeID, "step", steps, "err", err, "handler", next.ID())
		current = next
	}

	e.emitRunEnd(ctx, runID, steps, rc.Error)
	logger.Debug("run completed", "steps", steps, "duration", e.now().Sub(start))

	return Outcome{RunID: runID, Steps: steps}, nil
}

// checkLimits evaluates the soft limits before a node runs.
// Steps include error-handler hops.
func (e *Engine) checkLimits(ctx context.Context, cfg domain.Config, steps int, start time.Time) *domain.LimitExceededError {
	if cfg.MaxNodes > 0 && steps > cfg.MaxNodes {
		return &domain.LimitExceededError{Limit: domain.LimitMaxNodes, Max: strconv.Itoa(cfg.MaxNodes)}
	}
	if cfg.MaxDuration > 0 && e.now().Sub(start) > cfg.MaxDuration {
		return &domain.LimitExceededError{Limit: domain.LimitMaxDuration, Max: cfg.MaxDuration.String()}
	}
	if err := ctx.Err(); err != nil {
		return &domain.LimitExceededError{Limit: domain.LimitCanceled, Err: err}
	}
	return nil
}

// runNode invokes a node, turning a panic into an ordinary failure.
func runNode(ctx context.Context, node chain.Node, rc *domain.Context) (result *domain.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			if perr, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", perr)
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if node == nil {
		return nil, errors.New("link has no node")
	}
	return node.Run(ctx, rc)
}
