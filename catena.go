package catena

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/catena/internal/runtime"
	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
)

// Agent is the high-level entry point of the library: a chain of nodes plus
// the Context they share.
//
// Composition methods are not safe for concurrent use. Run refuses to start
// while another Run of the same Agent is in progress.
type Agent struct {
	runtime *runtime.Engine
	graph   *chain.Graph
	root    chain.Link
	tail    chain.Link
	handler chain.Link

	context *domain.Context
	config  domain.Config

	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	locker  ports.DistributedLocker
	lockTTL time.Duration
	running atomic.Bool

	Name string
}

// Option defines a functional option for configuring the Agent.
type Option func(*Agent)

// WithLogger sets a custom structured logger for the agent.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
// Calling it more than once chains the hooks in order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Agent) {
		a.hooks = a.hooks.Chain(hooks)
	}
}

// WithName labels the agent in logs and lock keys.
func WithName(name string) Option {
	return func(a *Agent) {
		a.Name = name
	}
}

// WithMaxNodes bounds the number of steps of a run, error-handler hops included.
func WithMaxNodes(n int) Option {
	return func(a *Agent) {
		a.config.MaxNodes = n
	}
}

// WithMaxDuration bounds the wall-clock time of a run.
// It is checked between nodes; a running node is never interrupted.
func WithMaxDuration(d time.Duration) Option {
	return func(a *Agent) {
		a.config.MaxDuration = d
	}
}

// WithMode sets the informational execution mode.
func WithMode(mode domain.Mode) Option {
	return func(a *Agent) {
		a.config.Mode = mode
	}
}

// WithConfig applies every non-zero field of cfg.
func WithConfig(cfg domain.Config) Option {
	return func(a *Agent) {
		a.config = a.config.Merge(cfg)
	}
}

// WithLocker makes Run hold a lock on the agent name for the whole run, so
// that agents sharing state across processes never overlap.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(a *Agent) {
		a.locker = locker
		a.lockTTL = ttl
	}
}

// New creates an Agent with the given initial Context.
func New(initial domain.Context, opts ...Option) *Agent {
	a := &Agent{
		graph:   chain.New(),
		context: &initial,
		config:  domain.Config{Mode: domain.ModeSingleRun},
		Name:    "agent",
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a.logger = a.logger.With("agent", a.Name)

	a.runtime = runtime.NewEngine(
		runtime.WithLogger(a.logger),
		runtime.WithLifecycleHooks(a.hooks),
	)
	return a
}

// Options merges the non-zero fields of patch into the agent configuration.
func (a *Agent) Options(patch domain.Config) *Agent {
	a.config = a.config.Merge(patch)
	return a
}

// WithContext shallow-merges patch into the agent's Context.
func (a *Agent) WithContext(patch domain.Context) *Agent {
	a.context.Merge(patch)
	return a
}

// Add appends node after the last node added through the agent and returns
// its link. The first node added becomes the root.
func (a *Agent) Add(node chain.Node) chain.Link {
	if a.root.IsZero() {
		a.root = a.graph.Register(node)
		a.tail = a.root
		return a.root
	}
	a.tail = a.tail.Add(node)
	return a.tail
}

// Error sets the global error handler, used when a failing node has none.
func (a *Agent) Error(handler chain.Node) *Agent {
	a.handler = a.graph.Register(handler)
	return a
}

// Graph returns the arena holding the agent's nodes.
// Branches for routing nodes are registered here.
func (a *Agent) Graph() *chain.Graph { return a.graph }

// Root returns the first node of the chain, or the zero Link.
func (a *Agent) Root() chain.Link { return a.root }

// ErrorHandler returns the global error handler, or the zero Link.
func (a *Agent) ErrorHandler() chain.Link { return a.handler }

// Context returns the agent's live Context.
func (a *Agent) Context() *domain.Context { return a.context }

// Config returns the effective configuration.
func (a *Agent) Config() domain.Config { return a.config }

// Run merges patch into the agent's Context and executes the chain.
//
// Node failures and limit breaches are reported in the returned Context's
// Error field, not as the returned error. The returned error is a
// *domain.ConfigurationError when the chain cannot run, domain.ErrRunInProgress
// when another run is active, or a lock acquisition failure.
func (a *Agent) Run(ctx context.Context, patch *domain.Context) (*domain.Context, error) {
	if !a.running.CompareAndSwap(false, true) {
		return nil, domain.ErrRunInProgress
	}
	defer a.running.Store(false)

	if patch != nil {
		a.context.Merge(*patch)
	}

	if a.root.IsZero() {
		return nil, &domain.ConfigurationError{Reason: "agent has no nodes configured", Err: domain.ErrNoRoot}
	}
	if err := a.graph.Err(); err != nil {
		return nil, &domain.ConfigurationError{Reason: "invalid chain", Err: err}
	}
	if a.locker != nil {
		unlock, err := a.locker.Lock(ctx, a.Name, a.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to lock agent '%s': %w", a.Name, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				a.logger.Warn("failed to release agent lock", "err", err)
			}
		}()
	}

	plan := runtime.Plan{Root: a.root, Fallback: a.handler, Config: a.config}
	if _, err := a.runtime.Execute(ctx, plan, a.context); err != nil {
		return nil, err
	}
	return a.context, nil
}
