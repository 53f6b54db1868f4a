package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/catena/internal/runtime"
	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emit returns a node that records value under its own id.
func emit(id string, value any) chain.Node {
	return chain.Func(id, func(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
		return &domain.Result{NodeID: id, Value: value}, nil
	})
}

func silent(id string) chain.Node {
	return chain.Func(id, func(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
		return nil, nil
	})
}

func fail(id string, err error) chain.Node {
	return chain.Func(id, func(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
		return nil, err
	})
}

// counting wraps a node and counts its executions.
type counting struct {
	chain.Node
	runs int
}

func (c *counting) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	c.runs++
	return c.Node.Run(ctx, rc)
}

func resultIDs(rc *domain.Context) []string {
	out := make([]string, 0, len(rc.NodeResults))
	for _, r := range rc.NodeResults {
		out = append(out, r.NodeID)
	}
	return out
}

type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestEngine_LinearChain(t *testing.T) {
	g := chain.New()
	root := g.Register(emit("a", 1))
	root.Add(silent("b")).Add(emit("c", 3))

	rc := domain.NewContext("test")
	require.Nil(t, rc.NodeResults)

	engine := runtime.NewEngine(runtime.WithRunIDs(func() string { return "run-1" }))
	out, err := engine.Execute(context.Background(), runtime.Plan{Root: root}, rc)

	require.NoError(t, err)
	assert.Equal(t, runtime.Outcome{RunID: "run-1", Steps: 3}, out)
	assert.Equal(t, []string{"a", "c"}, resultIDs(rc), "nil results are not logged")
	require.NotNil(t, rc.LastNodeResult)
	assert.Equal(t, domain.Result{NodeID: "c", Value: 3}, *rc.LastNodeResult)
	assert.NoError(t, rc.Error)
}

func TestEngine_EmptyPlan(t *testing.T) {
	rc := domain.NewContext("test")
	_, err := runtime.NewEngine().Execute(context.Background(), runtime.Plan{}, rc)

	var ce *domain.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, domain.ErrNoRoot)
	assert.Nil(t, rc.NodeResults, "result log must stay untouched")
}

func TestEngine_ResultsAccumulate(t *testing.T) {
	g := chain.New()
	root := g.Register(emit("a", 1))

	rc := domain.NewContext("test")
	engine := runtime.NewEngine()
	for range 3 {
		_, err := engine.Execute(context.Background(), runtime.Plan{Root: root}, rc)
		require.NoError(t, err)
	}
	assert.Len(t, rc.NodeResults, 3)
}

func TestEngine_MaxNodes(t *testing.T) {
	for _, max := range []int{1, 2, 5} {
		g := chain.New()
		node := &counting{Node: emit("loop", "x")}
		root := g.Register(node)
		root.SetNext(root)

		rc := domain.NewContext("test")
		out, err := runtime.NewEngine().Execute(context.Background(), runtime.Plan{
			Root:   root,
			Config: domain.Config{MaxNodes: max},
		}, rc)

		require.NoError(t, err)
		assert.Equal(t, max, node.runs)
		assert.Len(t, rc.NodeResults, max)
		assert.Equal(t, max+1, out.Steps)

		var le *domain.LimitExceededError
		require.ErrorAs(t, rc.Error, &le)
		assert.Equal(t, domain.LimitMaxNodes, le.Limit)
	}
}

func TestEngine_MaxNodesCountsHandlerHops(t *testing.T) {
	g := chain.New()
	boom := &counting{Node: fail("boom", errors.New("boom"))}
	root := g.Register(boom)
	// The handler sends control back to the failing node.
	root.Try(silent("handler")).SetNext(root)

	rc := domain.NewContext("test")
	_, err := runtime.NewEngine().Execute(context.Background(), runtime.Plan{
		Root:   root,
		Config: domain.Config{MaxNodes: 4},
	}, rc)

	require.NoError(t, err)
	assert.Equal(t, 2, boom.runs)
	var le *domain.LimitExceededError
	assert.ErrorAs(t, rc.Error, &le)
}

func TestEngine_MaxDuration(t *testing.T) {
	g := chain.New()
	root := g.Register(emit("loop", "x"))
	root.SetNext(root)

	clock := &fakeClock{t: time.Unix(0, 0), step: time.Millisecond}
	rc := domain.NewContext("test")
	_, err := runtime.NewEngine(runtime.WithClock(clock.Now)).Execute(context.Background(), runtime.Plan{
		Root:   root,
		Config: domain.Config{MaxDuration: 20 * time.Millisecond},
	}, rc)

	require.NoError(t, err)
	var le *domain.LimitExceededError
	require.ErrorAs(t, rc.Error, &le)
	assert.Equal(t, domain.LimitMaxDuration, le.Limit)
	assert.Equal(t, "20ms", le.Max)
	assert.NotEmpty(t, rc.NodeResults)
}

func TestEngine_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	g := chain.New()
	root := g.Register(chain.Func("cancel", func(context.Context, *domain.Context) (*domain.Result, error) {
		cancel()
		return nil, nil
	}))
	after := &counting{Node: silent("after")}
	root.Add(after)

	rc := domain.NewContext("test")
	_, err := runtime.NewEngine().Execute(ctx, runtime.Plan{Root: root}, rc)

	require.NoError(t, err)
	assert.Zero(t, after.runs)
	var le *domain.LimitExceededError
	require.ErrorAs(t, rc.Error, &le)
	assert.Equal(t, domain.LimitCanceled, le.Limit)
	assert.ErrorIs(t, rc.Error, context.Canceled)
}

func TestEngine_ErrorRouting(t *testing.T) {
	cause := errors.New("disk on fire")

	t.Run("Local handler wins over fallback", func(t *testing.T) {
		g := chain.New()
		root := g.Register(emit("first", "ok"))
		broken := root.Add(fail("broken", cause))
		broken.Add(emit("skipped", "never"))
		broken.Try(emit("local", "recovered"))
		fallback := g.Register(emit("global", "fallback"))

		rc := domain.NewContext("test")
		_, err := runtime.NewEngine().Execute(context.Background(), runtime.Plan{Root: root, Fallback: fallback}, rc)

		require.NoError(t, err)
		assert.Equal(t, []string{"first", "local"}, resultIDs(rc))

		var ee *domain.ExecutionError
		require.ErrorAs(t, rc.Error, &ee)
		assert.Equal(t, "broken", ee.NodeID)
		assert.ErrorIs(t, rc.Error, cause)
	})

	t.Run("Fallback when no local handler", func(t *testing.T) {
		g := chain.New()
		root := g.Register(fail("broken", cause))
		fallback := g.Register(emit("global", "fallback"))

		rc := domain.NewContext("test")
		_, err := runtime.NewEngine().Execute(context.Background(), runtime.Plan{Root: root, Fallback: fallback}, rc)

		require.NoError(t, err)
		assert.Equal(t, []string{"global"}, resultIDs(rc))
	})

	t.Run("No handler stops the run and keeps the last result", func(t *testing.T) {
		g := chain.New()
		root := g.Register(emit("first", "kept"))
		root.Add(fail("broken", cause)).Add(emit("skipped", "never"))

		rc := domain.NewContext("test")
		_, err := runtime.NewEngine().Execute(context.Background(), runtime.Plan{Root: root}, rc)

		require.NoError(t, err)
		assert.Equal(t, []string{"first"}, resultIDs(rc))
		require.NotNil(t, rc.LastNodeResult)
		assert.Equal(t, "kept", rc.LastNodeResult.Value)
		assert.ErrorIs(t, rc.Error, cause)
	})

	t.Run("Classification errors stay reachable", func(t *testing.T) {
		g := chain.New()
		root := g.Register(fail("router", &domain.ClassificationError{NodeID: "router", Input: "x.doc"}))

		rc := domain.NewContext("test")
		_, err := runtime.NewEngine().Execute(context.Background(), runtime.Plan{Root: root}, rc)

		require.NoError(t, err)
		var ce *domain.ClassificationError
		require.ErrorAs(t, rc.Error, &ce)
		assert.Equal(t, "x.doc", ce.Input)
	})
}

func TestEngine_PanicIsAFailure(t *testing.T) {
	g := chain.New()
	root := g.Register(chain.Func("panics", func(context.Context, *domain.Context) (*domain.Result, error) {
		panic("unexpected")
	}))
	root.Error(emit("handler", "caught"))

	rc := domain.NewContext("test")
	_, err := runtime.NewEngine().Execute(context.Background(), runtime.Plan{Root: root}, rc)

	require.NoError(t, err)
	assert.ErrorContains(t, rc.Error, "panic: unexpected")
	assert.Equal(t, []string{"handler"}, resultIDs(rc))
}

func TestEngine_Telemetry(t *testing.T) {
	build := func() chain.Link {
		g := chain.New()
		root := g.Register(emit("a", 1))
		root.Add(fail("b", errors.New("nope"))).Error(silent("c"))
		return root
	}

	t.Run("Recorded when enabled", func(t *testing.T) {
		rc := domain.NewContext("test")
		rc.Telemetry = domain.NewTelemetry()

		_, err := runtime.NewEngine().Execute(context.Background(), runtime.Plan{Root: build()}, rc)
		require.NoError(t, err)

		require.Len(t, rc.Telemetry.Events, 3)
		assert.Equal(t, "a", rc.Telemetry.Events[0].NodeID)
		assert.Equal(t, domain.StatusOK, rc.Telemetry.Events[0].Status)
		assert.Equal(t, "b", rc.Telemetry.Events[1].NodeID)
		assert.Equal(t, domain.StatusError, rc.Telemetry.Events[1].Status)
		assert.Equal(t, "c", rc.Telemetry.Events[2].NodeID)
	})

	t.Run("Skipped when no event log", func(t *testing.T) {
		rc := domain.NewContext("test")
		rc.Telemetry = &domain.Telemetry{}

		_, err := runtime.NewEngine().Execute(context.Background(), runtime.Plan{Root: build()}, rc)
		require.NoError(t, err)
		assert.Nil(t, rc.Telemetry.Events)
	})
}

func TestEngine_WorkflowTracksCurrentNode(t *testing.T) {
	var seen []string
	g := chain.New()
	track := func(id string) chain.Node {
		return chain.Func(id, func(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
			seen = append(seen, rc.Workflow.CurrentNodeID)
			return nil, nil
		})
	}
	root := g.Register(track("one"))
	root.Add(track("two"))

	rc := domain.NewContext("test")
	rc.Workflow = &domain.Workflow{}

	_, err := runtime.NewEngine().Execute(context.Background(), runtime.Plan{Root: root}, rc)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, seen)
	assert.Equal(t, "two", rc.Workflow.CurrentNodeID)
}

func TestEngine_SuccessorReadAfterRun(t *testing.T) {
	g := chain.New()
	detour := g.Register(emit("detour", "taken"))
	var self chain.Link
	self = g.Register(chain.Func("rewire", func(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
		detour.SetNext(self.Next())
		self.SetNext(detour)
		return nil, nil
	}))
	self.Add(emit("end", "done"))

	rc := domain.NewContext("test")
	_, err := runtime.NewEngine().Execute(context.Background(), runtime.Plan{Root: self}, rc)
	require.NoError(t, err)
	assert.Equal(t, []string{"detour", "end"}, resultIDs(rc))
}
