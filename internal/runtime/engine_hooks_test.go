package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/catena/internal/runtime"
	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_LifecycleHooks(t *testing.T) {
	var trace []string
	var leaves []domain.NodeEvent
	var end *domain.RunEvent

	hooks := domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			trace = append(trace, "start:"+e.RunID)
		},
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			trace = append(trace, "enter:"+e.NodeID)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			trace = append(trace, "leave:"+e.NodeID)
			leaves = append(leaves, *e)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			trace = append(trace, "end")
			end = e
		},
	}

	g := chain.New()
	root := g.Register(emit("a", 1))
	root.Add(fail("b", errors.New("bad"))).Error(silent("c"))

	engine := runtime.NewEngine(
		runtime.WithLifecycleHooks(hooks),
		runtime.WithRunIDs(func() string { return "r1" }),
	)
	_, err := engine.Execute(context.Background(), runtime.Plan{Root: root}, domain.NewContext("test"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start:r1",
		"enter:a", "leave:a",
		"enter:b", "leave:b",
		"enter:c", "leave:c",
		"end",
	}, trace)

	require.Len(t, leaves, 3)
	assert.Equal(t, domain.StatusOK, leaves[0].Status)
	assert.Equal(t, domain.StatusError, leaves[1].Status)
	assert.EqualError(t, leaves[1].Err, "bad")
	assert.Equal(t, 2, leaves[1].Step)

	require.NotNil(t, end)
	assert.Equal(t, 3, end.Steps)
	var ee *domain.ExecutionError
	assert.ErrorAs(t, end.Err, &ee)
}

func TestEngine_LimitHook(t *testing.T) {
	var limits []*domain.LimitEvent
	hooks := domain.LifecycleHooks{
		OnLimit: func(ctx context.Context, e *domain.LimitEvent) {
			limits = append(limits, e)
		},
	}

	g := chain.New()
	root := g.Register(silent("loop"))
	root.SetNext(root)

	_, err := runtime.NewEngine(runtime.WithLifecycleHooks(hooks)).Execute(context.Background(), runtime.Plan{
		Root:   root,
		Config: domain.Config{MaxNodes: 3},
	}, domain.NewContext("test"))
	require.NoError(t, err)

	require.Len(t, limits, 1)
	assert.Equal(t, "loop", limits[0].NodeID)
	assert.Equal(t, domain.LimitMaxNodes, limits[0].Err.Limit)
	assert.Equal(t, "3", limits[0].Err.Max)
}

func TestLifecycleHooks_Chain(t *testing.T) {
	var calls []string
	first := domain.LifecycleHooks{
		OnNodeEnter: func(context.Context, *domain.NodeEvent) { calls = append(calls, "first") },
	}
	second := domain.LifecycleHooks{
		OnNodeEnter: func(context.Context, *domain.NodeEvent) { calls = append(calls, "second") },
		OnRunEnd:    func(context.Context, *domain.RunEvent) { calls = append(calls, "end") },
	}

	g := chain.New()
	root := g.Register(silent("only"))

	engine := runtime.NewEngine(runtime.WithLifecycleHooks(first.Chain(second)))
	_, err := engine.Execute(context.Background(), runtime.Plan{Root: root}, domain.NewContext("test"))
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "end"}, calls)
}
