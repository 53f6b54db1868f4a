package chain

import (
	"context"
	"fmt"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Node is a unit of work.
//
// Run may block on external operations; no other node executes meanwhile.
// A nil result means "nothing to log". A non-nil error is the failure signal:
// nodes must not swallow their own errors.
//
// Nodes read prior outputs only from rc.NodeResults or rc.LastNodeResult,
// never from other node instances, so chains stay reorderable.
type Node interface {
	ID() string
	Run(ctx context.Context, rc *domain.Context) (*domain.Result, error)
}

// Configurable nodes receive their merged settings whenever Options is called
// on their link. Implementations typically decode them with DecodeSettings.
type Configurable interface {
	Configure(settings map[string]any) error
}

// Attacher nodes receive their own Link when registered in a Graph.
// Routing nodes use it to rewrite their successors while running.
type Attacher interface {
	Attach(self Link)
}

// Base provides the identity part of the Node contract.
type Base struct {
	NodeID string
}

// ID returns the node identifier.
func (b Base) ID() string { return b.NodeID }

// Result builds a result attributed to this node.
func (b Base) Result(value any) *domain.Result {
	return &domain.Result{NodeID: b.NodeID, Value: value}
}

// Func adapts a plain function to the Node contract.
func Func(id string, fn func(ctx context.Context, rc *domain.Context) (*domain.Result, error)) Node {
	return &funcNode{Base: Base{NodeID: id}, fn: fn}
}

type funcNode struct {
	Base
	fn func(ctx context.Context, rc *domain.Context) (*domain.Result, error)
}

func (f *funcNode) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	return f.fn(ctx, rc)
}

// DecodeSettings decodes an opaque settings map into a typed structure.
// Keys follow `mapstructure` tags; unknown keys are rejected and strings
// such as "5s" are accepted for time.Duration fields.
func DecodeSettings(settings map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to create settings decoder: %w", err)
	}
	if err := dec.Decode(settings); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}
