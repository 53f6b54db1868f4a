package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
)

// ErrRetriesExhausted is returned once a retry node reached its maximum.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryNode sends control back to a target node a bounded number of times.
// It is used as an error handler: target.Try(nodes.Retry("retry", target, 3)).
//
// Attempts are counted in Workflow.Retries under the target id, so the count
// survives across runs of a reused Context. The count starts over once the
// target has recorded a result since the previous attempt; a target that
// succeeds without a result never resets it. The node rewrites its own
// successor; it never retries by itself.
type RetryNode struct {
	chain.Base
	self   chain.Link
	target chain.Link
	max    int

	// mark is the length of the result log at the previous attempt.
	mark int
}

// Retry creates a RetryNode that re-enters target up to max times.
func Retry(id string, target chain.Link, max int) *RetryNode {
	return &RetryNode{Base: chain.Base{NodeID: id}, target: target, max: max}
}

// Attach implements chain.Attacher.
func (n *RetryNode) Attach(self chain.Link) {
	n.self = self
}

// Configure implements chain.Configurable.
// Supported settings: "max".
func (n *RetryNode) Configure(settings map[string]any) error {
	var s struct {
		Max *int `mapstructure:"max"`
	}
	if err := chain.DecodeSettings(settings, &s); err != nil {
		return err
	}
	if s.Max != nil {
		n.max = *s.Max
	}
	return nil
}

// Run records the attempt and returns no result, so the target sees the
// same last result again. Past max it fails with ErrRetriesExhausted, which
// moves control to this node's own error handler.
func (n *RetryNode) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	if n.self.IsZero() || n.target.IsZero() {
		return nil, fmt.Errorf("retry node '%s' is not wired", n.NodeID)
	}

	if rc.Workflow == nil {
		rc.Workflow = &domain.Workflow{}
	}
	if rc.Workflow.Retries == nil {
		rc.Workflow.Retries = make(map[string]int)
	}

	key := n.target.ID()
	if n.succeededSince(rc, key) {
		delete(rc.Workflow.Retries, key)
	}
	n.mark = len(rc.NodeResults)

	if rc.Workflow.Retries[key] >= n.max {
		n.self.SetNext(chain.Link{})
		return nil, fmt.Errorf("%w: %s after %d attempts", ErrRetriesExhausted, key, n.max)
	}

	rc.Workflow.Retries[key]++
	n.self.SetNext(n.target)
	return nil, nil
}

func (n *RetryNode) succeededSince(rc *domain.Context, key string) bool {
	if len(rc.NodeResults) < n.mark {
		// The log was reset.
		return true
	}
	for _, r := range rc.NodeResults[n.mark:] {
		if r.NodeID == key {
			return true
		}
	}
	return false
}
