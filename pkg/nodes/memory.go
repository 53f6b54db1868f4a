package nodes

import (
	"context"
	"errors"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
)

// ErrNoLongTermMemory is returned when Memory.LongTerm is not configured.
var ErrNoLongTermMemory = errors.New("long-term memory not configured")

func longTerm(rc *domain.Context) (domain.LongTermStore, error) {
	if rc.Memory == nil || rc.Memory.LongTerm == nil {
		return nil, ErrNoLongTermMemory
	}
	return rc.Memory.LongTerm, nil
}

// RememberNode writes the previous result to long-term memory.
type RememberNode struct {
	chain.Base
}

// Remember creates a RememberNode.
func Remember(id string) *RememberNode {
	return &RememberNode{Base: chain.Base{NodeID: id}}
}

// Run stores the note and returns no result, so the remembered value stays
// the last result for the next node.
func (n *RememberNode) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	store, err := longTerm(rc)
	if err != nil {
		return nil, err
	}
	note, err := lastString(rc)
	if err != nil {
		return nil, err
	}
	return nil, store.WriteNote(ctx, note)
}

// RecallNode searches long-term memory with the previous result as query.
type RecallNode struct {
	chain.Base
	limit int
}

// Recall creates a RecallNode.
func Recall(id string) *RecallNode {
	return &RecallNode{Base: chain.Base{NodeID: id}}
}

// Configure implements chain.Configurable.
// Supported settings: "limit" (maximum number of notes, 0 = all).
func (n *RecallNode) Configure(settings map[string]any) error {
	var s struct {
		Limit int `mapstructure:"limit"`
	}
	if err := chain.DecodeSettings(settings, &s); err != nil {
		return err
	}
	n.limit = s.Limit
	return nil
}

// Run returns the matching notes as a []string.
func (n *RecallNode) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	store, err := longTerm(rc)
	if err != nil {
		return nil, err
	}
	query, err := lastString(rc)
	if err != nil {
		return nil, err
	}
	notes, err := store.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if n.limit > 0 && len(notes) > n.limit {
		notes = notes[:n.limit]
	}
	return n.Result(notes), nil
}
