package nodes

import (
	"context"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
)

// RequestNode publishes the user request as a result, typically a file name
// for a routing node to classify.
type RequestNode struct {
	chain.Base
}

// Request creates a RequestNode.
func Request(id string) *RequestNode {
	return &RequestNode{Base: chain.Base{NodeID: id}}
}

// Run returns User.Request, or "" when no user is set.
func (n *RequestNode) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	if rc.User == nil {
		return n.Result(""), nil
	}
	return n.Result(rc.User.Request), nil
}
