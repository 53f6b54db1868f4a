package nodes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
)

// LogNode reports the previous result through the Logger tool and echoes it.
type LogNode struct {
	chain.Base
}

// Log creates a LogNode.
func Log(id string) *LogNode {
	return &LogNode{Base: chain.Base{NodeID: id}}
}

// Run returns "logged: <previous value>". With no previous result it logs
// the empty log and returns "logged: <nil>".
func (n *LogNode) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	var value any
	if last, ok := rc.Last(); ok {
		value = last.Value
	}
	rc.Tools.Log("node results", map[string]any{
		"node_id": n.NodeID,
		"results": len(rc.NodeResults),
		"last":    value,
	})
	return n.Result(fmt.Sprintf("logged: %v", value)), nil
}

// ErrorReporterNode reports Context.Error. It is meant to be used as an
// error handler and returns no result, so the result log stays unchanged.
type ErrorReporterNode struct {
	chain.Base
	logger *slog.Logger
}

// ErrorReporter creates an ErrorReporterNode. Without a Logger tool on the
// Context it writes to slog.Default.
func ErrorReporter(id string) *ErrorReporterNode {
	return &ErrorReporterNode{Base: chain.Base{NodeID: id}}
}

// WithLogger sets the fallback logger.
func (n *ErrorReporterNode) WithLogger(logger *slog.Logger) *ErrorReporterNode {
	n.logger = logger
	return n
}

func (n *ErrorReporterNode) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	if rc.Error == nil {
		return nil, nil
	}

	if rc.Tools != nil && rc.Tools.Logger != nil {
		rc.Tools.Log("run failed", map[string]any{"node_id": n.NodeID, "err": rc.Error.Error()})
		return nil, nil
	}

	logger := n.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(ctx, "run failed", "node_id", n.NodeID, "err", rc.Error)
	return nil, nil
}
