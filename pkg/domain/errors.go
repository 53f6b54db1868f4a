package domain

import (
	"errors"
	"fmt"
)

// ErrNoRoot is the reason of the ConfigurationError returned when an agent has no nodes.
var ErrNoRoot = errors.New("agent has no nodes configured")

// ErrRunInProgress is returned when Run is called while another run of the same agent is active.
var ErrRunInProgress = errors.New("run already in progress")

// ErrNotFound is returned by lookups that find nothing.
var ErrNotFound = errors.New("not found")

// ConfigurationError means the chain is unusable. It is the one failure
// returned directly by Run.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ExecutionError wraps a failure raised by a node's Run.
// It is recorded in Context.Error and routed to an error handler, never returned by Run.
type ExecutionError struct {
	NodeID string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("node '%s' failed: %v", e.NodeID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Limit names a soft limit of the run loop.
type Limit string

const (
	LimitMaxNodes    Limit = "max_nodes"
	LimitMaxDuration Limit = "max_duration"
	LimitCanceled    Limit = "canceled"
)

// LimitExceededError records a soft limit breach. It ends the run gracefully.
type LimitExceededError struct {
	Limit Limit
	// Max is the configured bound (steps or duration), rendered for humans.
	Max string
	Err error
}

func (e *LimitExceededError) Error() string {
	switch e.Limit {
	case LimitMaxNodes:
		return fmt.Sprintf("max nodes exceeded (%s)", e.Max)
	case LimitMaxDuration:
		return fmt.Sprintf("max duration exceeded (%s)", e.Max)
	default:
		return fmt.Sprintf("run stopped: %v", e.Err)
	}
}

func (e *LimitExceededError) Unwrap() error {
	return e.Err
}

// ClassificationError is raised by a routing node whose decision input matches
// no recognized category. The runtime handles it like any node failure.
type ClassificationError struct {
	NodeID string
	Input  any
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("node '%s' cannot classify input %v", e.NodeID, e.Input)
}
