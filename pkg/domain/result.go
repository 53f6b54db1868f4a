package domain

import "time"

// Result is the value produced by a node during execution.
type Result struct {
	NodeID string `json:"node_id" yaml:"node_id"`
	Value  any    `json:"value" yaml:"value"`
}

// EventStatus is the outcome of a node execution.
type EventStatus string

const (
	StatusOK    EventStatus = "ok"
	StatusError EventStatus = "error"
)

// Event is a telemetry record of a node's outcome.
type Event struct {
	NodeID string      `json:"node_id" yaml:"node_id"`
	At     time.Time   `json:"at" yaml:"at"`
	Status EventStatus `json:"status" yaml:"status"`
}

// Snapshot is a serializable view of a Context after a run.
// The error slot is flattened to its message.
type Snapshot struct {
	Context      `yaml:",inline"`
	ErrorMessage string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewSnapshot captures c for encoding.
func NewSnapshot(c *Context) Snapshot {
	s := Snapshot{Context: *c}
	if c.Error != nil {
		s.ErrorMessage = c.Error.Error()
	}
	return s
}
