package domain

import "context"

// Channel identifies where a user request came from.
type Channel string

const (
	ChannelCLI    Channel = "cli"
	ChannelWeb    Channel = "web"
	ChannelAPI    Channel = "api"
	ChannelMobile Channel = "mobile"
)

// User carries the caller input of a run.
type User struct {
	Request string  `json:"request,omitempty" yaml:"request,omitempty"`
	ID      string  `json:"id,omitempty" yaml:"id,omitempty"`
	Locale  string  `json:"locale,omitempty" yaml:"locale,omitempty"`
	Channel Channel `json:"channel,omitempty" yaml:"channel,omitempty"`
}

// Instructions holds the system-level directives of an agent.
// System is required; Style and Constraints are optional.
type Instructions struct {
	System      string   `json:"system" yaml:"system"`
	Style       string   `json:"style,omitempty" yaml:"style,omitempty"`
	Constraints []string `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// IsZero reports whether no instruction field is set.
func (i Instructions) IsZero() bool {
	return i.System == "" && i.Style == "" && len(i.Constraints) == 0
}

// Role of a short-term memory message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is an entry of the short-term memory log.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// LongTermStore gives nodes access to durable notes.
// The core never calls it; only nodes do.
type LongTermStore interface {
	Search(ctx context.Context, query string) ([]string, error)
	WriteNote(ctx context.Context, note string) error
}

// Memory groups the short-term message log and the long-term store accessors.
type Memory struct {
	ShortTerm []Message     `json:"short_term,omitempty" yaml:"short_term,omitempty"`
	LongTerm  LongTermStore `json:"-" yaml:"-"`
}

// Workflow is optional run metadata.
// CurrentNodeID is updated by the runtime before each node executes.
type Workflow struct {
	CurrentNodeID string         `json:"current_node_id,omitempty" yaml:"current_node_id,omitempty"`
	Plan          any            `json:"plan,omitempty" yaml:"plan,omitempty"`
	Retries       map[string]int `json:"retries,omitempty" yaml:"retries,omitempty"`
	Tags          []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Telemetry holds the optional event log.
// Events are only recorded when Events is non-nil; the runtime never creates it.
type Telemetry struct {
	Events []Event `json:"events" yaml:"events"`
}

// NewTelemetry returns a Telemetry with recording enabled.
func NewTelemetry() *Telemetry {
	return &Telemetry{Events: []Event{}}
}

// Enabled reports whether events should be recorded.
func (t *Telemetry) Enabled() bool {
	return t != nil && t.Events != nil
}

// Context is the shared record threaded through one run.
// It is passed by pointer to every node and mutated in place; it is never
// copied per node.
type Context struct {
	User         *User        `json:"user,omitempty" yaml:"user,omitempty"`
	Instructions Instructions `json:"instructions" yaml:"instructions"`
	Memory       *Memory      `json:"memory,omitempty" yaml:"memory,omitempty"`
	Workflow     *Workflow    `json:"workflow,omitempty" yaml:"workflow,omitempty"`
	Tools        *Tools       `json:"-" yaml:"-"`
	Telemetry    *Telemetry   `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`

	// NodeResults is the ordered, append-only log of node outputs.
	// nil means "absent": the runtime creates it lazily and never resets it.
	NodeResults []Result `json:"node_results,omitempty" yaml:"node_results,omitempty"`

	// LastNodeResult caches the most recently appended result.
	LastNodeResult *Result `json:"last_node_result,omitempty" yaml:"last_node_result,omitempty"`

	// Error holds the most recent failure or limit breach. It is a slot, not a log.
	Error error `json:"-" yaml:"-"`
}

// NewContext creates a Context with the given system instructions.
func NewContext(system string) *Context {
	return &Context{Instructions: Instructions{System: system}}
}

// Merge shallow-merges patch into c: every top-level field set on the patch
// replaces the receiver's field. Nested records are replaced, not merged.
func (c *Context) Merge(patch Context) {
	if patch.User != nil {
		c.User = patch.User
	}
	if !patch.Instructions.IsZero() {
		c.Instructions = patch.Instructions
	}
	if patch.Memory != nil {
		c.Memory = patch.Memory
	}
	if patch.Workflow != nil {
		c.Workflow = patch.Workflow
	}
	if patch.Tools != nil {
		c.Tools = patch.Tools
	}
	if patch.Telemetry != nil {
		c.Telemetry = patch.Telemetry
	}
	if patch.NodeResults != nil {
		c.NodeResults = patch.NodeResults
	}
	if patch.LastNodeResult != nil {
		c.LastNodeResult = patch.LastNodeResult
	}
	if patch.Error != nil {
		c.Error = patch.Error
	}
}

// Validate reports a Context without system instructions.
// Runs never call it; the command line checks composed agents with it.
func (c *Context) Validate() error {
	if c.Instructions.System == "" {
		return &ConfigurationError{Reason: "instructions.system is required"}
	}
	return nil
}

// Append records a node result and refreshes LastNodeResult.
func (c *Context) Append(r Result) {
	c.NodeResults = append(c.NodeResults, r)
	last := c.NodeResults[len(c.NodeResults)-1]
	c.LastNodeResult = &last
}

// Last returns the most recent result, preferring LastNodeResult and
// falling back to the tail of NodeResults.
func (c *Context) Last() (Result, bool) {
	if c.LastNodeResult != nil {
		return *c.LastNodeResult, true
	}
	if n := len(c.NodeResults); n > 0 {
		return c.NodeResults[n-1], true
	}
	return Result{}, false
}

// ResultOf returns the latest result recorded by the node with the given id.
func (c *Context) ResultOf(nodeID string) (Result, bool) {
	for i := len(c.NodeResults) - 1; i >= 0; i-- {
		if c.NodeResults[i].NodeID == nodeID {
			return c.NodeResults[i], true
		}
	}
	return Result{}, false
}

// ResetResults clears the result log and its cache.
// The runtime never calls it: results accumulate across runs of a reused Context.
func (c *Context) ResetResults() {
	c.NodeResults = []Result{}
	c.LastNodeResult = nil
	c.Error = nil
}

// Record appends a telemetry event if telemetry is enabled.
func (c *Context) Record(e Event) {
	if c.Telemetry.Enabled() {
		c.Telemetry.Events = append(c.Telemetry.Events, e)
	}
}
