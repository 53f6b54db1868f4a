package domain

import "time"

// Mode is informational; it does not change loop semantics.
type Mode string

const (
	ModeSingleRun   Mode = "single-run"
	ModeInteractive Mode = "interactive"
)

// Config holds the agent's execution settings.
// Zero values mean "not configured".
type Config struct {
	Mode        Mode          `json:"mode,omitempty" yaml:"mode,omitempty" mapstructure:"mode"`
	MaxNodes    int           `json:"max_nodes,omitempty" yaml:"max_nodes,omitempty" mapstructure:"max_nodes"`
	MaxDuration time.Duration `json:"max_duration,omitempty" yaml:"max_duration,omitempty" mapstructure:"max_duration"`
}

// Merge returns c with every non-zero field of patch applied.
func (c Config) Merge(patch Config) Config {
	if patch.Mode != "" {
		c.Mode = patch.Mode
	}
	if patch.MaxNodes != 0 {
		c.MaxNodes = patch.MaxNodes
	}
	if patch.MaxDuration != 0 {
		c.MaxDuration = patch.MaxDuration
	}
	return c
}
