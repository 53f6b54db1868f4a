package nodes

import (
	"context"
	"errors"
	"strings"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
)

// ErrToolUnavailable is returned when a node needs a tool the Context lacks.
var ErrToolUnavailable = errors.New("tool not configured")

// PromptNode sends the previous result to the LLM tool and returns the completion.
type PromptNode struct {
	chain.Base
	settings promptSettings
}

type promptSettings struct {
	Template    string         `mapstructure:"template"`
	Model       string         `mapstructure:"model"`
	MaxTokens   int            `mapstructure:"max_tokens"`
	Temperature float64        `mapstructure:"temperature"`
	Extra       map[string]any `mapstructure:"options"`
}

// Prompt creates a PromptNode.
func Prompt(id string) *PromptNode {
	return &PromptNode{Base: chain.Base{NodeID: id}}
}

// Configure implements chain.Configurable.
// Supported settings: "template" ({{input}} is replaced by the previous
// result), "model", "max_tokens", "temperature", "options".
func (n *PromptNode) Configure(settings map[string]any) error {
	var s promptSettings
	if err := chain.DecodeSettings(settings, &s); err != nil {
		return err
	}
	n.settings = s
	return nil
}

func (n *PromptNode) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	if rc.Tools == nil || rc.Tools.LLM == nil {
		return nil, ErrToolUnavailable
	}

	input, err := lastString(rc)
	if err != nil {
		return nil, err
	}

	prompt := input
	if n.settings.Template != "" {
		prompt = strings.ReplaceAll(n.settings.Template, "{{input}}", input)
	}

	out, err := rc.Tools.LLM(ctx, domain.LLMRequest{
		System:  systemPrompt(rc.Instructions),
		Prompt:  prompt,
		Options: n.options(),
	})
	if err != nil {
		return nil, err
	}
	return n.Result(out), nil
}

func (n *PromptNode) options() map[string]any {
	opts := make(map[string]any, len(n.settings.Extra)+3)
	for k, v := range n.settings.Extra {
		opts[k] = v
	}
	if n.settings.Model != "" {
		opts["model"] = n.settings.Model
	}
	if n.settings.MaxTokens > 0 {
		opts["max_tokens"] = n.settings.MaxTokens
	}
	if n.settings.Temperature > 0 {
		opts["temperature"] = n.settings.Temperature
	}
	return opts
}

// systemPrompt folds style and constraints into the system instructions.
func systemPrompt(in domain.Instructions) string {
	var b strings.Builder
	b.WriteString(in.System)
	if in.Style != "" {
		b.WriteString("\n\nStyle: ")
		b.WriteString(in.Style)
	}
	if len(in.Constraints) > 0 {
		b.WriteString("\n\nConstraints:")
		for _, c := range in.Constraints {
			b.WriteString("\n- ")
			b.WriteString(c)
		}
	}
	return b.String()
}
