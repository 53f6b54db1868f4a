// Package llm adapts hosted language models to the domain.LLMFunc tool.
package llm

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// callOptions are the per-request options a node may pass in
// domain.LLMRequest.Options. Unknown keys are ignored.
type callOptions struct {
	Model       string   `mapstructure:"model"`
	MaxTokens   int64    `mapstructure:"max_tokens"`
	Temperature *float64 `mapstructure:"temperature"`
}

func decodeOptions(raw map[string]any) (callOptions, error) {
	var opts callOptions
	if len(raw) == 0 {
		return opts, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return opts, err
	}
	if err := dec.Decode(raw); err != nil {
		return opts, fmt.Errorf("invalid model options: %w", err)
	}
	return opts, nil
}
