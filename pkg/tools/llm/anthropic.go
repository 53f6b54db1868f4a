package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aretw0/catena/pkg/domain"
)

// AnthropicOptions configures the Anthropic adapter.
type AnthropicOptions struct {
	Model       anthropic.Model
	MaxTokens   int64
	Temperature float64
	APIKey      string
	// RequestOptions are passed to the client (base URL, retries, ...).
	RequestOptions []option.RequestOption
}

// Anthropic returns an LLM tool backed by the Anthropic Messages API.
// Without an API key the client reads ANTHROPIC_API_KEY.
func Anthropic(optFns ...func(o *AnthropicOptions)) domain.LLMFunc {
	opts := AnthropicOptions{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens:   1024,
		Temperature: 0.2,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := append([]option.RequestOption{}, opts.RequestOptions...)
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return func(ctx context.Context, req domain.LLMRequest) (string, error) {
		call, err := decodeOptions(req.Options)
		if err != nil {
			return "", err
		}

		params := anthropic.MessageNewParams{
			Model:       opts.Model,
			MaxTokens:   opts.MaxTokens,
			Temperature: anthropic.Float(opts.Temperature),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
			},
		}
		if call.Model != "" {
			params.Model = anthropic.Model(call.Model)
		}
		if call.MaxTokens > 0 {
			params.MaxTokens = call.MaxTokens
		}
		if call.Temperature != nil {
			params.Temperature = anthropic.Float(*call.Temperature)
		}
		if req.System != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.System}}
		}

		resp, err := client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("anthropic api error: %w", err)
		}

		var out strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				out.WriteString(block.AsText().Text)
			}
		}
		return out.String(), nil
	}
}
