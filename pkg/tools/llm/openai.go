package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIOptions configures the OpenAI adapter.
type OpenAIOptions struct {
	Model               string
	MaxCompletionTokens int64
	Temperature         float64
	APIKey              string
	// RequestOptions are passed to the client (base URL, retries, ...).
	RequestOptions []option.RequestOption
}

// OpenAI returns an LLM tool backed by the OpenAI Chat Completions API.
// Without an API key the client reads OPENAI_API_KEY.
func OpenAI(optFns ...func(o *OpenAIOptions)) domain.LLMFunc {
	opts := OpenAIOptions{
		Model:               openai.ChatModelGPT4oMini,
		MaxCompletionTokens: 1024,
		Temperature:         0.2,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := append([]option.RequestOption{}, opts.RequestOptions...)
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return func(ctx context.Context, req domain.LLMRequest) (string, error) {
		call, err := decodeOptions(req.Options)
		if err != nil {
			return "", err
		}

		var messages []openai.ChatCompletionMessageParamUnion
		if req.System != "" {
			messages = append(messages, openai.SystemMessage(req.System))
		}
		messages = append(messages, openai.UserMessage(req.Prompt))

		params := openai.ChatCompletionNewParams{
			Messages:            messages,
			Model:               opts.Model,
			Temperature:         openai.Float(opts.Temperature),
			MaxCompletionTokens: openai.Int(opts.MaxCompletionTokens),
		}
		if call.Model != "" {
			params.Model = call.Model
		}
		if call.MaxTokens > 0 {
			params.MaxCompletionTokens = openai.Int(call.MaxTokens)
		}
		if call.Temperature != nil {
			params.Temperature = openai.Float(*call.Temperature)
		}

		resp, err := client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("openai api error: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("no choices returned")
		}
		return resp.Choices[0].Message.Content, nil
	}
}
