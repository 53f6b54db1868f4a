package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/tools/llm"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder serves a canned JSON body and keeps the decoded request.
func recorder(t *testing.T, path, reply string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestAnthropic(t *testing.T) {
	srv, got := recorder(t, "/v1/messages", `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-test",
		"content": [{"type": "text", "text": "hello "}, {"type": "text", "text": "there"}],
		"stop_reason": "end_turn",
		"stop_sequence": null,
		"usage": {"input_tokens": 3, "output_tokens": 2}
	}`)

	call := llm.Anthropic(func(o *llm.AnthropicOptions) {
		o.APIKey = "test-key"
		o.RequestOptions = []anthropicopt.RequestOption{
			anthropicopt.WithBaseURL(srv.URL + "/"),
			anthropicopt.WithMaxRetries(0),
		}
	})

	out, err := call(context.Background(), domain.LLMRequest{
		System:  "be brief",
		Prompt:  "greet me",
		Options: map[string]any{"model": "claude-test", "max_tokens": "50"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)

	assert.Equal(t, "claude-test", (*got)["model"])
	assert.Equal(t, float64(50), (*got)["max_tokens"])
	assert.NotEmpty(t, (*got)["system"])
	assert.Len(t, (*got)["messages"], 1)
}

func TestAnthropic_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"nope"}}`)
	}))
	defer srv.Close()

	call := llm.Anthropic(func(o *llm.AnthropicOptions) {
		o.APIKey = "test-key"
		o.RequestOptions = []anthropicopt.RequestOption{anthropicopt.WithBaseURL(srv.URL + "/"), anthropicopt.WithMaxRetries(0)}
	})

	_, err := call(context.Background(), domain.LLMRequest{Prompt: "x"})
	assert.ErrorContains(t, err, "anthropic api error")
}

func TestOpenAI(t *testing.T) {
	srv, got := recorder(t, "/v1/chat/completions", `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "gpt-test",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "hi!"}}],
		"usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
	}`)

	call := llm.OpenAI(func(o *llm.OpenAIOptions) {
		o.APIKey = "test-key"
		o.RequestOptions = []openaiopt.RequestOption{
			openaiopt.WithBaseURL(srv.URL + "/v1/"),
			openaiopt.WithMaxRetries(0),
		}
	})

	out, err := call(context.Background(), domain.LLMRequest{
		System:  "be brief",
		Prompt:  "greet me",
		Options: map[string]any{"model": "gpt-test", "temperature": 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi!", out)

	assert.Equal(t, "gpt-test", (*got)["model"])
	assert.Equal(t, 0.5, (*got)["temperature"])
	assert.Len(t, (*got)["messages"], 2)
}

func TestOpenAI_NoChoices(t *testing.T) {
	srv, _ := recorder(t, "/v1/chat/completions", `{"id": "x", "object": "chat.completion", "created": 1, "model": "m", "choices": []}`)

	call := llm.OpenAI(func(o *llm.OpenAIOptions) {
		o.APIKey = "test-key"
		o.RequestOptions = []openaiopt.RequestOption{openaiopt.WithBaseURL(srv.URL + "/v1/"), openaiopt.WithMaxRetries(0)}
	})

	_, err := call(context.Background(), domain.LLMRequest{Prompt: "x"})
	assert.EqualError(t, err, "no choices returned")
}

func TestInvalidOptions(t *testing.T) {
	call := llm.OpenAI(func(o *llm.OpenAIOptions) { o.APIKey = "unused" })
	_, err := call(context.Background(), domain.LLMRequest{Prompt: "x", Options: map[string]any{"max_tokens": "lots"}})
	assert.ErrorContains(t, err, "invalid model options")
}
