package domain

import "context"

// LLMRequest is the input of a model call.
type LLMRequest struct {
	System string
	Prompt string
	// Options carries provider-specific settings (model, temperature, ...).
	Options map[string]any
}

// LLMFunc calls a language model and returns its text completion.
type LLMFunc func(ctx context.Context, req LLMRequest) (string, error)

// HTTPRequest describes an outbound call made through Tools.HTTP.
type HTTPRequest struct {
	URL     string
	Method  string
	Body    any
	Headers map[string]string
}

// HTTPResponse is the decoded outcome of an HTTPRequest.
type HTTPResponse struct {
	StatusCode int
	Body       any
}

// HTTPFunc performs an HTTP request on behalf of a node.
type HTTPFunc func(ctx context.Context, req HTTPRequest) (HTTPResponse, error)

// LoggerFunc emits a message with optional metadata.
type LoggerFunc func(msg string, meta map[string]any)

// Tools holds capability handles invoked only by nodes, never by the core.
type Tools struct {
	LLM    LLMFunc
	HTTP   HTTPFunc
	Logger LoggerFunc
}

// Log calls the Logger tool if one is configured.
func (t *Tools) Log(msg string, meta map[string]any) {
	if t != nil && t.Logger != nil {
		t.Logger(msg, meta)
	}
}
