package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/aretw0/catena/pkg/domain"
)

// DefaultMaxBody bounds how much of a response body is read.
const DefaultMaxBody = 10 << 20

// HTTPOption configures the HTTP tool.
type HTTPOption func(*httpTool)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(t *httpTool) {
		t.client = c
	}
}

// WithMaxBody bounds the response size.
func WithMaxBody(n int64) HTTPOption {
	return func(t *httpTool) {
		t.maxBody = n
	}
}

type httpTool struct {
	client  *http.Client
	maxBody int64
}

// HTTP returns an HTTP tool. String and []byte bodies are sent as-is;
// other bodies are encoded as JSON. JSON responses are decoded into
// generic values, anything else is returned as a string.
func HTTP(opts ...HTTPOption) domain.HTTPFunc {
	t := &httpTool{
		client:  &http.Client{Timeout: 30 * time.Second},
		maxBody: DefaultMaxBody,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t.do
}

func (t *httpTool) do(ctx context.Context, req domain.HTTPRequest) (domain.HTTPResponse, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return domain.HTTPResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return domain.HTTPResponse{}, fmt.Errorf("invalid request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return domain.HTTPResponse{}, fmt.Errorf("%s %s: %w", method, req.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody))
	if err != nil {
		return domain.HTTPResponse{}, fmt.Errorf("failed to read response: %w", err)
	}

	out := domain.HTTPResponse{StatusCode: resp.StatusCode, Body: string(raw)}
	if isJSON(resp.Header.Get("Content-Type")) && len(raw) > 0 {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return out, fmt.Errorf("invalid json response: %w", err)
		}
		out.Body = decoded
	}
	return out, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return bytes.NewReader([]byte(b)), "text/plain; charset=utf-8", nil
	case []byte:
		return bytes.NewReader(b), "application/octet-stream", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}
