package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/catena/pkg/chain"
	"github.com/aretw0/catena/pkg/domain"
)

// FetchNode performs an HTTP request through the HTTP tool.
type FetchNode struct {
	chain.Base
	settings fetchSettings
}

type fetchSettings struct {
	URL       string            `mapstructure:"url"`
	Method    string            `mapstructure:"method"`
	Headers   map[string]string `mapstructure:"headers"`
	SendInput bool              `mapstructure:"send_input"`
}

// Fetch creates a FetchNode. Without a "url" setting, the previous result
// is used as the URL.
func Fetch(id string) *FetchNode {
	return &FetchNode{Base: chain.Base{NodeID: id}, settings: fetchSettings{Method: "GET"}}
}

// Configure implements chain.Configurable.
// Supported settings: "url", "method", "headers", "send_input" (previous
// result becomes the request body).
func (n *FetchNode) Configure(settings map[string]any) error {
	s := fetchSettings{Method: "GET"}
	if err := chain.DecodeSettings(settings, &s); err != nil {
		return err
	}
	s.Method = strings.ToUpper(s.Method)
	n.settings = s
	return nil
}

// Run returns the decoded response body. Non-2xx responses are failures.
func (n *FetchNode) Run(ctx context.Context, rc *domain.Context) (*domain.Result, error) {
	if rc.Tools == nil || rc.Tools.HTTP == nil {
		return nil, ErrToolUnavailable
	}

	req := domain.HTTPRequest{URL: n.settings.URL, Method: n.settings.Method, Headers: n.settings.Headers}
	if req.URL == "" || n.settings.SendInput {
		last, ok := rc.Last()
		if !ok {
			return nil, ErrNoInput
		}
		if req.URL == "" {
			u, err := toString(last.Value)
			if err != nil {
				return nil, err
			}
			req.URL = strings.TrimSpace(u)
		} else {
			req.Body = last.Value
		}
	}

	resp, err := rc.Tools.HTTP(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL, resp.StatusCode)
	}
	return n.Result(resp.Body), nil
}
