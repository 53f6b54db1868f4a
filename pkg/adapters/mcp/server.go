// Package mcp exposes agents as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/catena"
	"github.com/aretw0/catena/internal/presentation/graph"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/observability"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// GraphURI is the resource holding the Mermaid diagram of the chain.
const GraphURI = "catena://graph"

// Factory builds a fresh agent for each tool call.
type Factory func(opts ...catena.Option) (*catena.Agent, error)

// RunArgs are the arguments of the run_pipeline tool.
type RunArgs struct {
	Request string `json:"request"`
	UserID  string `json:"user_id,omitempty"`
}

// RunResponse is the structured result of the run_pipeline tool.
type RunResponse struct {
	Status  string          `json:"status" jsonschema_description:"ok, error or limit"`
	Results []domain.Result `json:"results" jsonschema_description:"Node results in execution order"`
	Output  any             `json:"output,omitempty" jsonschema_description:"Value of the last result"`
	Error   string          `json:"error,omitempty" jsonschema_description:"Last failure recorded by the run"`
}

// Server wraps an agent factory and exposes it as an MCP Server.
type Server struct {
	factory   Factory
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(factory Factory, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		factory:   factory,
		logger:    logger,
		mcpServer: server.NewMCPServer("catena-mcp", catena.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) registerTools() {
	runTool := mcp.NewTool("run_pipeline",
		mcp.WithDescription("Run the agent pipeline once with the given request and return its results."),
		mcp.WithString("request", mcp.Required(), mcp.Description("The user request, e.g. a file name")),
		mcp.WithString("user_id", mcp.Description("Caller identifier (optional)")),
		mcp.WithOutputSchema[RunResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRun))
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest, args RunArgs) (RunResponse, error) {
	agent, err := s.factory()
	if err != nil {
		return RunResponse{}, fmt.Errorf("agent unavailable: %w", err)
	}

	rc, err := agent.Run(ctx, &domain.Context{User: &domain.User{
		Request: args.Request,
		ID:      args.UserID,
		Channel: domain.ChannelAPI,
	}})
	if err != nil {
		s.logger.Warn("MCP run rejected", "err", err)
		return RunResponse{}, fmt.Errorf("run rejected: %w", err)
	}

	resp := RunResponse{
		Status:  observability.Outcome(rc.Error),
		Results: rc.NodeResults,
	}
	if last, ok := rc.Last(); ok {
		resp.Output = last.Value
	}
	if rc.Error != nil {
		resp.Error = rc.Error.Error()
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Agent chain diagram",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		agent, err := s.factory()
		if err != nil {
			return nil, fmt.Errorf("failed to build agent: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/plain",
				Text: graph.GenerateMermaid(agent.Graph(), graph.Options{
					Root:     agent.Root(),
					Fallback: agent.ErrorHandler(),
				}),
			},
		}, nil
	})
}
