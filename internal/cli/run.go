package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/catena"
	"github.com/aretw0/catena/internal/config"
	"github.com/aretw0/catena/internal/presentation/graph"
	"github.com/aretw0/catena/internal/presentation/tui"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/observability"
)

// ErrRunFailed reports a run that finished with an error recorded in its Context.
var ErrRunFailed = errors.New("run finished with an error")

// RunOptions contains all the configuration for the run and ask commands.
type RunOptions struct {
	ConfigPath  string
	Dir         string
	Pipeline    string
	Request     string
	JSON        bool
	Interactive bool
	Debug       bool
	Telemetry   bool
	Graph       bool
	MaxNodes    int
	MaxDuration time.Duration
	// Factory overrides, used by tests.
	FactoryOptions FactoryOptions
}

// LoadConfig reads the config file and applies the flag overrides.
func LoadConfig(opts RunOptions) (*config.File, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.MaxNodes > 0 {
		cfg.MaxNodes = opts.MaxNodes
	}
	if opts.MaxDuration > 0 {
		cfg.MaxDuration = opts.MaxDuration
	}
	if opts.Interactive {
		cfg.Mode = domain.ModeInteractive
	}
	return cfg, nil
}

// Execute handles the run and ask commands: one run per request, or one run
// per input line in interactive mode.
func Execute(ctx context.Context, opts RunOptions, in io.Reader, out io.Writer) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := NewLogger(cfg.LogLevel, opts.Debug)
	if err != nil {
		return err
	}

	fopts := opts.FactoryOptions
	if fopts.Dir == "" {
		fopts.Dir = opts.Dir
	}
	fopts.Debug = fopts.Debug || opts.Debug
	factory, err := NewFactory(cfg, fopts, logger)
	if err != nil {
		return err
	}
	defer factory.Close()

	agent, err := factory.Build(opts.Pipeline)
	if err != nil {
		return err
	}

	if !opts.Interactive {
		if strings.TrimSpace(opts.Request) == "" {
			return &domain.ConfigurationError{Reason: "a request is required"}
		}
		return runOnce(ctx, agent, opts, opts.Request, out)
	}
	return runInteractive(ctx, agent, opts, in, out)
}

func runOnce(ctx context.Context, agent *catena.Agent, opts RunOptions, request string, out io.Writer) error {
	patch := &domain.Context{
		User:     &domain.User{Request: request, Channel: domain.ChannelCLI},
		Workflow: &domain.Workflow{},
	}
	if opts.Telemetry {
		patch.Telemetry = domain.NewTelemetry()
	}

	rc, err := agent.Run(ctx, patch)
	if err != nil {
		return err
	}
	if err := printOutcome(agent, rc, opts, out); err != nil {
		return err
	}
	if rc.Error != nil {
		return fmt.Errorf("%w: %v", ErrRunFailed, rc.Error)
	}
	return nil
}

// runInteractive reuses one agent for every line, so results accumulate
// and the router re-splices on each request.
func runInteractive(ctx context.Context, agent *catena.Agent, opts RunOptions, in io.Reader, out io.Writer) error {
	prompt := tui.IsTerminal(out)
	if prompt {
		tui.PrintBanner(out)
		printSystemMessage(out, "Type a request per line, 'quit' to exit.")
	}

	lines := bufio.NewScanner(NewInterruptibleReader(in, ctx.Done()))
	failed := 0
	for {
		if prompt {
			fmt.Fprint(out, "> ")
		}
		if !lines.Scan() {
			break
		}
		line := strings.TrimSpace(lines.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		before := len(agent.Context().NodeResults)
		err := runOnce(ctx, agent, opts, line, out)
		switch {
		case errors.Is(err, ErrRunFailed):
			failed++
		case err != nil:
			return err
		}
		agent.Context().Error = nil
		if prompt {
			printSystemMessage(out, "%d new results.", len(agent.Context().NodeResults)-before)
		}
	}

	if err := lines.Err(); err != nil && !isInterrupted(err) {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of the requests failed", ErrRunFailed, failed)
	}
	return nil
}

func printOutcome(agent *catena.Agent, rc *domain.Context, opts RunOptions, out io.Writer) error {
	if opts.JSON {
		enc := json.NewEncoder(out)
		return enc.Encode(struct {
			Status string `json:"status"`
			domain.Snapshot
		}{observability.Outcome(rc.Error), domain.NewSnapshot(rc)})
	}

	markdown := tui.Report(fmt.Sprintf("%s: %s", agent.Name, rc.User.Request), domain.NewSnapshot(rc))
	if opts.Graph {
		markdown += "\n```mermaid\n" + graph.GenerateMermaid(agent.Graph(), graph.Options{
			Root:     agent.Root(),
			Fallback: agent.ErrorHandler(),
			Overlay:  graph.OverlayFrom(rc),
		}) + "```\n"
	}

	rendered, err := tui.NewRenderer(out)(markdown)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, rendered)
	return err
}
