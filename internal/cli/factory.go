package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/aretw0/catena"
	"github.com/aretw0/catena/internal/config"
	"github.com/aretw0/catena/pkg/adapters/memory"
	"github.com/aretw0/catena/pkg/adapters/redis"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/observability"
	"github.com/aretw0/catena/pkg/persistence/middleware"
	"github.com/aretw0/catena/pkg/pipeline"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/aretw0/catena/pkg/tools"
	"github.com/aretw0/catena/pkg/tools/llm"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
)

// Pipeline names accepted by Factory.Build.
const (
	PipelineFileToText = "file-to-text"
	PipelineAsk        = "ask"
)

// DefaultLockTTL bounds how long a crashed run can hold the agent lock.
const DefaultLockTTL = time.Minute

// FactoryOptions carries the command line choices that are not in the config file.
type FactoryOptions struct {
	// Dir is where file names of requests are resolved.
	Dir string
	// Debug logs every lifecycle event.
	Debug bool
	// Registry receives the run metrics. Nil disables metrics.
	Registry prometheus.Registerer
	// LLM overrides the provider selected by the config file.
	LLM domain.LLMFunc
}

// Factory builds agents from a config file. Every agent it builds shares the
// same tools, long-term store, lock and metrics.
type Factory struct {
	cfg    *config.File
	files  fs.FS
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	tools  *domain.Tools
	store  ports.NoteStore
	locker ports.DistributedLocker
	client *backend.Client
}

// NewFactory wires the shared dependencies described by cfg.
func NewFactory(cfg *config.File, opts FactoryOptions, logger *slog.Logger) (*Factory, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	f := &Factory{
		cfg:    cfg,
		files:  os.DirFS(dir),
		logger: logger,
		tools:  tools.Default(logger),
	}

	if opts.Debug {
		f.hooks = f.hooks.Chain(observability.LogHooks(logger))
	}
	if opts.Registry != nil {
		metrics, err := observability.NewMetrics(opts.Registry)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		f.hooks = f.hooks.Chain(metrics.Hooks())
	}

	f.tools.LLM = opts.LLM
	if f.tools.LLM == nil && cfg.LLM != nil {
		f.tools.LLM = provider(cfg.LLM)
	}

	if r := cfg.Redis; r != nil {
		f.client = backend.NewClient(&backend.Options{Addr: r.Addr, Password: r.Password, DB: r.DB})
		var storeOpts []redis.Option
		if r.Prefix != "" {
			storeOpts = append(storeOpts, redis.WithPrefix(r.Prefix))
		}
		if r.TTL > 0 {
			storeOpts = append(storeOpts, redis.WithTTL(r.TTL))
		}
		f.store = redis.NewFromClient(f.client, storeOpts...)
		lockPrefix := r.Prefix
		if lockPrefix == "" {
			lockPrefix = "catena:"
		}
		f.locker = redis.NewLocker(f.client, lockPrefix)
	} else {
		f.store = memory.NewStore()
		f.locker = memory.NewLocker()
	}

	if m := cfg.Memory; m != nil {
		mws, err := noteMiddlewares(m)
		if err != nil {
			return nil, &domain.ConfigurationError{Reason: "invalid memory settings", Err: err}
		}
		f.store = middleware.Wrap(f.store, mws...)
	}
	return f, nil
}

// noteMiddlewares redacts before encrypting.
func noteMiddlewares(m *config.Memory) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(m.Redact) > 0 {
		patterns := make([]string, len(m.Redact))
		for i, p := range m.Redact {
			switch p {
			case "email":
				patterns[i] = middleware.EmailPattern
			case "phone":
				patterns[i] = middleware.PhonePattern
			default:
				patterns[i] = p
			}
		}
		pii, err := middleware.NewPIIMiddleware(patterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if m.EncryptionKeyEnv != "" {
		encoded := os.Getenv(m.EncryptionKeyEnv)
		if encoded == "" {
			return nil, fmt.Errorf("environment variable %s is not set", m.EncryptionKeyEnv)
		}
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.EncryptionKeyEnv, err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

func provider(cfg *config.LLM) domain.LLMFunc {
	switch cfg.Provider {
	case "openai":
		return llm.OpenAI(func(o *llm.OpenAIOptions) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		})
	default:
		return llm.Anthropic(func(o *llm.AnthropicOptions) {
			if cfg.Model != "" {
				o.Model = anthropic.Model(cfg.Model)
			}
		})
	}
}

// Store returns the long-term store shared by the agents.
func (f *Factory) Store() ports.NoteStore { return f.store }

// Build creates a fresh agent for the named pipeline. Extra options are
// applied last.
func (f *Factory) Build(name string, extra ...catena.Option) (*catena.Agent, error) {
	opts := []catena.Option{
		catena.WithConfig(f.cfg.Agent()),
		catena.WithLifecycleHooks(f.hooks),
	}
	if f.cfg.Name != "" {
		opts = append(opts, catena.WithName(f.cfg.Name))
	}
	if f.locker != nil {
		opts = append(opts, catena.WithLocker(f.locker, f.lockTTL()))
	}
	opts = append(opts, extra...)

	rc := domain.Context{
		Instructions: f.cfg.Instructions,
		Tools:        f.tools,
		Memory:       &domain.Memory{LongTerm: f.store},
	}

	switch name {
	case PipelineFileToText, "":
		return pipeline.FileToText(pipeline.FileToTextConfig{
			Files:    f.files,
			Settings: settingsFor(f.cfg.Nodes, pipeline.FileToTextNodes),
			Context:  rc,
			Options:  opts,
			Logger:   f.logger,
		})
	case PipelineAsk:
		if f.tools.LLM == nil {
			return nil, &domain.ConfigurationError{Reason: "the ask pipeline needs an llm provider"}
		}
		return pipeline.Ask(pipeline.AskConfig{
			Settings: settingsFor(f.cfg.Nodes, pipeline.AskNodes),
			Context:  rc,
			Options:  opts,
			Logger:   f.logger,
		})
	default:
		return nil, fmt.Errorf("pipeline '%s': %w", name, domain.ErrNotFound)
	}
}

// settingsFor keeps the settings of the given node ids. The config file
// shares one settings table between every pipeline.
func settingsFor(all map[string]map[string]any, ids []string) map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, id := range ids {
		if s, ok := all[id]; ok {
			out[id] = s
		}
	}
	return out
}

// UnknownNodes returns the ids of the config file settings that no pipeline
// composes.
func UnknownNodes(cfg *config.File) []string {
	known := make(map[string]bool)
	for _, id := range append(slices.Clone(pipeline.FileToTextNodes), pipeline.AskNodes...) {
		known[id] = true
	}
	var unknown []string
	for id := range cfg.Nodes {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	slices.Sort(unknown)
	return unknown
}

// For returns a builder bound to one pipeline, as expected by the HTTP and MCP adapters.
func (f *Factory) For(name string) func(...catena.Option) (*catena.Agent, error) {
	return func(opts ...catena.Option) (*catena.Agent, error) {
		return f.Build(name, opts...)
	}
}

func (f *Factory) lockTTL() time.Duration {
	if f.cfg.Redis != nil && f.cfg.Redis.LockTTL > 0 {
		return f.cfg.Redis.LockTTL
	}
	return DefaultLockTTL
}

// Close releases the Redis connection, if any.
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	err := f.client.Close()
	if errors.Is(err, backend.ErrClosed) {
		return nil
	}
	return err
}
