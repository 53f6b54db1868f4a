package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/catena"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/nodes"
)

// Node ids of the ask pipeline.
const (
	QuestionID = "question"
	PromptID   = "prompt"
	RetryID    = "retryPrompt"
	RememberID = "remember"
	AnswerID   = "answer"
)

// AskNodes lists the node ids Ask may compose.
var AskNodes = []string{QuestionID, PromptID, RetryID, RememberID, AnswerID, ErrorReporterID}

// DefaultAskSystem is the system instruction of Ask when none is configured.
const DefaultAskSystem = "You answer questions briefly."

// DefaultRetries bounds the prompt retries of Ask.
const DefaultRetries = 2

// AskConfig configures Ask. Context.Tools must provide an LLM; a LongTerm
// memory store is optional.
type AskConfig struct {
	Settings map[string]map[string]any
	Context  domain.Context
	Options  []catena.Option
	Logger   *slog.Logger
}

// Ask builds the question answering agent:
//
//	question → prompt → [remember] → answer
//	             └─ error → retryPrompt ↺ prompt
//
// The prompt is retried DefaultRetries times (setting "max" of retryPrompt)
// before errorReporter takes over. The answer is remembered when the Context
// carries a long-term store.
func Ask(cfg AskConfig) (*catena.Agent, error) {
	if cfg.Context.Instructions.System == "" {
		cfg.Context.Instructions.System = DefaultAskSystem
	}
	opts := cfg.Options
	if cfg.Logger != nil {
		opts = append([]catena.Option{catena.WithLogger(cfg.Logger)}, opts...)
	}
	agent := catena.New(cfg.Context, append([]catena.Option{catena.WithName("ask")}, opts...)...)
	g := agent.Graph()

	agent.Add(nodes.Request(QuestionID))
	prompt := agent.Add(nodes.Prompt(PromptID))
	prompt.Try(nodes.Retry(RetryID, prompt, DefaultRetries))

	if cfg.Context.Memory != nil && cfg.Context.Memory.LongTerm != nil {
		agent.Add(nodes.Remember(RememberID))
	}
	agent.Add(nodes.Log(AnswerID))

	reporter := nodes.ErrorReporter(ErrorReporterID)
	if cfg.Logger != nil {
		reporter.WithLogger(cfg.Logger)
	}
	agent.Error(reporter)

	for id, settings := range cfg.Settings {
		l, ok := g.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("settings for node '%s': %w", id, domain.ErrNotFound)
		}
		l.Options(settings)
	}
	if err := g.Err(); err != nil {
		return nil, err
	}
	return agent, nil
}
