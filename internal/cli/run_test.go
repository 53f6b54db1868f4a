package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/catena/internal/logging"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workspace creates a directory with input files and an optional catena.yaml.
func workspace(t *testing.T, cfg string) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("id,name\n1,ada\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("alpha beta gamma"), 0o644))
	cfgPath = filepath.Join(dir, "catena.yaml")
	if cfg != "" {
		require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	}
	return dir, cfgPath
}

type jsonOutcome struct {
	Status      string          `json:"status"`
	NodeResults []domain.Result `json:"node_results"`
	Error       string          `json:"error"`
}

func decodeLines(t *testing.T, out *bytes.Buffer) []jsonOutcome {
	t.Helper()
	var outcomes []jsonOutcome
	dec := json.NewDecoder(out)
	for dec.More() {
		var o jsonOutcome
		require.NoError(t, dec.Decode(&o))
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func TestExecute_JSON(t *testing.T) {
	dir, cfgPath := workspace(t, "log_level: error\nnodes:\n  chunk:\n    chunk_size: 11\n")

	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		ConfigPath: cfgPath,
		Dir:        dir,
		Request:    "notes.txt",
		JSON:       true,
	}, nil, &out)
	require.NoError(t, err)

	outcomes := decodeLines(t, &out)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "ok", outcomes[0].Status)
	require.Len(t, outcomes[0].NodeResults, 4)
	assert.Equal(t, []any{"alpha beta", "gamma"}, outcomes[0].NodeResults[2].Value)
}

func TestExecute_Report(t *testing.T) {
	dir, cfgPath := workspace(t, "")

	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		ConfigPath: cfgPath,
		Dir:        dir,
		Request:    "a.csv",
		Graph:      true,
		Telemetry:  true,
	}, nil, &out)
	require.NoError(t, err)

	report := out.String()
	assert.Contains(t, report, "# file-to-text: a.csv")
	assert.Contains(t, report, "| 2 | `csvToText` | id, name<br>1, ada |")
	assert.Contains(t, report, "```mermaid")
	assert.Contains(t, report, "visited;")
}

func TestExecute_RunFailed(t *testing.T) {
	dir, cfgPath := workspace(t, "")

	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		ConfigPath: cfgPath,
		Dir:        dir,
		Request:    "missing.txt",
		JSON:       true,
	}, nil, &out)
	require.ErrorIs(t, err, ErrRunFailed)

	outcomes := decodeLines(t, &out)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "error", outcomes[0].Status)
	assert.Contains(t, outcomes[0].Error, "readFile")
}

func TestExecute_MaxNodesFlag(t *testing.T) {
	dir, cfgPath := workspace(t, "max_nodes: 50\n")

	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		ConfigPath: cfgPath,
		Dir:        dir,
		Request:    "a.csv",
		JSON:       true,
		MaxNodes:   2,
	}, nil, &out)
	require.ErrorIs(t, err, ErrRunFailed)

	outcomes := decodeLines(t, &out)
	assert.Equal(t, "limit", outcomes[0].Status)
	assert.Len(t, outcomes[0].NodeResults, 1)
}

func TestExecute_RequestRequired(t *testing.T) {
	dir, cfgPath := workspace(t, "")

	err := Execute(context.Background(), RunOptions{ConfigPath: cfgPath, Dir: dir}, nil, &bytes.Buffer{})
	var cerr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cerr)
}

func TestExecute_Interactive(t *testing.T) {
	dir, cfgPath := workspace(t, "")

	in := strings.NewReader("a.csv\n\nnotes.txt\nquit\nignored.csv\n")
	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		ConfigPath:  cfgPath,
		Dir:         dir,
		Interactive: true,
		JSON:        true,
	}, in, &out)
	require.NoError(t, err)

	outcomes := decodeLines(t, &out)
	require.Len(t, outcomes, 2)
	assert.Len(t, outcomes[0].NodeResults, 3)
	assert.Len(t, outcomes[1].NodeResults, 7, "results accumulate on the reused agent")
}

func TestExecute_InteractiveCountsFailures(t *testing.T) {
	dir, cfgPath := workspace(t, "")

	in := strings.NewReader("deck.pptx\na.csv\n")
	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		ConfigPath:  cfgPath,
		Dir:         dir,
		Interactive: true,
		JSON:        true,
	}, in, &out)
	require.ErrorIs(t, err, ErrRunFailed)
	assert.Contains(t, err.Error(), "1 of the requests failed")

	outcomes := decodeLines(t, &out)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "ok", outcomes[1].Status, "the error slot is cleared between requests")
}

func TestExecute_Ask(t *testing.T) {
	dir, cfgPath := workspace(t, "instructions:\n  system: Be brief.\n")

	var system string
	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		ConfigPath: cfgPath,
		Dir:        dir,
		Pipeline:   PipelineAsk,
		Request:    "why?",
		JSON:       true,
		FactoryOptions: FactoryOptions{
			LLM: func(ctx context.Context, req domain.LLMRequest) (string, error) {
				system = req.System
				return "because", nil
			},
		},
	}, nil, &out)
	require.NoError(t, err)

	assert.Equal(t, "Be brief.", system)
	outcomes := decodeLines(t, &out)
	assert.Equal(t, "logged: because", outcomes[0].NodeResults[len(outcomes[0].NodeResults)-1].Value)
}

func TestFactory_AskNeedsLLM(t *testing.T) {
	dir, cfgPath := workspace(t, "")
	cfg, err := LoadConfig(RunOptions{ConfigPath: cfgPath})
	require.NoError(t, err)

	f, err := NewFactory(cfg, FactoryOptions{Dir: dir}, createNop())
	require.NoError(t, err)

	_, err = f.Build(PipelineAsk)
	var cerr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cerr)

	_, err = f.Build("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFactory_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	dir, cfgPath := workspace(t, "redis:\n  addr: "+mr.Addr()+"\n  prefix: \"test:\"\n")
	cfg, err := LoadConfig(RunOptions{ConfigPath: cfgPath})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	f, err := NewFactory(cfg, FactoryOptions{
		Dir:      dir,
		Registry: reg,
		LLM: func(ctx context.Context, req domain.LLMRequest) (string, error) {
			return "noted", nil
		},
	}, createNop())
	require.NoError(t, err)
	defer f.Close()

	agent, err := f.Build(PipelineAsk)
	require.NoError(t, err)
	rc, err := agent.Run(context.Background(), &domain.Context{User: &domain.User{Request: "remember me"}})
	require.NoError(t, err)
	assert.NoError(t, rc.Error)

	notes, err := f.Store().Notes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"noted"}, notes)
	assert.True(t, mr.Exists("test:notes"))
	assert.False(t, mr.Exists("test:lock:ask"), "lock released after the run")

	count, err := testutil.GatherAndCount(reg, "catena_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.NoError(t, f.Close())
}

func TestIsInterrupted(t *testing.T) {
	assert.True(t, isInterrupted(context.Canceled))
	assert.True(t, isInterrupted(errInterrupted))
	assert.False(t, isInterrupted(errors.New("boom")))
}

func createNop() *slog.Logger {
	return logging.NewNop()
}
