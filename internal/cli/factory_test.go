package cli

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/aretw0/catena/internal/config"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_MemoryMiddlewares(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	t.Setenv("CATENA_TEST_KEY", base64.StdEncoding.EncodeToString(key))

	dir, cfgPath := workspace(t, "memory:\n  redact: [email]\n  encryption_key_env: CATENA_TEST_KEY\n")
	cfg, err := LoadConfig(RunOptions{ConfigPath: cfgPath})
	require.NoError(t, err)

	f, err := NewFactory(cfg, FactoryOptions{
		Dir: dir,
		LLM: func(ctx context.Context, req domain.LLMRequest) (string, error) {
			return "write to ada@example.com", nil
		},
	}, createNop())
	require.NoError(t, err)

	agent, err := f.Build(PipelineAsk)
	require.NoError(t, err)
	rc, err := agent.Run(context.Background(), &domain.Context{User: &domain.User{Request: "who?"}})
	require.NoError(t, err)
	require.NoError(t, rc.Error)

	notes, err := f.Store().Notes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"write to ***"}, notes)
}

func TestFactory_MemoryKeyMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Memory = &config.Memory{EncryptionKeyEnv: "CATENA_TEST_UNSET_KEY"}

	_, err := NewFactory(cfg, FactoryOptions{}, createNop())
	var cerr *domain.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.True(t, strings.Contains(err.Error(), "CATENA_TEST_UNSET_KEY"))
}

func TestUnknownNodes(t *testing.T) {
	cfg := config.Default()
	cfg.Nodes = map[string]map[string]any{
		"chunk":  {"chunk_size": 10},
		"prompt": {"max_tokens": 10},
		"zeta":   {},
		"alpha":  {},
	}
	assert.Equal(t, []string{"alpha", "zeta"}, UnknownNodes(cfg))
}
