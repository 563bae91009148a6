package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultDBPath, cfg.DatabasePath)
	assert.True(t, cfg.IsDev())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 4000
env: production
jwt_secret: s3cret
ai:
  providers:
    - id: groq
      type: OpenAI-Compatible
      api_key: key
      endpoint: https://api.groq.com/openai
      default_model: llama-3.3-70b-versatile
      enabled: true
  explain_model:
    provider_id: groq
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	require.Len(t, cfg.AI.Providers, 1)
	assert.Equal(t, "groq", cfg.AI.Providers[0].ID)
	require.NotNil(t, cfg.AI.ExplainModel)
	assert.Equal(t, "groq", cfg.AI.ExplainModel.ProviderID)
}

func TestEnvAPIKeySynthesizesProvider(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_test")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	require.Len(t, cfg.AI.Providers, 1)
	assert.Equal(t, "OpenAI-Compatible", cfg.AI.Providers[0].Type)
	assert.True(t, cfg.AI.Providers[0].Enabled)
}
