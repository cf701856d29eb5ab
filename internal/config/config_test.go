package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-analysis/internal/config"
)

// isolate points the loader at an empty directory so a developer's real
// config file cannot leak into the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("GOANALYSIS_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Gemini.APIKey)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Gemini.APIKeyEnv)
	assert.Equal(t, "https://generativelanguage.googleapis.com", cfg.Gemini.BaseURL)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.VisionModel)
	assert.Equal(t, "gemini-2.0-flash-thinking", cfg.Gemini.ReasoningModel)
	assert.Equal(t, 30*time.Second, cfg.Gemini.Timeout)
	assert.True(t, cfg.Pipeline.EnableFallbacks)
	assert.Empty(t, cfg.Pipeline.DrawFile)
}

func TestLoadFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[gemini]
api_key = "file-key"
vision_model = "gemini-custom-vision"
timeout = "45s"

[pipeline]
enable_fallbacks = false
draw_file = "run.dot"
`), 0o600))
	t.Setenv("GOANALYSIS_CONFIG", cfgPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-custom-vision", cfg.Gemini.VisionModel)
	assert.Equal(t, 45*time.Second, cfg.Gemini.Timeout)
	assert.False(t, cfg.Pipeline.EnableFallbacks)
	assert.Equal(t, "run.dot", cfg.Pipeline.DrawFile)

	// Untouched keys keep their defaults.
	assert.Equal(t, "gemini-2.0-flash-thinking", cfg.Gemini.ReasoningModel)
}

func TestLoadEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("GOANALYSIS_GEMINI_VISION_MODEL", "gemini-env-vision")
	t.Setenv("GOANALYSIS_PIPELINE_DRAW_FILE", "env.dot")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini-env-vision", cfg.Gemini.VisionModel)
	assert.Equal(t, "env.dot", cfg.Pipeline.DrawFile)
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("GOANALYSIS_TEST_API_KEY", "env-key")

	cfg := config.GeminiConfig{APIKeyEnv: "GOANALYSIS_TEST_API_KEY"}
	assert.Equal(t, "env-key", cfg.ResolveAPIKey())

	// An explicit key beats the environment.
	cfg.APIKey = "explicit-key"
	assert.Equal(t, "explicit-key", cfg.ResolveAPIKey())

	cfg = config.GeminiConfig{APIKeyEnv: "GOANALYSIS_TEST_UNSET_KEY"}
	assert.Empty(t, cfg.ResolveAPIKey())
}
