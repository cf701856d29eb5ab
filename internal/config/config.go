// Package config loads the configuration consumed by concrete model
// implementations: credentials, model names and timeouts. The
// orchestration core never reads it directly.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// GeminiConfig holds the Gemini API settings.
type GeminiConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	APIKeyEnv      string        `mapstructure:"api_key_env"`
	BaseURL        string        `mapstructure:"base_url"`
	VisionModel    string        `mapstructure:"vision_model"`
	ReasoningModel string        `mapstructure:"reasoning_model"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// PipelineConfig holds orchestration feature flags.
type PipelineConfig struct {
	EnableFallbacks bool   `mapstructure:"enable_fallbacks"`
	DrawFile        string `mapstructure:"draw_file"`
}

// ResolveAPIKey returns the configured key, falling back to the
// environment variable named by APIKeyEnv.
func (g GeminiConfig) ResolveAPIKey() string {
	if g.APIKey != "" {
		return g.APIKey
	}

	return os.Getenv(g.APIKeyEnv)
}

// Load reads configuration from file and env. Env var overrides use the
// prefix GOANALYSIS_.
func Load() (Config, error) {
	vip := viper.New()

	vip.SetDefault("gemini.api_key", "")
	vip.SetDefault("gemini.api_key_env", "GEMINI_API_KEY")
	vip.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	vip.SetDefault("gemini.vision_model", "gemini-2.0-flash")
	vip.SetDefault("gemini.reasoning_model", "gemini-2.0-flash-thinking")
	vip.SetDefault("gemini.timeout", 30*time.Second)
	vip.SetDefault("pipeline.enable_fallbacks", true)
	vip.SetDefault("pipeline.draw_file", "")

	vip.SetConfigType("toml")

	cfgPath := os.Getenv("GOANALYSIS_CONFIG")
	if cfgPath != "" {
		vip.SetConfigFile(cfgPath)
	} else {
		vip.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "go-analysis"))
		vip.SetConfigName("config")
	}

	vip.SetEnvPrefix("GOANALYSIS")
	vip.AutomaticEnv()
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The config file is optional; defaults and env cover the rest.
	_ = vip.ReadInConfig()

	var cfg Config
	err := vip.Unmarshal(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to unmarshal config")
	}

	return cfg, nil
}
