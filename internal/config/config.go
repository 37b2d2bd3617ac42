// Package config assembles runtime configuration from viper into explicit
// structs that are injected into components at construction time.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/specimenworks/fieldlens/internal/common"
	"github.com/specimenworks/fieldlens/internal/pipeline"
	"github.com/specimenworks/fieldlens/internal/provider"
)

// Config is the fully resolved application configuration.
type Config struct {
	Provider     provider.Config
	Policy       pipeline.Policy
	Profile      string
	DatabasePath string
	ArtifactDir  string
	ListenAddr   string
}

// Load resolves configuration from viper (config file, FIELDLENS_* env) plus
// the conventional provider API key environment variables.
func Load() (*Config, error) {
	dataDir := viper.GetString("data_dir")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share", "fieldlens")
	}

	cfg := &Config{
		Profile:      viper.GetString("profile"),
		DatabasePath: viper.GetString("database.path"),
		ArtifactDir:  viper.GetString("artifacts.dir"),
		ListenAddr:   viper.GetString("server.listen"),
		Provider: provider.Config{
			Provider:    viper.GetString("provider.name"),
			Model:       viper.GetString("provider.model"),
			ImageModel:  viper.GetString("provider.image_model"),
			BaseURL:     viper.GetString("provider.base_url"),
			Temperature: viper.GetFloat64("provider.temperature"),
			MaxTokens:   viper.GetInt("provider.max_tokens"),
			Timeout:     viper.GetDuration("provider.timeout"),
		},
		Policy: pipeline.Policy{
			CallTimeout:          viper.GetDuration("pipeline.call_timeout"),
			MaxAttempts:          viper.GetInt("pipeline.max_attempts"),
			ReturnOnStoreFailure: returnOnStoreFailure(),
		},
	}

	if cfg.Profile == "" {
		cfg.Profile = "insect"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(dataDir, "fieldlens.db")
	}
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = filepath.Join(dataDir, "results")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Provider.Provider == "" {
		cfg.Provider.Provider = "anthropic"
	}
	if cfg.Policy.CallTimeout == 0 {
		cfg.Policy.CallTimeout = pipeline.DefaultPolicy().CallTimeout
	}
	if cfg.Policy.MaxAttempts == 0 {
		cfg.Policy.MaxAttempts = pipeline.DefaultPolicy().MaxAttempts
	}

	cfg.Provider.APIKey = resolveAPIKey(cfg.Provider.Provider)

	return cfg, nil
}

// returnOnStoreFailure reads the persistence policy, defaulting to the
// optimistic behavior of returning a computed result even when it could not
// be saved.
func returnOnStoreFailure() bool {
	if !viper.IsSet("pipeline.return_on_store_failure") {
		return true
	}
	return viper.GetBool("pipeline.return_on_store_failure")
}

// resolveAPIKey checks viper first, then the provider's conventional
// environment variable. An empty result is not an error here; commands that
// never reach the provider (migrate, results) must still run.
func resolveAPIKey(providerName string) string {
	switch providerName {
	case "anthropic":
		apiKey := viper.GetString("provider.anthropic_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		return apiKey

	case "openai":
		apiKey := viper.GetString("provider.openai_api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return apiKey

	default:
		return ""
	}
}

// RequireAPIKey surfaces a missing credential as a configuration error with
// a remediation hint, before any outbound call is attempted.
func RequireAPIKey(cfg provider.Config) error {
	if cfg.APIKey != "" {
		return nil
	}

	switch cfg.Provider {
	case "anthropic":
		return common.NewUserErrorWithHint(
			"anthropic API key not found",
			"set ANTHROPIC_API_KEY or provider.anthropic_api_key in the config file",
			common.ErrMissingConfig)
	case "openai":
		return common.NewUserErrorWithHint(
			"OpenAI API key not found",
			"set OPENAI_API_KEY or provider.openai_api_key in the config file",
			common.ErrMissingConfig)
	default:
		return fmt.Errorf("%w: unsupported provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
}
