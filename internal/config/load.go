package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config file and the environment.
// Environment variables use the LOCI_ prefix with underscores for nesting
// (e.g. LOCI_SERVER_PORT, LOCI_DATABASE_URL) and take precedence over file
// values. Returns a validated Config or an error describing what is missing.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults for everything that has a sensible one.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_cards_per_source", 5)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("raindrop.poll_interval_seconds", 0)
	v.SetDefault("export.learnings_folder", "learnings")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the environment can carry everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("LOCI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not register keys for Unmarshal, so bind the ones we
	// care about explicitly.
	for _, key := range []string{
		"server.port", "server.log_level",
		"database.url",
		"auth.api_key",
		"llm.gemini_api_key", "llm.model_name", "llm.prompt_template_path",
		"llm.max_cards_per_source", "llm.max_retries", "llm.retry_delay_seconds",
		"raindrop.token", "raindrop.poll_interval_seconds",
		"export.vault_path", "export.learnings_folder",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
