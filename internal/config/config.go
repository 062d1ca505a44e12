package config

// Config holds all application configuration, organized into logical groups.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Raindrop RaindropConfig `mapstructure:"raindrop"`
	Export   ExportConfig   `mapstructure:"export"`
}

// ServerConfig contains server-related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig holds the static API key for this single-tenant service.
type AuthConfig struct {
	APIKey string `mapstructure:"api_key" validate:"required,min=16"`
}

// LLMConfig contains card-drafting collaborator settings. When the API key
// is empty the service runs without a generator and card generation requests
// are rejected as unavailable.
type LLMConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key"`
	ModelName          string `mapstructure:"model_name"`
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
	MaxCardsPerSource  int    `mapstructure:"max_cards_per_source" validate:"omitempty,gt=0"`
	MaxRetries         int    `mapstructure:"max_retries" validate:"omitempty,gte=0"`
	RetryDelaySeconds  int    `mapstructure:"retry_delay_seconds" validate:"omitempty,gt=0"`
}

// RaindropConfig contains Raindrop.io highlight import settings. An empty
// token disables the integration; a positive poll interval additionally
// starts the background import runner.
type RaindropConfig struct {
	Token               string `mapstructure:"token"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds" validate:"omitempty,gte=0"`
}

// ExportConfig contains Obsidian markdown export settings. An empty vault
// path disables export endpoints.
type ExportConfig struct {
	VaultPath       string `mapstructure:"vault_path"`
	LearningsFolder string `mapstructure:"learnings_folder"`
}
