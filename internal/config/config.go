// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.tripal/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Model: provider selection, model name, temperature, language
//   - Agent: tool-round cap, streaming buffer
//   - Travel APIs: TripAdvisor and Rakuten Travel credentials
//   - Storage: PostgreSQL connection (see storage.go)
//   - Server: listen address
//   - Observability: OTLP trace export
//
// Sensitive values (passwords, API keys) are never logged; MarshalJSON masks
// them. Validation lives in validation.go and uses sentinel errors checked
// with errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Model provider identifiers used in Config.Provider.
const (
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
	ProviderOllama   = "ollama"
)

// Defaults for agent behavior.
const (
	// DefaultMaxToolRounds bounds how many tool-call rounds a single turn
	// may run before the turn is failed. The loop itself has no natural
	// upper bound: a model that keeps requesting tools would otherwise
	// spin forever.
	DefaultMaxToolRounds = 5

	// DefaultFragmentBuffer is the capacity of the per-turn fragment
	// channel between the agent producer and the transport consumer.
	DefaultFragmentBuffer = 16
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields, update MarshalJSON.
type Config struct {
	// Model provider configuration
	Provider    string  `mapstructure:"provider" json:"provider"`       // "openai" (default), "googleai", "ollama"
	ModelName   string  `mapstructure:"model_name" json:"model_name"`   // e.g. "gpt-4o-mini", "gemini-2.5-flash"
	Temperature float32 `mapstructure:"temperature" json:"temperature"` //
	Language    string  `mapstructure:"language" json:"language"`       // response language preference ("auto" = follow the user)

	// OpenAI-compatible endpoint (also covers Azure OpenAI deployments)
	OpenAIBaseURL string `mapstructure:"openai_base_url" json:"openai_base_url"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key" json:"openai_api_key"` // SENSITIVE: masked in MarshalJSON

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Agent behavior
	MaxToolRounds  int `mapstructure:"max_tool_rounds" json:"max_tool_rounds"`
	FragmentBuffer int `mapstructure:"fragment_buffer" json:"fragment_buffer"`

	// Travel data providers
	TripAdvisorAPIKey  string `mapstructure:"tripadvisor_api_key" json:"tripadvisor_api_key"` // SENSITIVE: masked in MarshalJSON
	TripAdvisorBaseURL string `mapstructure:"tripadvisor_base_url" json:"tripadvisor_base_url"`
	RakutenAppID       string `mapstructure:"rakuten_app_id" json:"rakuten_app_id"` // SENSITIVE: masked in MarshalJSON
	RakutenAffiliateID string `mapstructure:"rakuten_affiliate_id" json:"rakuten_affiliate_id"`
	RakutenBaseURL     string `mapstructure:"rakuten_base_url" json:"rakuten_base_url"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Server configuration
	ServerAddr string `mapstructure:"server_addr" json:"server_addr"`

	// Observability configuration
	Otel OtelConfig `mapstructure:"otel" json:"otel"`
}

// OtelConfig configures OTLP trace export. Empty endpoint disables tracing.
type OtelConfig struct {
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"` // e.g. "localhost:4318"
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Environment string `mapstructure:"environment" json:"environment"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".tripal")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // also support current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error; defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL, when set, overrides the individual postgres_* values.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// Model defaults
	viper.SetDefault("provider", ProviderOpenAI)
	viper.SetDefault("model_name", "gpt-4o-mini")
	viper.SetDefault("temperature", 1.0)
	viper.SetDefault("language", "auto")

	// Ollama defaults
	viper.SetDefault("ollama_host", "http://localhost:11434")

	// Agent defaults
	viper.SetDefault("max_tool_rounds", DefaultMaxToolRounds)
	viper.SetDefault("fragment_buffer", DefaultFragmentBuffer)

	// Travel API defaults
	viper.SetDefault("tripadvisor_base_url", "https://api.content.tripadvisor.com/api/v1")
	viper.SetDefault("rakuten_base_url", "https://app.rakuten.co.jp/services/api")

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "tripal")
	viper.SetDefault("postgres_password", "tripal_dev_password")
	viper.SetDefault("postgres_db_name", "tripal")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Server defaults
	viper.SetDefault("server_addr", "127.0.0.1:8000")

	// Observability defaults (endpoint empty = tracing disabled)
	viper.SetDefault("otel.service_name", "tripal")
	viper.SetDefault("otel.environment", "dev")
}

// bindEnvVariables binds environment variables explicitly.
func bindEnvVariables() {
	// Hardcoded keys can't fail to bind; a failure here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "TRIPAL_PROVIDER")
	mustBind("model_name", "TRIPAL_MODEL_NAME")
	mustBind("language", "TRIPAL_LANGUAGE")
	mustBind("ollama_host", "TRIPAL_OLLAMA_HOST")
	mustBind("server_addr", "TRIPAL_SERVER_ADDR")

	// Secrets come from the conventional provider variables.
	mustBind("openai_api_key", "OPENAI_API_KEY")
	mustBind("openai_base_url", "OPENAI_BASE_URL")
	mustBind("tripadvisor_api_key", "TRIPADVISOR_API_KEY")
	mustBind("rakuten_app_id", "RAKUTEN_APPLICATION_ID")
	mustBind("rakuten_affiliate_id", "RAKUTEN_AFFILIATE_ID")

	// NOTE: GEMINI_API_KEY is read directly by Genkit's googlegenai plugin,
	// not via Viper. Validation checks its presence when the provider is
	// "googleai".
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks avoid accidental substring matches against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Short secrets are fully
// masked; longer ones keep the first and last two characters for debugging.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + maskedValue + s[len(s)-2:]
}

// MarshalJSON masks sensitive fields so a dumped Config never leaks secrets.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config // avoid recursion
	masked := alias(c)
	masked.OpenAIAPIKey = maskSecret(c.OpenAIAPIKey)
	masked.TripAdvisorAPIKey = maskSecret(c.TripAdvisorAPIKey)
	masked.RakutenAppID = maskSecret(c.RakutenAppID)
	masked.PostgresPassword = maskSecret(c.PostgresPassword)

	return json.Marshal(masked)
}
