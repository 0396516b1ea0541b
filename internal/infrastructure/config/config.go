package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	FlowStore FlowStoreConfig
	SDLC      SDLCConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// FlowStoreConfig holds the remote template store settings.
// Fetching is disabled unless both URL and APIKey are set.
type FlowStoreConfig struct {
	URL        string        `envconfig:"FLOW_STORE_URL"`
	APIKey     string        `envconfig:"FLOW_STORE_API_KEY"`
	TemplateID string        `envconfig:"BA_TEMPLATE_ID" default:"business-analyst"`
	Timeout    time.Duration `envconfig:"FLOW_STORE_TIMEOUT" default:"10s"`
	Retries    int           `envconfig:"FLOW_STORE_RETRIES" default:"2"`
}

// SDLCConfig holds settings of the Jira and Azure DevOps components.
type SDLCConfig struct {
	AzureDevOpsURL string        `envconfig:"AZURE_DEVOPS_URL" default:"https://dev.azure.com"`
	OpenAIAPIKey   string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel    string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	OpenAIBaseURL  string        `envconfig:"OPENAI_BASE_URL"`
	Timeout        time.Duration `envconfig:"SDLC_TIMEOUT" default:"30s"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Enabled reports whether remote fetching is configured.
func (f FlowStoreConfig) Enabled() bool {
	return f.URL != "" && f.APIKey != ""
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		FlowStore: FlowStoreConfig{
			TemplateID: "business-analyst",
			Timeout:    10 * time.Second,
			Retries:    2,
		},
		SDLC: SDLCConfig{
			AzureDevOpsURL: "https://dev.azure.com",
			OpenAIModel:    "gpt-3.5-turbo",
			Timeout:        30 * time.Second,
		},
	}
}
