// Copyright 2025 Convo Helper Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	// ErrMissingRequiredField is returned when a required configuration field is missing
	ErrMissingRequiredField = errors.New("missing required configuration field")
	// ErrInvalidConfigValue is returned when a configuration value is invalid
	ErrInvalidConfigValue = errors.New("invalid configuration value")
)

// Config represents the complete application configuration
type Config struct {
	Weaviate    WeaviateConfig    `mapstructure:"weaviate"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Suggestion  SuggestionConfig  `mapstructure:"suggestion"`
	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// WeaviateConfig contains the managed vector-search connection settings
type WeaviateConfig struct {
	URL          string `mapstructure:"url"`
	APIKey       string `mapstructure:"api_key"`
	OpenAIKey    string `mapstructure:"openai_key"`
	ClassName    string `mapstructure:"class_name"`
	TargetVector string `mapstructure:"target_vector"`
}

// CredentialsConfig contains the local credential store settings
type CredentialsConfig struct {
	DBPath      string `mapstructure:"db_path"`
	ServiceName string `mapstructure:"service_name"`
}

// SuggestionConfig contains retrieval and generation tuning
type SuggestionConfig struct {
	Limit             int     `mapstructure:"limit"`
	DistanceThreshold float64 `mapstructure:"distance_threshold"`
	Category          string  `mapstructure:"category"`
	TimeoutMs         int     `mapstructure:"timeout_ms"`
	ForceFallback     bool    `mapstructure:"force_fallback"`
	CompletionModel   string  `mapstructure:"completion_model"`
}

// ServerConfig contains the web UI server settings
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// LoadOptions contains options for configuration loading
type LoadOptions struct {
	ConfigPath       string
	Environment      string
	ValidateRequired bool
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over config file values.
func Load(configPath string) (*Config, error) {
	return LoadWithOptions(LoadOptions{
		ConfigPath:       configPath,
		Environment:      GetEnvironment(),
		ValidateRequired: true,
	})
}

// LoadWithOptions loads configuration with additional options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := setConfigFile(v, opts.ConfigPath); err != nil {
		return nil, fmt.Errorf("failed to set config file: %w", err)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CONVO_HELPER")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error if env vars are set
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	setEnvironmentMappings(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if opts.ValidateRequired {
		if err := validateConfig(&config); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Weaviate defaults. The API keys intentionally default to empty and are
	// filled in by the connection provider from the credential store.
	v.SetDefault("weaviate.url", "http://localhost:8080")
	v.SetDefault("weaviate.api_key", "")
	v.SetDefault("weaviate.openai_key", "")
	v.SetDefault("weaviate.class_name", "Filip")
	v.SetDefault("weaviate.target_vector", "replying_to_vector")

	// Credential store defaults
	v.SetDefault("credentials.db_path", "./credentials.db")
	v.SetDefault("credentials.service_name", "weaviate")

	// Suggestion defaults
	v.SetDefault("suggestion.limit", 4)
	v.SetDefault("suggestion.distance_threshold", 0.75)
	v.SetDefault("suggestion.category", "")
	v.SetDefault("suggestion.timeout_ms", 30000)
	v.SetDefault("suggestion.force_fallback", false)
	v.SetDefault("suggestion.completion_model", "gpt-4o")

	// Server defaults
	v.SetDefault("server.port", "8080")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// setConfigFile sets the configuration file path with fallback logic
func setConfigFile(v *viper.Viper, configPath string) error {
	// Check for CONFIG_PATH environment variable
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return fmt.Errorf("config file specified by CONFIG_PATH does not exist: %s", envPath)
		}
		v.SetConfigFile(envPath)
		return nil
	}

	// Use provided config path
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
		return nil
	}

	// Default fallback locations; a missing file is fine, env vars and
	// defaults carry the configuration in that case.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	return nil
}

// setEnvironmentMappings sets explicit environment variable mappings
func setEnvironmentMappings(v *viper.Viper) {
	envMappings := map[string]string{
		"WEAVIATE_URL":        "weaviate.url",
		"WEAVIATE_API_KEY":    "weaviate.api_key",
		"OPENAI_API_KEY":      "weaviate.openai_key",
		"CREDENTIALS_DB_PATH": "credentials.db_path",
		"PORT":                "server.port",
		"LOG_LEVEL":           "logging.level",
		"LOG_FORMAT":          "logging.format",
		"LOG_OUTPUT":          "logging.output",
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}
}

// validateConfig validates the configuration for required fields and valid values
func validateConfig(config *Config) error {
	var errs []ValidationError

	if config.Weaviate.URL == "" {
		errs = append(errs, ValidationError{
			Field:   "weaviate.url",
			Message: "Weaviate URL is required. Set via config file or WEAVIATE_URL environment variable",
		})
	}

	if config.Weaviate.ClassName == "" {
		errs = append(errs, ValidationError{
			Field:   "weaviate.class_name",
			Message: "Weaviate class name is required",
		})
	}

	if config.Suggestion.Limit <= 0 {
		errs = append(errs, ValidationError{
			Field:   "suggestion.limit",
			Message: "limit must be greater than 0",
		})
	}

	if config.Suggestion.DistanceThreshold < 0 {
		errs = append(errs, ValidationError{
			Field:   "suggestion.distance_threshold",
			Message: "distance_threshold must be greater than or equal to 0",
		})
	}

	if config.Suggestion.TimeoutMs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "suggestion.timeout_ms",
			Message: "timeout_ms must be greater than 0",
		})
	}

	if config.Credentials.DBPath == "" {
		errs = append(errs, ValidationError{
			Field:   "credentials.db_path",
			Message: "credential database path is required",
		})
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, config.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, config.Logging.Format) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("log format must be one of: %s", strings.Join(validLogFormats, ", ")),
		})
	}

	if len(errs) > 0 {
		var errorMessages []string
		for _, err := range errs {
			errorMessages = append(errorMessages, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errorMessages, "\n"))
	}

	return nil
}

// MaskSensitiveValues returns a copy of the config with sensitive values masked
func (c *Config) MaskSensitiveValues() *Config {
	masked := *c

	if masked.Weaviate.APIKey != "" {
		masked.Weaviate.APIKey = maskValue(masked.Weaviate.APIKey)
	}
	if masked.Weaviate.OpenAIKey != "" {
		masked.Weaviate.OpenAIKey = maskValue(masked.Weaviate.OpenAIKey)
	}

	return &masked
}

// maskValue masks sensitive values, showing only the first 8 characters
func maskValue(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:8] + strings.Repeat("*", len(value)-8)
}

// contains checks if a slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// GetEnvironment returns the current environment (development, production, etc.)
func GetEnvironment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "development"
}

// IsDevelopment reports whether the process runs in a local development
// context. Deployed single-page builds cannot reach the cross-origin Weaviate
// API at all, so they pin the fallback path; local runs hit the live service.
func IsDevelopment() bool {
	return GetEnvironment() == "development"
}

// WatchConfig enables configuration hot-reloading for development
func WatchConfig(configPath string, callback func(*Config)) error {
	v := viper.New()

	if err := setConfigFile(v, configPath); err != nil {
		return err
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Printf("Config file changed: %s\n", e.Name)

		config, err := LoadWithOptions(LoadOptions{
			ConfigPath:       configPath,
			Environment:      GetEnvironment(),
			ValidateRequired: true,
		})
		if err != nil {
			fmt.Printf("Failed to reload config: %v\n", err)
			return
		}

		callback(config)
	})

	return nil
}
