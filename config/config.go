// Package config loads runtime settings from the environment and agent
// definitions from YAML files. A .env file in the working directory is
// honored when present; credentials default to empty strings so the pipeline
// can still run with a reduced tool set.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/opspilot/opspilot/logging"
	"gopkg.in/yaml.v3"
)

// DefaultRegion is used when AWS_DEFAULT_REGION is unset.
const DefaultRegion = "us-east-1"

// DefaultModelID is the model used by all pipeline agents unless overridden.
const DefaultModelID = "global.anthropic.claude-sonnet-4-5-20250929-v1:0"

// DefaultSystemPrompt substitutes for a missing or malformed agent config.
const DefaultSystemPrompt = "You are a helpful AI assistant that can break down complex tasks and execute them using various tools."

// Settings holds the environment-sourced runtime configuration.
type Settings struct {
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSDefaultRegion   string
	GitHubToken        string
	AnthropicAPIKey    string
	OpenAIAPIKey       string
	ModelID            string
	ListenAddr         string
}

// AWSConfigured reports whether AWS credentials are present.
func (s Settings) AWSConfigured() bool { return s.AWSAccessKeyID != "" }

// GitHubConfigured reports whether a GitHub token is present.
func (s Settings) GitHubConfigured() bool { return s.GitHubToken != "" }

// LoadSettings reads settings from the process environment, first merging a
// .env file if one exists in the working directory.
func LoadSettings() Settings {
	// Missing .env is the common case and not an error.
	_ = godotenv.Load()

	return Settings{
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSDefaultRegion:   getenvDefault("AWS_DEFAULT_REGION", DefaultRegion),
		GitHubToken:        os.Getenv("GITHUB_PERSONAL_ACCESS_TOKEN"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		ModelID:            getenvDefault("OPSPILOT_MODEL_ID", DefaultModelID),
		ListenAddr:         getenvDefault("OPSPILOT_LISTEN_ADDR", ":8501"),
	}
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// AgentConfig is the YAML-declared definition of a single agent.
type AgentConfig struct {
	Name         string `yaml:"name"`
	Model        string `yaml:"model"`
	Description  string `yaml:"description"`
	SystemPrompt string `yaml:"system_prompt" validate:"required"`
}

var validate = validator.New()

// LoadAgentConfig reads and validates an agent definition from a YAML file.
func LoadAgentConfig(path string) (*AgentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent config %s: %w", path, err)
	}

	var cfg AgentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse agent config %s: %w", path, err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate agent config %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadSystemPrompt returns the system prompt declared in the YAML file at
// path. A missing, malformed or incomplete file is logged and replaced by
// DefaultSystemPrompt so the pipeline always has a working prompt.
func LoadSystemPrompt(path string, logger logging.Logger) string {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	cfg, err := LoadAgentConfig(path)
	if err != nil {
		logger.Error("config.system_prompt.fallback", "path", path, "error", err.Error())
		return DefaultSystemPrompt
	}
	return cfg.SystemPrompt
}
