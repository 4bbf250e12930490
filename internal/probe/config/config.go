package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// API selects which request surfaces are exercised.
type API string

const (
	APIDirect API = "direct"
	APIOpenAI API = "openai"
	APIBoth   API = "both"
)

// ParseAPI parses an API selector value.
func ParseAPI(s string) (API, error) {
	switch a := API(strings.ToLower(strings.TrimSpace(s))); a {
	case APIDirect, APIOpenAI, APIBoth:
		return a, nil
	default:
		return "", fmt.Errorf("invalid api: %q (expected direct, openai or both)", s)
	}
}

// Includes reports whether the selector enables the given surface.
func (a API) Includes(target API) bool {
	return a == APIBoth || a == target
}

// Config holds the settings for a probe run
type Config struct {
	Model        string `toml:"model" mapstructure:"model"`
	Prompt       string `toml:"prompt" mapstructure:"prompt"`
	Host         string `toml:"host" mapstructure:"host"`
	Port         string `toml:"port" mapstructure:"port"`
	API          API    `toml:"api" mapstructure:"api"`
	Token        string `toml:"token" mapstructure:"token"` // Placeholder; the server does not check it
	SystemPrompt string `toml:"system_prompt" mapstructure:"system_prompt"`
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig() *Config {
	return &Config{
		Model:        "tinyllama",
		Prompt:       "Hello, what can you do?",
		Host:         "localhost",
		Port:         "11434",
		API:          APIBoth,
		Token:        "ollama",
		SystemPrompt: "You are a helpful assistant.",
	}
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	api, err := ParseAPI(string(config.API))
	if err != nil {
		return nil, err
	}
	config.API = api

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if strings.TrimSpace(c.Prompt) == "" {
		return fmt.Errorf("prompt cannot be empty")
	}
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("host cannot be empty")
	}
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %q (expected a number between 1 and 65535)", c.Port)
	}
	if _, err := ParseAPI(string(c.API)); err != nil {
		return err
	}
	return nil
}

// DirectURL returns the native chat endpoint
func (c *Config) DirectURL() string {
	return "http://" + net.JoinHostPort(c.Host, c.Port) + "/api/chat"
}

// OpenAIBaseURL returns the base URL of the OpenAI-compatible surface
func (c *Config) OpenAIBaseURL() string {
	return "http://" + net.JoinHostPort(c.Host, c.Port) + "/v1"
}
