// Package config holds runtime configuration and loads stored credentials.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appDirName           = "chatbot-go"
	contextFileName      = "context.json"
	conversationsDirName = "conversations"
)

// credentialFileNames are tried in order inside the data directory.
var credentialFileNames = []string{"config.json", "config.yaml", "config.yml"}

// ErrNoCredentials is returned when no credential file exists.
var ErrNoCredentials = errors.New("credential file not found")

// Config holds all runtime configuration for the chatbot.
type Config struct {
	Provider     string
	Model        string
	APIKey       string
	BaseURL      string
	DataDir      string
	SystemPrompt string
	Stream       bool
	Timeout      time.Duration
	Verbose      bool
	NoColor      bool
}

// DefaultConfig returns a baseline configuration without side effects.
// The data directory is the per-user config directory when it can be
// resolved, and the working directory otherwise.
func DefaultConfig() Config {
	dataDir := "."
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		dataDir = filepath.Join(dir, appDirName)
	}
	return Config{
		Provider: "openai",
		DataDir:  dataDir,
	}
}

// Normalize sanitizes configuration values and applies defaults.
func Normalize(cfg Config) Config {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	cfg.SystemPrompt = strings.TrimSpace(cfg.SystemPrompt)
	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}
	return cfg
}

// ContextPath is the file holding the cross-session context.
func (c Config) ContextPath() string {
	return filepath.Join(c.DataDir, contextFileName)
}

// ConversationsDir is the directory holding per-session archives.
func (c Config) ConversationsDir() string {
	return filepath.Join(c.DataDir, conversationsDirName)
}

// CredentialsPath is the primary credential file location, used in
// messages telling the user what to create.
func (c Config) CredentialsPath() string {
	return filepath.Join(c.DataDir, credentialFileNames[0])
}

// Credentials mirrors the credential file.
type Credentials struct {
	OpenAIAPIKey    string `json:"openai_api_key" yaml:"openai_api_key"`
	AnthropicAPIKey string `json:"anthropic_api_key" yaml:"anthropic_api_key"`
	BaseURL         string `json:"base_url" yaml:"base_url"`
	Model           string `json:"model" yaml:"model"`
}

// APIKey returns the key stored for provider.
func (c Credentials) APIKey(provider string) string {
	if strings.EqualFold(provider, "anthropic") {
		return strings.TrimSpace(c.AnthropicAPIKey)
	}
	return strings.TrimSpace(c.OpenAIAPIKey)
}

// LoadCredentials reads the first credential file found in dir. It returns
// the path it read. When none exists the error wraps ErrNoCredentials.
func LoadCredentials(dir string) (Credentials, string, error) {
	for _, name := range credentialFileNames {
		path := filepath.Join(dir, name)
		b, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Credentials{}, path, fmt.Errorf("read %s: %w", path, err)
		}
		creds, err := decodeCredentials(name, b)
		if err != nil {
			return Credentials{}, path, fmt.Errorf("parse %s: %w", path, err)
		}
		return creds, path, nil
	}
	return Credentials{}, "", fmt.Errorf("%w in %s", ErrNoCredentials, dir)
}

// decodeCredentials picks the decoder from the file extension. yaml.v3
// rejects some valid JSON (escaped slashes, duplicate keys), so .json files
// go through encoding/json.
func decodeCredentials(name string, b []byte) (Credentials, error) {
	var creds Credentials
	if strings.EqualFold(filepath.Ext(name), ".json") {
		err := json.Unmarshal(b, &creds)
		return creds, err
	}
	err := yaml.Unmarshal(b, &creds)
	return creds, err
}

// Env holds the provider values read from the environment.
type Env struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Resolve fills APIKey, BaseURL, and Model on cfg. Every value follows the
// same precedence: what cfg already holds (from a flag), then the
// credential file in cfg.DataDir, then env. A missing API key is an error;
// BaseURL and Model may stay empty.
func Resolve(cfg Config, env Env) (Config, error) {
	creds, path, err := LoadCredentials(cfg.DataDir)
	if err != nil && !errors.Is(err, ErrNoCredentials) {
		return cfg, err
	}

	cfg.APIKey = firstNonEmpty(cfg.APIKey, creds.APIKey(cfg.Provider), env.APIKey)
	cfg.BaseURL = firstNonEmpty(cfg.BaseURL, creds.BaseURL, env.BaseURL)
	cfg.Model = firstNonEmpty(cfg.Model, creds.Model, env.Model)
	if cfg.APIKey != "" {
		return cfg, nil
	}

	if path == "" {
		return cfg, fmt.Errorf("config file %q not found; create it with your %s API key", cfg.CredentialsPath(), cfg.Provider)
	}
	return cfg, fmt.Errorf("no %s API key in %s", cfg.Provider, path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
