package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all kirby configuration.
type Config struct {
	// Session storage
	Session SessionConfig `yaml:"session"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// File discovery
	Files FilesConfig `yaml:"files"`

	// URL fetching
	Fetch FetchConfig `yaml:"fetch"`
}

// SessionConfig configures where collection histories live.
type SessionConfig struct {
	Dir      string `yaml:"dir"`
	Backend  string `yaml:"backend"`  // file, sqlite
	Database string `yaml:"database"` // sqlite file name inside Dir
}

// Backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// ValidBackends lists the supported history backends.
var ValidBackends = []string{BackendFile, BackendSQLite}

// FetchConfig configures `url parse` and URL context for `ask`.
type FetchConfig struct {
	Timeout     string `yaml:"timeout"`
	MaxBytes    int64  `yaml:"max_bytes"`
	Concurrency int    `yaml:"concurrency"`
	UserAgent   string `yaml:"user_agent"`
}

// DefaultStateDir returns ~/.kirby, or .kirby when the home directory is unknown.
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kirby"
	}
	return filepath.Join(home, ".kirby")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultStateDir(), "config.yaml")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Dir:      filepath.Join(DefaultStateDir(), "sessions"),
			Backend:  BackendFile,
			Database: "history.db",
		},

		LLM: DefaultLLMConfig(),

		Logging: LoggingConfig{
			Level:     "info",
			DebugMode: false,
		},

		Files: DefaultFilesConfig(),

		Fetch: FetchConfig{
			Timeout:     "30s",
			MaxBytes:    2 * 1024 * 1024,
			Concurrency: 4,
			UserAgent:   "Mozilla/5.0 (compatible; kirby/1.0)",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Defaults if config file doesn't exist
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("KIRBY_SESSION_DIR"); dir != "" {
		c.Session.Dir = dir
	}
	if backend := os.Getenv("KIRBY_HISTORY_BACKEND"); backend != "" {
		c.Session.Backend = strings.ToLower(strings.TrimSpace(backend))
	}

	// Provider selection, then the key for whichever provider won
	if provider := os.Getenv("AI_CLIENT"); provider != "" {
		c.LLM.Provider = strings.ToLower(strings.TrimSpace(provider))
	}
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.LLM.APIKey = key
		}
	case ProviderGemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			c.LLM.APIKey = key
		}
	}
	if model := os.Getenv("KIRBY_MODEL"); model != "" {
		c.LLM.Model = model
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetFetchTimeout returns the per-URL fetch timeout as a duration.
func (c *Config) GetFetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Validate validates the configuration. LLM settings are checked separately
// when a client is built, so commands that never call a model work without
// an API key.
func (c *Config) Validate() error {
	if c.Session.Dir == "" {
		return fmt.Errorf("session directory not configured")
	}
	if !contains(ValidBackends, c.Session.Backend) {
		return fmt.Errorf("invalid history backend: %s (valid: %v)", c.Session.Backend, ValidBackends)
	}
	if c.Session.Backend == BackendSQLite && c.Session.Database == "" {
		return fmt.Errorf("sqlite backend requires session.database")
	}
	if c.LLM.Provider != "" && !contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	if c.Files.MaxFileBytes <= 0 {
		return fmt.Errorf("files.max_file_bytes must be positive")
	}
	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be positive")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
