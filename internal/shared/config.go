package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Display DisplayConfig `toml:"display"`
	Logging LoggingConfig `toml:"logging"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	BaseURL           string   `toml:"base_url"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
	UserAgent         string   `toml:"user_agent"`
}

// StorageConfig contains the durable client storage (SQLite) settings.
type StorageConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// DisplayConfig contains presentation defaults.
type DisplayConfig struct {
	Timezone      string  `toml:"timezone"`
	PageSize      int     `toml:"page_size"`
	MaxConfidence float64 `toml:"max_confidence"`
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	Level   string `toml:"level"`
	TUIFile string `toml:"tui_file"`
}

// Duration wraps [time.Duration] so TOML strings like "30s" decode directly.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports settings the client can't run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is empty", ErrInvalidConfig)
	}
	if c.Display.PageSize <= 0 || c.Display.PageSize > 100 {
		return fmt.Errorf("%w: display.page_size must be between 1 and 100", ErrInvalidConfig)
	}
	if c.Display.MaxConfidence <= 0 {
		return fmt.Errorf("%w: display.max_confidence must be positive", ErrInvalidConfig)
	}
	return nil
}

// ApplyEnv loads .env (if present) and overrides config values from EPGCTL_* variables.
//
// Variables already set in the environment win over .env entries.
func ApplyEnv(c *Config, envFiles ...string) {
	_ = godotenv.Load(envFiles...)

	if v := os.Getenv("EPGCTL_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("EPGCTL_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.API.Timeout = Duration{d}
		}
	}
	if v := os.Getenv("EPGCTL_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("EPGCTL_TIMEZONE"); v != "" {
		c.Display.Timezone = v
	}
	if v := os.Getenv("EPGCTL_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Display.PageSize = n
		}
	}
	if v := os.Getenv("EPGCTL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}
