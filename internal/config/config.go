package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Completion CompletionConfig `yaml:"completion"`
	Training   TrainingConfig   `yaml:"training"`
	Tailscale  TailscaleConfig  `yaml:"tailscale"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// StorageConfig selects the snapshot store. Driver is "sqlite" or "postgres";
// postgres reads its connection settings from DatabaseConfig.
type StorageConfig struct {
	Driver         string `yaml:"driver"`
	SQLitePath     string `yaml:"sqlite_path"`
	CacheMB        int    `yaml:"cache_mb"`
	MigrationsPath string `yaml:"migrations_path"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// AuthConfig holds the shared API key. An empty key disables the check.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// CompletionConfig points at an OpenAI-compatible chat-completions API.
// Without an API key, programs are built from the fallback templates.
type CompletionConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	Attempts       int     `yaml:"attempts"`
}

// Timeout returns the per-request timeout.
func (c CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GenerationTimeout bounds one program generation: every attempt at the
// per-request timeout plus the 1s, 2s, 4s... backoff between attempts.
func (c CompletionConfig) GenerationTimeout() time.Duration {
	attempts := max(c.Attempts, 1)
	backoff := time.Duration(1<<uint(attempts-1)-1) * time.Second
	return time.Duration(attempts)*c.Timeout() + backoff
}

type TrainingConfig struct {
	PlateIncrement float64 `yaml:"plate_increment"`
	ExercisesPath  string  `yaml:"exercises_path"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix COACHDESK_ and underscore-separated paths:
//
//	COACHDESK_SERVER_HOST, COACHDESK_SERVER_PORT, COACHDESK_SERVER_STATIC_DIR,
//	COACHDESK_STORAGE_DRIVER, COACHDESK_STORAGE_SQLITE_PATH, COACHDESK_STORAGE_CACHE_MB,
//	COACHDESK_DB_HOST, COACHDESK_DB_PORT, COACHDESK_DB_NAME,
//	COACHDESK_DB_USER, COACHDESK_DB_PASSWORD, COACHDESK_DB_SSLMODE,
//	COACHDESK_AUTH_API_KEY,
//	COACHDESK_COMPLETION_BASE_URL, COACHDESK_COMPLETION_API_KEY, COACHDESK_COMPLETION_MODEL,
//	COACHDESK_EXERCISES_PATH, COACHDESK_TAILSCALE_ENABLED, COACHDESK_TAILSCALE_HOSTNAME
//
// OPENAI_API_KEY is used for the completion key when nothing else sets it.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("COACHDESK_SERVER_HOST", &cfg.Server.Host)
	num("COACHDESK_SERVER_PORT", &cfg.Server.Port)
	str("COACHDESK_SERVER_STATIC_DIR", &cfg.Server.StaticDir)

	str("COACHDESK_STORAGE_DRIVER", &cfg.Storage.Driver)
	str("COACHDESK_STORAGE_SQLITE_PATH", &cfg.Storage.SQLitePath)
	num("COACHDESK_STORAGE_CACHE_MB", &cfg.Storage.CacheMB)

	str("COACHDESK_DB_HOST", &cfg.Database.Host)
	num("COACHDESK_DB_PORT", &cfg.Database.Port)
	str("COACHDESK_DB_NAME", &cfg.Database.Name)
	str("COACHDESK_DB_USER", &cfg.Database.User)
	str("COACHDESK_DB_PASSWORD", &cfg.Database.Password)
	str("COACHDESK_DB_SSLMODE", &cfg.Database.SSLMode)

	str("COACHDESK_AUTH_API_KEY", &cfg.Auth.APIKey)

	str("COACHDESK_COMPLETION_BASE_URL", &cfg.Completion.BaseURL)
	str("COACHDESK_COMPLETION_API_KEY", &cfg.Completion.APIKey)
	str("COACHDESK_COMPLETION_MODEL", &cfg.Completion.Model)
	if cfg.Completion.APIKey == "" {
		cfg.Completion.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	str("COACHDESK_EXERCISES_PATH", &cfg.Training.ExercisesPath)

	if v := os.Getenv("COACHDESK_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	str("COACHDESK_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/coachdesk.db"
	}
	if c.Storage.MigrationsPath == "" {
		c.Storage.MigrationsPath = "migrations"
	}
	if c.Completion.TimeoutSeconds == 0 {
		c.Completion.TimeoutSeconds = 90
	}
	if c.Completion.Attempts == 0 {
		c.Completion.Attempts = 1
	}
	if c.Training.PlateIncrement == 0 {
		c.Training.PlateIncrement = 5
	}
	if c.Tailscale.Hostname == "" {
		c.Tailscale.Hostname = "coachdesk"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	switch c.Storage.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("storage.driver must be sqlite or postgres, got %q", c.Storage.Driver)
	}
	if c.Storage.CacheMB < 0 {
		return fmt.Errorf("storage.cache_mb must not be negative")
	}
	if c.Training.PlateIncrement < 0 {
		return fmt.Errorf("training.plate_increment must be positive")
	}
	if c.Completion.Temperature < 0 || c.Completion.Temperature > 2 {
		return fmt.Errorf("completion.temperature must be between 0 and 2")
	}
	if c.Completion.MaxTokens < 0 {
		return fmt.Errorf("completion.max_tokens must not be negative")
	}
	if c.Completion.Attempts < 1 || c.Completion.Attempts > 5 {
		return fmt.Errorf("completion.attempts must be between 1 and 5")
	}
	return nil
}
