package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Extractor ExtractorConfig `yaml:"extractor"`
	RemoteAPI RemoteAPIConfig `yaml:"remote_api"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Events    EventsConfig    `yaml:"events"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port           int           `yaml:"port" envconfig:"SERVER_PORT" default:"10000"`
	APIKey         string        `yaml:"api_key" envconfig:"API_KEY"` // guards /api/v1; empty disables those routes
	ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"15m"`
	HandlerTimeout time.Duration `yaml:"handler_timeout" envconfig:"SERVER_HANDLER_TIMEOUT" default:"6m"`
}

// StorageConfig holds scratch directory configuration.
type StorageConfig struct {
	ScratchPath   string        `yaml:"scratch_path" envconfig:"SCRATCH_PATH" default:"/tmp/dlmaster"`
	MaxAge        time.Duration `yaml:"max_age" envconfig:"SCRATCH_MAX_AGE" default:"1h"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SCRATCH_SWEEP_INTERVAL" default:"10m"`
}

// ExtractorConfig holds yt-dlp invocation settings.
type ExtractorConfig struct {
	Binary              string        `yaml:"binary" envconfig:"YTDLP_PATH" default:"yt-dlp"`
	UserAgent           string        `yaml:"user_agent" envconfig:"EXTRACTOR_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"`
	CookieFile          string        `yaml:"cookie_file" envconfig:"EXTRACTOR_COOKIE_FILE" default:"cookies.txt"`
	ForceIPv4           bool          `yaml:"force_ipv4" envconfig:"EXTRACTOR_FORCE_IPV4" default:"true"`
	NoCheckCertificates bool          `yaml:"no_check_certificates" envconfig:"EXTRACTOR_NO_CHECK_CERTIFICATES" default:"true"`
	InfoTimeout         time.Duration `yaml:"info_timeout" envconfig:"EXTRACTOR_INFO_TIMEOUT" default:"30s"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" envconfig:"EXTRACTOR_DOWNLOAD_TIMEOUT" default:"5m"`
}

// RemoteAPIConfig holds the optional third-party info API. Lookups for URLs on
// Hosts go to the API; downloads always use the local extractor.
type RemoteAPIConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"REMOTE_API_URL"`
	APIKey  string        `yaml:"api_key" envconfig:"REMOTE_API_KEY"`
	Hosts   []string      `yaml:"hosts" envconfig:"REMOTE_API_HOSTS"`
	Timeout time.Duration `yaml:"timeout" envconfig:"REMOTE_API_TIMEOUT" default:"30s"`
}

// Enabled reports whether any host is routed to the remote API.
func (c RemoteAPIConfig) Enabled() bool {
	return c.BaseURL != "" && len(c.Hosts) > 0
}

// RateLimitConfig bounds lookup and download requests. Zero disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" envconfig:"RATE_LIMIT_RPS" default:"5"`
	Burst             int     `yaml:"burst" envconfig:"RATE_LIMIT_BURST" default:"10"`
}

// EventsConfig holds activity log configuration.
type EventsConfig struct {
	RingBufferSize  int    `yaml:"ring_buffer_size" envconfig:"EVENTS_BUFFER_SIZE" default:"500"`
	PersistToSQLite bool   `yaml:"persist_to_sqlite" envconfig:"EVENTS_PERSIST" default:"false"`
	SQLitePath      string `yaml:"sqlite_path" envconfig:"EVENTS_SQLITE_PATH" default:"/data/events.db"`
	RetentionDays   int    `yaml:"retention_days" envconfig:"EVENTS_RETENTION_DAYS" default:"30"`
}

// Load reads configuration from file and environment variables.
// Environment variables and tag defaults override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	cfg.RemoteAPI.Hosts = normalizeHosts(cfg.RemoteAPI.Hosts)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if c.Storage.ScratchPath == "" {
		return fmt.Errorf("SCRATCH_PATH is required")
	}
	if c.Storage.MaxAge <= 0 {
		return fmt.Errorf("SCRATCH_MAX_AGE must be positive")
	}
	if c.Extractor.Binary == "" {
		return fmt.Errorf("YTDLP_PATH is required")
	}
	if c.Extractor.InfoTimeout <= 0 || c.Extractor.DownloadTimeout <= 0 {
		return fmt.Errorf("extractor timeouts must be positive")
	}
	if len(c.RemoteAPI.Hosts) > 0 && c.RemoteAPI.BaseURL == "" {
		return fmt.Errorf("REMOTE_API_URL is required when REMOTE_API_HOSTS is set")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	if c.Events.PersistToSQLite && c.Events.SQLitePath == "" {
		return fmt.Errorf("EVENTS_SQLITE_PATH is required when EVENTS_PERSIST is enabled")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func normalizeHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		h = strings.TrimPrefix(h, "www.")
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}
