package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	API       APIConfig
	Database  DatabaseConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Scheduler SchedulerConfig
	TLS       TLSConfig
	Copy      CopyConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	AllowedHosts    []string      `env:"ALLOWED_HOSTS" envSeparator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL"`
	Token   string        `env:"API_TOKEN"`
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
}

type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DB_DSN" envDefault:"marketplace.db"`
}

type SecurityConfig struct {
	AppSecret    string        `env:"APP_SECRET"`
	FormTokenTTL time.Duration `env:"FORM_TOKEN_TTL" envDefault:"30m"`
}

type RateLimitConfig struct {
	SubmitPerSecond float64       `env:"SUBMIT_RATE_PER_SEC" envDefault:"1"`
	SubmitBurst     int           `env:"SUBMIT_BURST" envDefault:"5"`
	IdleTTL         time.Duration `env:"SUBMIT_RATE_IDLE_TTL" envDefault:"10m"`
}

type SchedulerConfig struct {
	Enabled       bool          `env:"SCHEDULER_ENABLED" envDefault:"true"`
	ScheduleTimes []string      `env:"SCHEDULER_TIMES" envSeparator:"," envDefault:"03:00"`
	WorkerCount   int           `env:"SCHEDULER_WORKERS" envDefault:"2"`
	JobDelay      time.Duration `env:"SCHEDULER_JOB_DELAY" envDefault:"0s"`
	QueueSize     int           `env:"SCHEDULER_QUEUE_SIZE" envDefault:"100"`
	RunOnStartup  bool          `env:"SCHEDULER_RUN_ON_STARTUP" envDefault:"false"`
}

type TLSConfig struct {
	Enabled      bool   `env:"TLS_ENABLED" envDefault:"false"`
	CertPath     string `env:"TLS_CERT_PATH"`
	KeyPath      string `env:"TLS_KEY_PATH"`
	RedirectHTTP bool   `env:"TLS_REDIRECT_HTTP" envDefault:"false"`
}

type CopyConfig struct {
	File string `env:"COPY_FILE"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

type TelemetryConfig struct {
	Enabled      bool   `env:"OTEL_ENABLED" envDefault:"false"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"marketplace"`
	Environment  string `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_ENDPOINT" envDefault:"localhost:4317"`
	MetricsPort  string `env:"METRICS_PORT" envDefault:"9090"`
}

// LoadEnvFile loads variables from path into the process environment
// without overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Server.AllowedHosts = cleanList(cfg.Server.AllowedHosts)
	cfg.Scheduler.ScheduleTimes = cleanList(cfg.Scheduler.ScheduleTimes)
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and cross-field constraints.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.Security.AppSecret == "" {
		return fmt.Errorf("APP_SECRET is required")
	}
	if len(c.Security.AppSecret) < 32 {
		return fmt.Errorf("APP_SECRET must be at least 32 bytes")
	}
	if c.Security.FormTokenTTL <= 0 {
		return fmt.Errorf("FORM_TOKEN_TTL must be positive")
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	if c.RateLimit.SubmitPerSecond < 0 || c.RateLimit.SubmitBurst < 0 {
		return fmt.Errorf("SUBMIT_RATE_PER_SEC and SUBMIT_BURST must not be negative")
	}

	if c.Scheduler.Enabled {
		if len(c.Scheduler.ScheduleTimes) == 0 {
			return fmt.Errorf("SCHEDULER_TIMES is required when SCHEDULER_ENABLED=true")
		}
		if c.Scheduler.WorkerCount <= 0 {
			return fmt.Errorf("SCHEDULER_WORKERS must be positive")
		}
	}

	if c.TLS.Enabled {
		if c.TLS.CertPath == "" {
			return fmt.Errorf("TLS_CERT_PATH is required when TLS_ENABLED=true")
		}
		if c.TLS.KeyPath == "" {
			return fmt.Errorf("TLS_KEY_PATH is required when TLS_ENABLED=true")
		}
	}

	return nil
}

// Addr returns the listen address of the main server.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func cleanList(in []string) []string {
	var out []string
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
