package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Elevation ElevationConfig `mapstructure:"elevation"`
	Google    GoogleConfig    `mapstructure:"google"`
	GeoAdmin  GeoAdminConfig  `mapstructure:"geoadmin"`
	Converter ConverterConfig `mapstructure:"converter"`
	Cache     CacheConfig     `mapstructure:"cache"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	ReadTimeout    int `mapstructure:"read_timeout"`
	WriteTimeout   int `mapstructure:"write_timeout"`
	RequestTimeout int `mapstructure:"request_timeout"`
	RateLimit      int `mapstructure:"rate_limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ElevationConfig struct {
	DefaultProvider        string  `mapstructure:"default_provider"`
	PreferExistingCoverage float64 `mapstructure:"prefer_existing_coverage"`
}

type GoogleConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	BatchSize int    `mapstructure:"batch_size"`
	MaxPoints int    `mapstructure:"max_points"`
	MinPoints int    `mapstructure:"min_points"`
	Timeout   int    `mapstructure:"timeout"`
}

type GeoAdminConfig struct {
	ProfileURL string `mapstructure:"profile_url"`
	ChunkSize  int    `mapstructure:"chunk_size"`
	Timeout    int    `mapstructure:"timeout"`
}

// Converter strategies.
const (
	StrategyLocal  = "local"
	StrategyRemote = "remote"
	StrategyProj   = "proj"
)

type ConverterConfig struct {
	Strategy          string  `mapstructure:"strategy"`
	ReframeURL        string  `mapstructure:"reframe_url"`
	Concurrency       int     `mapstructure:"concurrency"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Timeout           int     `mapstructure:"timeout"`
}

// Cache backends.
const (
	BackendMemory = "memory"
	BackendValkey = "valkey"
)

type CacheConfig struct {
	Backend    string `mapstructure:"backend"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Seconds converts an integer number of seconds from the config into a Duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.request_timeout", 60)
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("elevation.default_provider", "primary")
	v.SetDefault("elevation.prefer_existing_coverage", 0.8)
	v.SetDefault("google.base_url", "https://maps.googleapis.com/maps/api/elevation/json")
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.batch_size", 512)
	v.SetDefault("google.max_points", 5000)
	v.SetDefault("google.min_points", 200)
	v.SetDefault("google.timeout", 15)
	v.SetDefault("geoadmin.profile_url", "https://api3.geo.admin.ch/rest/services/profile.json")
	v.SetDefault("geoadmin.chunk_size", 3000)
	v.SetDefault("geoadmin.timeout", 30)
	v.SetDefault("converter.strategy", StrategyLocal)
	v.SetDefault("converter.reframe_url", "https://geodesy.geo.admin.ch/reframe")
	v.SetDefault("converter.concurrency", 8)
	v.SetDefault("converter.requests_per_second", 0)
	v.SetDefault("converter.timeout", 10)
	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.ttl_seconds", 0)
	v.SetDefault("nats.url", "")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: ELEVPROFILE_GOOGLE_API_KEY → google.api_key
	v.SetEnvPrefix("ELEVPROFILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}

	switch strings.ToLower(c.Elevation.DefaultProvider) {
	case "primary", "regional", "google", "geoadmin":
	default:
		errs = append(errs, fmt.Sprintf("elevation.default_provider must be primary or regional, got %q", c.Elevation.DefaultProvider))
	}
	if cov := c.Elevation.PreferExistingCoverage; cov <= 0 || cov > 1 {
		errs = append(errs, fmt.Sprintf("elevation.prefer_existing_coverage must be in (0,1], got %g", cov))
	}

	if c.Google.BatchSize < 1 || c.Google.BatchSize > 512 {
		errs = append(errs, fmt.Sprintf("google.batch_size must be 1-512, got %d", c.Google.BatchSize))
	}
	if c.Google.MinPoints < 2 {
		errs = append(errs, "google.min_points must be at least 2")
	}
	if c.Google.MaxPoints < c.Google.MinPoints {
		errs = append(errs, "google.max_points must not be below google.min_points")
	}
	if c.Google.Timeout <= 0 {
		errs = append(errs, "google.timeout must be positive")
	}

	if c.GeoAdmin.ChunkSize < 2 || c.GeoAdmin.ChunkSize > 5000 {
		errs = append(errs, fmt.Sprintf("geoadmin.chunk_size must be 2-5000, got %d", c.GeoAdmin.ChunkSize))
	}
	if c.GeoAdmin.Timeout <= 0 {
		errs = append(errs, "geoadmin.timeout must be positive")
	}

	switch c.Converter.Strategy {
	case StrategyLocal, StrategyProj:
	case StrategyRemote:
		if c.Converter.ReframeURL == "" {
			errs = append(errs, "converter.reframe_url is required for the remote strategy")
		}
		if c.Converter.Concurrency <= 0 {
			errs = append(errs, "converter.concurrency must be positive")
		}
		if c.Converter.RequestsPerSecond < 0 {
			errs = append(errs, "converter.requests_per_second must not be negative")
		}
	default:
		errs = append(errs, fmt.Sprintf("converter.strategy must be local, remote or proj, got %q", c.Converter.Strategy))
	}

	switch c.Cache.Backend {
	case BackendMemory:
	case BackendValkey:
		if c.Valkey.Addr == "" {
			errs = append(errs, "valkey.addr is required when cache.backend is valkey")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.backend must be memory or valkey, got %q", c.Cache.Backend))
	}

	if c.Telemetry.Enabled && c.Telemetry.TempoAddr == "" {
		errs = append(errs, "telemetry.tempo_addr is required when telemetry is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
