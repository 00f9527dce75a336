package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	OneMap    OneMapConfig    `mapstructure:"onemap"`
	Cache     CacheConfig     `mapstructure:"cache"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	BodyLimit    int    `mapstructure:"body_limit"`
	CORSOrigins  string `mapstructure:"cors_origins"`
}

type OneMapConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Token     string `mapstructure:"token"`
	Buffer    int    `mapstructure:"buffer"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// Timeout returns the address lookup bound.
func (o OneMapConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutMS) * time.Millisecond
}

// Cache drivers.
const (
	CacheValkey = "valkey"
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

type CacheConfig struct {
	Driver     string        `mapstructure:"driver"`
	Addr       string        `mapstructure:"addr"`
	Prefix     string        `mapstructure:"prefix"`
	AddressTTL time.Duration `mapstructure:"address_ttl"`
	LocalSize  int           `mapstructure:"local_size"`
	LocalTTL   time.Duration `mapstructure:"local_ttl"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Catalog sources.
const (
	CatalogEmbedded = "embedded"
	CatalogPostgres = "postgres"
)

type CatalogConfig struct {
	Source string `mapstructure:"source"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"`
	Enabled     bool   `mapstructure:"enabled"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.body_limit", 1<<20)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("onemap.base_url", "https://www.onemap.gov.sg")
	v.SetDefault("onemap.token", "")
	v.SetDefault("onemap.buffer", 40)
	v.SetDefault("onemap.timeout_ms", 5000)
	v.SetDefault("cache.driver", CacheMemory)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.prefix", "sgrent:")
	v.SetDefault("cache.address_ttl", 24*time.Hour)
	v.SetDefault("cache.local_size", 10000)
	v.SetDefault("cache.local_ttl", 10*time.Minute)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "sgrent")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "sgrent")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("catalog.source", CatalogEmbedded)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "rent-quotes")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SGRENT_ONEMAP_TOKEN → onemap.token
	v.SetEnvPrefix("SGRENT")
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
	if c.Server.BodyLimit <= 0 {
		errs = append(errs, "server.body_limit must be positive")
	}

	if u, err := url.Parse(c.OneMap.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("onemap.base_url must be an absolute URL, got %q", c.OneMap.BaseURL))
	}
	if c.OneMap.Buffer <= 0 {
		errs = append(errs, "onemap.buffer must be positive")
	}
	if c.OneMap.TimeoutMS <= 0 {
		errs = append(errs, "onemap.timeout_ms must be positive")
	}

	switch c.Cache.Driver {
	case CacheMemory:
	case CacheValkey, CacheRedis:
		if c.Cache.Addr == "" {
			errs = append(errs, "cache.addr is required for driver "+c.Cache.Driver)
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.driver must be valkey, redis or memory, got %q", c.Cache.Driver))
	}
	if c.Cache.AddressTTL <= 0 {
		errs = append(errs, "cache.address_ttl must be positive")
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}

	switch c.Catalog.Source {
	case CatalogEmbedded:
	case CatalogPostgres:
		if !c.Database.Enabled {
			errs = append(errs, "catalog.source postgres requires database.enabled")
		}
	default:
		errs = append(errs, fmt.Sprintf("catalog.source must be embedded or postgres, got %q", c.Catalog.Source))
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		errs = append(errs, "telemetry.endpoint is required when telemetry is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
