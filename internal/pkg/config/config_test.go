package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("sgrent-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.OneMap.Buffer != 40 || cfg.OneMap.Timeout() != 5*time.Second {
		t.Errorf("unexpected onemap defaults %+v", cfg.OneMap)
	}
	if cfg.Cache.Driver != CacheMemory || cfg.Cache.AddressTTL != 24*time.Hour {
		t.Errorf("unexpected cache defaults %+v", cfg.Cache)
	}
	if cfg.Catalog.Source != CatalogEmbedded {
		t.Errorf("expected embedded catalog, got %s", cfg.Catalog.Source)
	}
	if cfg.Telemetry.ServiceName != "sgrent-test" {
		t.Errorf("expected service name sgrent-test, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SGRENT_ONEMAP_TOKEN", "secret")
	t.Setenv("SGRENT_CACHE_DRIVER", "redis")
	t.Setenv("SGRENT_CACHE_ADDRESS_TTL", "1h")
	t.Setenv("SGRENT_SERVER_PORT", "9090")

	cfg, err := Load("sgrent-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OneMap.Token != "secret" {
		t.Errorf("expected token from env, got %q", cfg.OneMap.Token)
	}
	if cfg.Cache.Driver != CacheRedis || cfg.Cache.AddressTTL != time.Hour {
		t.Errorf("unexpected cache config %+v", cfg.Cache)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("SGRENT_CACHE_DRIVER", "memcached")

	_, err := Load("sgrent-test")
	if err == nil || !strings.Contains(err.Error(), "cache.driver") {
		t.Fatalf("expected cache.driver error, got %v", err)
	}
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10, BodyLimit: 1024},
		OneMap:   OneMapConfig{BaseURL: "https://www.onemap.gov.sg", Buffer: 40, TimeoutMS: 5000},
		Cache:    CacheConfig{Driver: CacheMemory, AddressTTL: time.Hour},
		Catalog:  CatalogConfig{Source: CatalogEmbedded},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "sgrent", DBName: "sgrent"},
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]func(c *Config){
		"server.port":          func(c *Config) { c.Server.Port = 0 },
		"onemap.base_url":      func(c *Config) { c.OneMap.BaseURL = "onemap" },
		"onemap.timeout_ms":    func(c *Config) { c.OneMap.TimeoutMS = 0 },
		"cache.addr":           func(c *Config) { c.Cache.Driver = CacheValkey; c.Cache.Addr = "" },
		"requires database":    func(c *Config) { c.Catalog.Source = CatalogPostgres },
		"database.user":        func(c *Config) { c.Database.Enabled = true; c.Database.User = "" },
		"nats.url":             func(c *Config) { c.NATS.Enabled = true },
		"telemetry.endpoint":   func(c *Config) { c.Telemetry.Enabled = true },
		"catalog.source must":  func(c *Config) { c.Catalog.Source = "csv" },
		"cache.address_ttl":    func(c *Config) { c.Cache.AddressTTL = 0 },
		"server.body_limit":    func(c *Config) { c.Server.BodyLimit = -1 },
		"server.read_timeout":  func(c *Config) { c.Server.ReadTimeout = 0 },
		"server.write_timeout": func(c *Config) { c.Server.WriteTimeout = 0 },
	}
	for want, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("%s: expected error mentioning it, got %v", want, err)
		}
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = -1
	cfg.OneMap.Buffer = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "config validation failed:") ||
		!strings.Contains(err.Error(), "server.port") || !strings.Contains(err.Error(), "onemap.buffer") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "sgrent", Password: "p@ss", DBName: "sgrent", SSLMode: "disable"}
	if got := d.DSN(); got != "postgres://sgrent:p%40ss@db:5432/sgrent?sslmode=disable" {
		t.Errorf("unexpected dsn %s", got)
	}
}
