package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("elevprofile-test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Google.BatchSize != 512 || cfg.Google.MaxPoints != 5000 || cfg.Google.MinPoints != 200 {
		t.Errorf("unexpected google defaults %+v", cfg.Google)
	}
	if cfg.GeoAdmin.ChunkSize != 3000 {
		t.Errorf("geoadmin.chunk_size = %d, want 3000", cfg.GeoAdmin.ChunkSize)
	}
	if cfg.Converter.Strategy != StrategyLocal || cfg.Cache.Backend != BackendMemory {
		t.Errorf("unexpected strategy/backend %q/%q", cfg.Converter.Strategy, cfg.Cache.Backend)
	}
	if cfg.Elevation.PreferExistingCoverage != 0.8 {
		t.Errorf("prefer_existing_coverage = %g, want 0.8", cfg.Elevation.PreferExistingCoverage)
	}
	if cfg.Telemetry.ServiceName != "elevprofile-test" {
		t.Errorf("telemetry.service_name = %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ELEVPROFILE_GOOGLE_API_KEY", "secret")
	t.Setenv("ELEVPROFILE_CONVERTER_STRATEGY", "remote")
	t.Setenv("ELEVPROFILE_GEOADMIN_CHUNK_SIZE", "1000")

	cfg, err := Load("elevprofile")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Google.APIKey != "secret" {
		t.Errorf("google.api_key = %q, want secret", cfg.Google.APIKey)
	}
	if cfg.Converter.Strategy != StrategyRemote {
		t.Errorf("converter.strategy = %q, want remote", cfg.Converter.Strategy)
	}
	if cfg.GeoAdmin.ChunkSize != 1000 {
		t.Errorf("geoadmin.chunk_size = %d, want 1000", cfg.GeoAdmin.ChunkSize)
	}
}

func validConfig() Config {
	return Config{
		Server:    ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 30, RequestTimeout: 60},
		Elevation: ElevationConfig{DefaultProvider: "primary", PreferExistingCoverage: 0.8},
		Google:    GoogleConfig{BatchSize: 512, MaxPoints: 5000, MinPoints: 200, Timeout: 15},
		GeoAdmin:  GeoAdminConfig{ChunkSize: 3000, Timeout: 30},
		Converter: ConverterConfig{Strategy: StrategyLocal},
		Cache:     CacheConfig{Backend: BackendMemory},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"batch too large", func(c *Config) { c.Google.BatchSize = 513 }, "google.batch_size"},
		{"max below min", func(c *Config) { c.Google.MaxPoints = 100 }, "google.max_points"},
		{"chunk too large", func(c *Config) { c.GeoAdmin.ChunkSize = 6000 }, "geoadmin.chunk_size"},
		{"coverage zero", func(c *Config) { c.Elevation.PreferExistingCoverage = 0 }, "prefer_existing_coverage"},
		{"unknown provider", func(c *Config) { c.Elevation.DefaultProvider = "bing" }, "default_provider"},
		{"unknown strategy", func(c *Config) { c.Converter.Strategy = "gdal" }, "converter.strategy"},
		{"remote without url", func(c *Config) {
			c.Converter.Strategy = StrategyRemote
			c.Converter.Concurrency = 4
		}, "reframe_url"},
		{"valkey without addr", func(c *Config) { c.Cache.Backend = BackendValkey }, "valkey.addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Cache.Backend = "disk"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"server.port", "cache.backend"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
