package bootstrap

import (
	"testing"

	"github.com/samirrijal/elevprofile/internal/adapters/lv95"
	"github.com/samirrijal/elevprofile/internal/adapters/memory"
	"github.com/samirrijal/elevprofile/internal/adapters/reframe"
	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/pkg/config"
)

func TestNewConverter(t *testing.T) {
	c, err := NewConverter(config.ConverterConfig{Strategy: config.StrategyLocal})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*lv95.Converter); !ok {
		t.Errorf("local strategy built %T", c)
	}

	c, err = NewConverter(config.ConverterConfig{Strategy: config.StrategyRemote, ReframeURL: "http://localhost"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*reframe.Client); !ok {
		t.Errorf("remote strategy built %T", c)
	}

	if _, err := NewConverter(config.ConverterConfig{Strategy: "gdal"}); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestNewProviders(t *testing.T) {
	cfg := &config.Config{}
	cfg.GeoAdmin.ChunkSize = 3000

	providers := NewProviders(cfg, lv95.NewConverter())
	if _, ok := providers[domain.ProviderPrimary]; ok {
		t.Error("primary provider must be disabled without an API key")
	}
	if _, ok := providers[domain.ProviderRegional]; !ok {
		t.Error("regional provider missing")
	}

	cfg.Google.APIKey = "key"
	providers = NewProviders(cfg, lv95.NewConverter())
	if len(providers) != 2 {
		t.Errorf("expected 2 providers, got %d", len(providers))
	}
}

func TestNewCacheBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Cache.Backend = config.BackendMemory

	backend, closeFn, err := NewCacheBackend(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, ok := backend.(*memory.Cache); !ok {
		t.Errorf("memory backend built %T", backend)
	}

	cfg.Cache.Backend = "disk"
	if _, _, err := NewCacheBackend(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}
