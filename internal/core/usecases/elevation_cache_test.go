package usecases_test

import (
	"context"
	"strings"
	"testing"

	"github.com/samirrijal/elevprofile/internal/adapters/memory"
	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/usecases"
)

func TestKey_NamespacedAndStable(t *testing.T) {
	a := usecases.Key(domain.ProviderPrimary, samplePath())
	b := usecases.Key(domain.ProviderPrimary, samplePath())
	c := usecases.Key(domain.ProviderRegional, samplePath())

	if a != b {
		t.Errorf("key not stable: %s vs %s", a, b)
	}
	if a == c {
		t.Error("keys for different providers must differ")
	}
	if !strings.HasPrefix(a, "elevation:primary:") {
		t.Errorf("unexpected key %s", a)
	}
}

func TestElevationCache_PutGet(t *testing.T) {
	cache := usecases.NewElevationCache(memory.New(), 0)
	ctx := context.Background()

	if _, ok := cache.Get(ctx, domain.ProviderPrimary, samplePath()); ok {
		t.Fatal("empty cache reported a hit")
	}

	res := &domain.ElevationResult{
		Provider:  domain.ProviderRegional,
		Points:    domain.Path{samplePath()[0].WithElevation(540), samplePath()[2].WithElevation(560)},
		Distances: []float64{0, 700},
	}
	if err := cache.Put(ctx, domain.ProviderRegional, samplePath(), res); err != nil {
		t.Fatal(err)
	}
	got, ok := cache.Get(ctx, domain.ProviderRegional, samplePath())
	if !ok {
		t.Fatal("expected hit")
	}
	if len(got.Points) != 2 || *got.Points[1].Elevation != 560 || got.Distances[1] != 700 {
		t.Errorf("round-tripped result differs: %+v", got)
	}
}

func TestElevationCache_UndecodableEntryIsMiss(t *testing.T) {
	backend := memory.New()
	cache := usecases.NewElevationCache(backend, 0)
	ctx := context.Background()

	_ = backend.Set(ctx, usecases.Key(domain.ProviderPrimary, samplePath()), []byte("{not json"), 0)
	if _, ok := cache.Get(ctx, domain.ProviderPrimary, samplePath()); ok {
		t.Error("corrupt entry must count as a miss")
	}
	if backend.Len() != 0 {
		t.Errorf("corrupt entry left in backend, Len = %d", backend.Len())
	}
}

func TestElevationCache_ClearKeepsForeignKeys(t *testing.T) {
	backend := memory.New()
	cache := usecases.NewElevationCache(backend, 0)
	ctx := context.Background()

	_ = backend.Set(ctx, "other:key", []byte("x"), 0)
	_ = cache.Put(ctx, domain.ProviderPrimary, samplePath(), &domain.ElevationResult{})

	notified := 0
	cache.OnClear(func() { notified++ })

	if err := cache.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if backend.Len() != 1 {
		t.Errorf("expected only the foreign key to survive, %d left", backend.Len())
	}
	if notified != 1 {
		t.Errorf("expected 1 notification, got %d", notified)
	}

	if err := cache.Purge(ctx); err != nil {
		t.Fatal(err)
	}
	if notified != 1 {
		t.Error("Purge must not notify listeners")
	}
}

func TestElevationCache_NilIsNoop(t *testing.T) {
	var cache *usecases.ElevationCache
	ctx := context.Background()

	if _, ok := cache.Get(ctx, domain.ProviderPrimary, samplePath()); ok {
		t.Error("nil cache reported a hit")
	}
	if err := cache.Put(ctx, domain.ProviderPrimary, samplePath(), &domain.ElevationResult{}); err != nil {
		t.Error(err)
	}
	if err := cache.Clear(ctx); err != nil {
		t.Error(err)
	}
}
