package domain

import "time"

// CacheClearedEvent is published when cached elevation results are dropped.
// Consumers holding charts or profiles derived from cached data should
// refresh them.
type CacheClearedEvent struct {
	ClearedAt time.Time `json:"cleared_at"`
	Reason    string    `json:"reason,omitempty"`
	// Origin identifies the instance that cleared its cache.
	Origin string `json:"origin,omitempty"`
}

// ProfileComputedEvent is published after a provider returned a fresh profile.
type ProfileComputedEvent struct {
	Provider   ProviderKind `json:"provider"`
	CacheKey   string       `json:"cache_key"`
	Points     int          `json:"points"`
	ComputedAt time.Time    `json:"computed_at"`
}
