package domain

import (
	"fmt"
	"strings"
)

// ProviderKind selects the elevation provider for a request.
type ProviderKind string

const (
	// ProviderPrimary is the global elevation service.
	ProviderPrimary ProviderKind = "primary"
	// ProviderRegional is the Switzerland-only profile service.
	ProviderRegional ProviderKind = "regional"
)

// ParseProviderKind maps a config or request value onto a ProviderKind.
// "google" and "geoadmin" are accepted as aliases.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary", "google":
		return ProviderPrimary, nil
	case "regional", "geoadmin":
		return ProviderRegional, nil
	}
	return "", fmt.Errorf("unknown elevation provider %q", s)
}

// ResultSource records where an ElevationResult came from.
type ResultSource string

const (
	SourceProvider ResultSource = "provider"
	SourceCache    ResultSource = "cache"
	SourceExisting ResultSource = "existing"
)

// ElevationResult is a path whose points all carry elevation.
// Distances holds provider-reported cumulative distances in meters, one per
// point, and is nil when the provider does not report them.
type ElevationResult struct {
	Provider  ProviderKind `json:"provider"`
	Source    ResultSource `json:"source"`
	Points    Path         `json:"points"`
	Distances []float64    `json:"distances,omitempty"`
}

// ProfileSample is one point of a distance/elevation series.
type ProfileSample struct {
	Distance  float64 `json:"distance"`
	Elevation float64 `json:"elevation"`
}

// ProfileStats summarises an elevation profile.
type ProfileStats struct {
	Length       float64 `json:"length"`
	Ascent       float64 `json:"ascent"`
	Descent      float64 `json:"descent"`
	MinElevation float64 `json:"min_elevation"`
	MaxElevation float64 `json:"max_elevation"`
}
