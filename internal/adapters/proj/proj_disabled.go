//go:build !proj

// Package proj converts coordinates with the PROJ library. This build was
// compiled without the proj tag, so the converter is unavailable.
package proj

import (
	"context"
	"errors"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// Available reports whether PROJ support is compiled in.
const Available = false

// ErrNotBuilt is returned when the binary lacks the proj build tag.
var ErrNotBuilt = errors.New("proj: converter not compiled in, rebuild with -tags proj")

// Converter is a placeholder so callers compile without the tag.
type Converter struct{}

// NewConverter always fails in builds without the proj tag.
func NewConverter() (*Converter, error) {
	return nil, ErrNotBuilt
}

// Convert always fails in builds without the proj tag.
func (c *Converter) Convert(ctx context.Context, points []domain.PlanarPoint, from, to domain.CRS) ([]domain.PlanarPoint, error) {
	return nil, ErrNotBuilt
}
