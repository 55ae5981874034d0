package lv95

import (
	"context"
	"fmt"
	"math"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/pkg/metrics"
)

// Converter implements ports.CoordinateConverter with local projection math.
type Converter struct {
	proj Projection
}

// NewConverter creates a local converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Convert converts points in a single synchronous pass.
func (c *Converter) Convert(ctx context.Context, points []domain.PlanarPoint, from, to domain.CRS) ([]domain.PlanarPoint, error) {
	var fn func(x, y float64) (float64, float64)
	switch {
	case from == domain.CRSWGS84 && to == domain.CRSLV95:
		fn = c.proj.FromWGS84
	case from == domain.CRSLV95 && to == domain.CRSWGS84:
		fn = c.proj.ToWGS84
	default:
		return nil, domain.NewError(domain.KindUnsupportedConversion, "lv95 convert",
			fmt.Errorf("%s -> %s", from, to))
	}

	out := make([]domain.PlanarPoint, len(points))
	for i, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			return nil, domain.NewError(domain.KindConversionFailure, "lv95 convert",
				fmt.Errorf("point %d is not finite (%v, %v)", i, p.X, p.Y))
		}
		if from == domain.CRSWGS84 && (math.Abs(p.Y) >= 90 || math.Abs(p.X) > 180) {
			return nil, domain.NewError(domain.KindConversionFailure, "lv95 convert",
				fmt.Errorf("point %d outside WGS84 range (%v, %v)", i, p.X, p.Y))
		}
		x, y := fn(p.X, p.Y)
		if !finite(x) || !finite(y) {
			return nil, domain.NewError(domain.KindConversionFailure, "lv95 convert",
				fmt.Errorf("point %d projected to a non-finite value", i))
		}
		out[i] = domain.PlanarPoint{X: x, Y: y}
	}
	metrics.ConversionPoints.WithLabelValues("local").Add(float64(len(points)))
	return out, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
