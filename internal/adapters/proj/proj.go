//go:build proj

// Package proj converts coordinates with the PROJ library, using the EPSG
// definitions shipped in the PROJ database. Building it needs cgo, libproj
// and the proj build tag.
package proj

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/twpayne/go-proj/v11"

	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/pkg/metrics"
)

// Available reports whether PROJ support is compiled in.
const Available = true

// Converter implements ports.CoordinateConverter on top of PROJ.
type Converter struct {
	mu sync.Mutex
	pj *proj.PJ
}

// NewConverter builds the epsg:4326 -> epsg:2056 transformation.
func NewConverter() (*Converter, error) {
	pj, err := proj.NewCRSToCRS("epsg:4326", "epsg:2056", nil)
	if err != nil {
		return nil, fmt.Errorf("proj: create transformation: %w", err)
	}
	return &Converter{pj: pj}, nil
}

// Convert runs the whole batch through PROJ in one call. epsg:4326 is
// latitude-first, so coordinates are flipped on the WGS84 side.
func (c *Converter) Convert(ctx context.Context, points []domain.PlanarPoint, from, to domain.CRS) ([]domain.PlanarPoint, error) {
	forward := from == domain.CRSWGS84 && to == domain.CRSLV95
	if !forward && !(from == domain.CRSLV95 && to == domain.CRSWGS84) {
		return nil, domain.NewError(domain.KindUnsupportedConversion, "proj convert",
			fmt.Errorf("%s -> %s", from, to))
	}

	coords := make([][]float64, len(points))
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, domain.NewError(domain.KindConversionFailure, "proj convert",
				fmt.Errorf("point %d is not finite", i))
		}
		if forward {
			coords[i] = []float64{p.Y, p.X}
		} else {
			coords[i] = []float64{p.X, p.Y}
		}
	}

	c.mu.Lock()
	var err error
	if forward {
		err = c.pj.ForwardFloat64Slices(coords)
	} else {
		err = c.pj.InverseFloat64Slices(coords)
	}
	c.mu.Unlock()
	if err != nil {
		return nil, domain.NewError(domain.KindConversionFailure, "proj convert", err)
	}

	out := make([]domain.PlanarPoint, len(coords))
	for i, xy := range coords {
		if forward {
			out[i] = domain.PlanarPoint{X: xy[0], Y: xy[1]}
		} else {
			out[i] = domain.PlanarPoint{X: xy[1], Y: xy[0]}
		}
		if math.IsNaN(out[i].X) || math.IsInf(out[i].X, 0) || math.IsNaN(out[i].Y) || math.IsInf(out[i].Y, 0) {
			return nil, domain.NewError(domain.KindConversionFailure, "proj convert",
				fmt.Errorf("point %d projected to a non-finite value", i))
		}
	}
	metrics.ConversionPoints.WithLabelValues("proj").Add(float64(len(points)))
	return out, nil
}
