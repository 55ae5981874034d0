package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samirrijal/elevprofile/internal/pkg/geospatial"
)

// Path is an ordered sequence of geographic points.
type Path []GeoPoint

// Validate checks that the path can be measured or profiled.
func (p Path) Validate() error {
	if len(p) < 2 {
		return NewError(KindInvalidPath, "validate path", fmt.Errorf("need at least 2 points, got %d", len(p)))
	}
	for i, pt := range p {
		if !pt.Valid() || math.IsNaN(pt.Lat) || math.IsNaN(pt.Lon) {
			return NewError(KindInvalidPath, "validate path", fmt.Errorf("point %d out of range (%f, %f)", i, pt.Lat, pt.Lon))
		}
	}
	return nil
}

// Cumulative returns the great-circle distance in meters from the first point
// to every point of the path.
func (p Path) Cumulative() []float64 {
	out := make([]float64, len(p))
	for i := 1; i < len(p); i++ {
		out[i] = out[i-1] + geospatial.Haversine(p[i-1].Lat, p[i-1].Lon, p[i].Lat, p[i].Lon)
	}
	return out
}

// Length returns the total great-circle length of the path in meters.
func (p Path) Length() float64 {
	if len(p) < 2 {
		return 0
	}
	cum := p.Cumulative()
	return cum[len(cum)-1]
}

// Resample places n points at equal arc-length intervals along the path.
// The first and last output points are copies of the input endpoints.
func (p Path) Resample(n int) (Path, error) {
	if n < 2 {
		return nil, NewError(KindInvalidPath, "resample", fmt.Errorf("target count must be >= 2, got %d", n))
	}
	if len(p) == 0 {
		return nil, NewError(KindInvalidPath, "resample", fmt.Errorf("empty path"))
	}

	cum := p.Cumulative()
	total := cum[len(cum)-1]

	out := make(Path, n)
	if total == 0 {
		for i := range out {
			out[i] = p[0]
		}
		return out, nil
	}

	step := total / float64(n-1)
	seg := 0
	out[0] = p[0]
	for i := 1; i < n-1; i++ {
		target := float64(i) * step
		for seg < len(p)-2 && cum[seg+1] < target {
			seg++
		}
		a, b := p[seg], p[seg+1]
		segLen := cum[seg+1] - cum[seg]
		frac := 0.0
		if segLen > 0 {
			frac = (target - cum[seg]) / segLen
		}
		out[i] = interpolate(a, b, frac)
	}
	out[n-1] = p[len(p)-1]
	return out, nil
}

func interpolate(a, b GeoPoint, frac float64) GeoPoint {
	var pt GeoPoint
	pt.Lat, pt.Lon = geospatial.Lerp(a.Lat, a.Lon, b.Lat, b.Lon, frac)
	if a.Elevation != nil && b.Elevation != nil {
		pt = pt.WithElevation(*a.Elevation + (*b.Elevation-*a.Elevation)*frac)
	}
	return pt
}

// Bounds returns the geographic extent of the path.
func (p Path) Bounds() Bounds {
	if len(p) == 0 {
		return Bounds{}
	}
	b := Bounds{MinLat: p[0].Lat, MinLon: p[0].Lon, MaxLat: p[0].Lat, MaxLon: p[0].Lon}
	for _, pt := range p[1:] {
		b.MinLat = math.Min(b.MinLat, pt.Lat)
		b.MinLon = math.Min(b.MinLon, pt.Lon)
		b.MaxLat = math.Max(b.MaxLat, pt.Lat)
		b.MaxLon = math.Max(b.MaxLon, pt.Lon)
	}
	return b
}

// CacheKey fingerprints the path by its coordinates rounded to 5 decimal
// places (about 1.1 m). Paths that round the same share a key.
func (p Path) CacheKey() string {
	var sb strings.Builder
	sb.Grow(len(p) * 20)
	for i, pt := range p {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(strconv.FormatFloat(pt.Lat, 'f', 5, 64))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(pt.Lon, 'f', 5, 64))
	}
	return sb.String()
}

// nearZeroElevation is the magnitude below which an elevation counts as a
// placeholder rather than data.
const nearZeroElevation = 1e-3

// ElevationCoverage returns the share of points carrying an elevation and
// whether any of them is meaningfully different from zero.
func (p Path) ElevationCoverage() (coverage float64, nonZero bool) {
	if len(p) == 0 {
		return 0, false
	}
	n := 0
	for _, pt := range p {
		if pt.Elevation == nil || math.IsNaN(*pt.Elevation) {
			continue
		}
		n++
		if math.Abs(*pt.Elevation) > nearZeroElevation {
			nonZero = true
		}
	}
	return float64(n) / float64(len(p)), nonZero
}

// HasUsableElevation reports whether at least minCoverage of the points carry
// elevation and at least one of them is not near zero. All-zero elevations
// are what many exporters write when they have no data.
func (p Path) HasUsableElevation(minCoverage float64) bool {
	coverage, nonZero := p.ElevationCoverage()
	return nonZero && coverage >= minCoverage
}

// Clone returns a deep copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	for i, pt := range p {
		out[i] = pt
		if pt.Elevation != nil {
			e := *pt.Elevation
			out[i].Elevation = &e
		}
	}
	return out
}
