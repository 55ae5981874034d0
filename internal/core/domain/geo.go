package domain

import (
	"fmt"
	"strings"
)

// GeoPoint represents a geographic coordinate (WGS 84).
// A nil Elevation means the elevation is unknown, not zero.
type GeoPoint struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Elevation *float64 `json:"elevation,omitempty"`
}

// WithElevation returns a copy of p carrying elevation e.
func (p GeoPoint) WithElevation(e float64) GeoPoint {
	p.Elevation = &e
	return p
}

// Valid reports whether the coordinate lies inside the WGS 84 range.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// PlanarPoint is a projected coordinate. For WGS84 X is longitude and Y is
// latitude; for LV95 X is easting and Y is northing.
type PlanarPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CRS identifies a coordinate reference system.
type CRS string

const (
	CRSWGS84 CRS = "WGS84"
	CRSLV95  CRS = "LV95"
)

// EPSG returns the EPSG code of the reference system.
func (c CRS) EPSG() int {
	switch c {
	case CRSWGS84:
		return 4326
	case CRSLV95:
		return 2056
	}
	return 0
}

// ParseCRS accepts "wgs84", "epsg:4326", "lv95" and "epsg:2056" in any case.
func ParseCRS(s string) (CRS, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wgs84", "epsg:4326", "4326":
		return CRSWGS84, nil
	case "lv95", "epsg:2056", "2056":
		return CRSLV95, nil
	}
	return "", NewError(KindUnsupportedConversion, "parse crs", fmt.Errorf("unknown reference system %q", s))
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// PlanarBounds is an axis-aligned rectangle in a projected system.
type PlanarBounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Contains reports whether p lies inside the rectangle, edges included.
func (b PlanarBounds) Contains(p PlanarPoint) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// LV95Bounds is the service area of the Swiss profile service in LV95.
var LV95Bounds = PlanarBounds{
	MinX: 2485000,
	MinY: 1075000,
	MaxX: 2834000,
	MaxY: 1296000,
}

// ToPlanarWGS84 converts points into WGS84 planar form (X=lon, Y=lat).
func ToPlanarWGS84(path Path) []PlanarPoint {
	out := make([]PlanarPoint, len(path))
	for i, p := range path {
		out[i] = PlanarPoint{X: p.Lon, Y: p.Lat}
	}
	return out
}
