// Package pathio decodes paths from the JSON shapes accepted by the CLI tools.
package pathio

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tidwall/gjson"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// Parse accepts a JSON array of points or a GeoJSON LineString, either
// bare, wrapped in a Feature or as the first LineString of a
// FeatureCollection. A third GeoJSON coordinate is read as elevation.
func Parse(data []byte) (domain.Path, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("input is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if root.IsArray() {
		var path domain.Path
		if err := json.Unmarshal(data, &path); err != nil {
			return nil, fmt.Errorf("parse points: %w", err)
		}
		return path, nil
	}

	var (
		ls       orb.LineString
		coordsAt string
	)
	switch typ := root.Get("type").String(); typ {
	case "LineString":
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("parse geometry: %w", err)
		}
		ls, _ = g.Geometry().(orb.LineString)
		coordsAt = "coordinates"
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("parse feature: %w", err)
		}
		ls, _ = f.Geometry.(orb.LineString)
		coordsAt = "geometry.coordinates"
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse feature collection: %w", err)
		}
		for i, f := range fc.Features {
			if l, ok := f.Geometry.(orb.LineString); ok {
				ls = l
				coordsAt = fmt.Sprintf("features.%d.geometry.coordinates", i)
				break
			}
		}
	default:
		return nil, fmt.Errorf("unsupported GeoJSON type %q", typ)
	}
	if ls == nil {
		return nil, fmt.Errorf("input contains no LineString")
	}

	coords := root.Get(coordsAt).Array()
	path := make(domain.Path, len(ls))
	for i, p := range ls {
		path[i] = domain.GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
		if i < len(coords) {
			if z := coords[i].Get("2"); z.Type == gjson.Number {
				path[i] = path[i].WithElevation(z.Float())
			}
		}
	}
	return path, nil
}
