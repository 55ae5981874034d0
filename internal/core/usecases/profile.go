package usecases

import (
	"math"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// BuildProfile turns an elevation result into a distance/elevation series.
//
// Provider-reported distances are used when present; otherwise distances are
// the cumulative great-circle length of the returned points. When
// totalDistance is positive the series is rescaled so that it ends at the
// caller's own measurement of the path. Points without elevation are skipped.
func BuildProfile(res *domain.ElevationResult, totalDistance float64) ([]domain.ProfileSample, domain.ProfileStats) {
	if res == nil || len(res.Points) == 0 {
		return nil, domain.ProfileStats{}
	}

	dists := res.Distances
	if len(dists) != len(res.Points) {
		dists = res.Points.Cumulative()
	}

	scale := 1.0
	if last := dists[len(dists)-1]; totalDistance > 0 && last > 0 {
		scale = totalDistance / last
	}

	samples := make([]domain.ProfileSample, 0, len(res.Points))
	prev := 0.0
	for i, pt := range res.Points {
		if pt.Elevation == nil || math.IsNaN(*pt.Elevation) {
			continue
		}
		d := math.Max(dists[i]*scale, 0)
		if d < prev {
			d = prev
		}
		prev = d
		samples = append(samples, domain.ProfileSample{Distance: d, Elevation: *pt.Elevation})
	}

	return samples, profileStats(samples)
}

func profileStats(samples []domain.ProfileSample) domain.ProfileStats {
	if len(samples) == 0 {
		return domain.ProfileStats{}
	}
	st := domain.ProfileStats{
		Length:       samples[len(samples)-1].Distance,
		MinElevation: samples[0].Elevation,
		MaxElevation: samples[0].Elevation,
	}
	for i := 1; i < len(samples); i++ {
		e := samples[i].Elevation
		diff := e - samples[i-1].Elevation
		if diff > 0 {
			st.Ascent += diff
		} else {
			st.Descent -= diff
		}
		st.MinElevation = math.Min(st.MinElevation, e)
		st.MaxElevation = math.Max(st.MaxElevation, e)
	}
	return st
}
