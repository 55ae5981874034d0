package domain

import (
	"errors"
	"math"
	"testing"
)

func line() Path {
	return Path{
		{Lat: 46.0, Lon: 7.0},
		{Lat: 46.0, Lon: 7.01},
		{Lat: 46.0, Lon: 7.03},
	}
}

func TestPath_Validate(t *testing.T) {
	tests := []struct {
		name string
		path Path
		ok   bool
	}{
		{"two points", Path{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}, true},
		{"single point", Path{{Lat: 1, Lon: 1}}, false},
		{"empty", nil, false},
		{"latitude out of range", Path{{Lat: 91, Lon: 1}, {Lat: 2, Lon: 2}}, false},
		{"longitude out of range", Path{{Lat: 1, Lon: 1}, {Lat: 2, Lon: -181}}, false},
		{"NaN", Path{{Lat: math.NaN(), Lon: 1}, {Lat: 2, Lon: 2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.path.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidPath) {
				t.Fatalf("expected invalid path, got %v", err)
			}
		})
	}
}

func TestPath_Resample(t *testing.T) {
	p := line()
	out, err := p.Resample(4)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 points, got %d", len(out))
	}
	if out[0] != p[0] || out[3] != p[2] {
		t.Errorf("endpoints not preserved: %v", out)
	}

	// Points are evenly spaced along the path.
	cum := out.Cumulative()
	step := cum[3] / 3
	for i := 1; i < 4; i++ {
		if d := cum[i] - cum[i-1]; math.Abs(d-step) > 0.5 {
			t.Errorf("segment %d is %f m, want %f", i, d, step)
		}
	}
	if math.Abs(out.Length()-p.Length()) > 0.5 {
		t.Errorf("resampled length %f differs from %f", out.Length(), p.Length())
	}
}

func TestPath_ResampleUpAndDown(t *testing.T) {
	p := line()
	for _, n := range []int{2, 3, 10, 200} {
		out, err := p.Resample(n)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(out) != n {
			t.Errorf("n=%d: got %d points", n, len(out))
		}
	}
}

func TestPath_ResampleInterpolatesElevation(t *testing.T) {
	p := Path{
		pt(46, 7).WithElevation(100),
		pt(46, 7.02).WithElevation(200),
	}
	out, err := p.Resample(3)
	if err != nil {
		t.Fatal(err)
	}
	if out[1].Elevation == nil || math.Abs(*out[1].Elevation-150) > 1e-6 {
		t.Errorf("expected interpolated elevation 150, got %v", out[1].Elevation)
	}
}

func TestPath_ResampleDegenerate(t *testing.T) {
	p := Path{{Lat: 46, Lon: 7}, {Lat: 46, Lon: 7}}
	out, err := p.Resample(5)
	if err != nil {
		t.Fatal(err)
	}
	for _, pt := range out {
		if pt.Lat != 46 || pt.Lon != 7 {
			t.Errorf("zero-length path should repeat its point, got %v", pt)
		}
	}

	if _, err := p.Resample(1); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("n=1 should fail, got %v", err)
	}
	if _, err := Path(nil).Resample(3); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("empty path should fail, got %v", err)
	}
}

func TestPath_CacheKeyRounding(t *testing.T) {
	a := Path{{Lat: 46.123451, Lon: 7.1}, {Lat: 46.2, Lon: 7.2}}
	b := Path{{Lat: 46.123449, Lon: 7.1}, {Lat: 46.2, Lon: 7.2}}
	c := Path{{Lat: 46.12350, Lon: 7.1}, {Lat: 46.2, Lon: 7.2}}

	if a.CacheKey() != b.CacheKey() {
		t.Errorf("sub-meter differences should share a key: %s vs %s", a.CacheKey(), b.CacheKey())
	}
	if a.CacheKey() == c.CacheKey() {
		t.Error("different rounded coordinates must not share a key")
	}
}

func TestPath_HasUsableElevation(t *testing.T) {
	p := line()
	if p.HasUsableElevation(0.8) {
		t.Error("path without elevation reported usable")
	}

	zeros := line()
	for i := range zeros {
		zeros[i] = zeros[i].WithElevation(0)
	}
	if zeros.HasUsableElevation(0.8) {
		t.Error("all-zero elevations reported usable")
	}

	partial := line()
	partial[0] = partial[0].WithElevation(500)
	partial[1] = partial[1].WithElevation(510)
	if partial.HasUsableElevation(0.8) {
		t.Error("2/3 coverage should fail a 0.8 threshold")
	}
	if !partial.HasUsableElevation(0.6) {
		t.Error("2/3 coverage should pass a 0.6 threshold")
	}
}

func TestPath_BoundsAndClone(t *testing.T) {
	p := Path{{Lat: 46.5, Lon: 7.2}, {Lat: 46.1, Lon: 7.9}, pt(46.3, 6.9).WithElevation(1)}
	b := p.Bounds()
	if b != (Bounds{MinLat: 46.1, MinLon: 6.9, MaxLat: 46.5, MaxLon: 7.9}) {
		t.Errorf("unexpected bounds %+v", b)
	}

	c := p.Clone()
	*c[2].Elevation = 99
	if *p[2].Elevation != 1 {
		t.Error("Clone shares elevation pointers with the original")
	}
}

func pt(lat, lon float64) GeoPoint { return GeoPoint{Lat: lat, Lon: lon} }
