//go:build proj

package proj_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samirrijal/elevprofile/internal/adapters/lv95"
	"github.com/samirrijal/elevprofile/internal/adapters/proj"
	"github.com/samirrijal/elevprofile/internal/core/domain"
)

func TestConvert_AgreesWithLocalProjection(t *testing.T) {
	c, err := proj.NewConverter()
	require.NoError(t, err)

	in := []domain.PlanarPoint{
		{X: 7.4474, Y: 46.9480},
		{X: 8.5417, Y: 47.3769},
		{X: 6.1432, Y: 46.2044},
	}
	got, err := c.Convert(context.Background(), in, domain.CRSWGS84, domain.CRSLV95)
	require.NoError(t, err)

	want, err := lv95.NewConverter().Convert(context.Background(), in, domain.CRSWGS84, domain.CRSLV95)
	require.NoError(t, err)

	for i := range in {
		require.InDelta(t, want[i].X, got[i].X, 2.0)
		require.InDelta(t, want[i].Y, got[i].Y, 2.0)
	}

	back, err := c.Convert(context.Background(), got, domain.CRSLV95, domain.CRSWGS84)
	require.NoError(t, err)
	for i := range in {
		require.InDelta(t, in[i].X, back[i].X, 1e-6)
		require.InDelta(t, in[i].Y, back[i].Y, 1e-6)
	}
}

func TestConvert_Unsupported(t *testing.T) {
	c, err := proj.NewConverter()
	require.NoError(t, err)
	_, err = c.Convert(context.Background(), nil, domain.CRSWGS84, domain.CRSWGS84)
	require.True(t, errors.Is(err, domain.ErrUnsupportedConversion))
}
