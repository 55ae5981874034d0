package pathio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_PointArray(t *testing.T) {
	path, err := Parse([]byte(`[{"lat":46.9,"lon":7.4},{"lat":47.0,"lon":7.5,"elevation":540}]`))
	require.NoError(t, err)
	require.Len(t, path, 2)
	require.Nil(t, path[0].Elevation)
	require.NotNil(t, path[1].Elevation)
	require.Equal(t, 540.0, *path[1].Elevation)
}

func TestParse_LineString(t *testing.T) {
	path, err := Parse([]byte(`{"type":"LineString","coordinates":[[7.4,46.9,500],[7.5,47.0]]}`))
	require.NoError(t, err)
	require.Len(t, path, 2)
	require.Equal(t, 46.9, path[0].Lat)
	require.Equal(t, 7.4, path[0].Lon)
	require.Equal(t, 500.0, *path[0].Elevation)
	require.Nil(t, path[1].Elevation)
}

func TestParse_Feature(t *testing.T) {
	in := `{"type":"Feature","properties":{"name":"climb"},
		"geometry":{"type":"LineString","coordinates":[[7.4,46.9],[7.5,47.0],[7.6,47.1]]}}`
	path, err := Parse([]byte(in))
	require.NoError(t, err)
	require.Len(t, path, 3)
	require.Equal(t, 47.1, path[2].Lat)
}

func TestParse_FeatureCollectionPicksFirstLine(t *testing.T) {
	in := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[7.0,46.0]}},
		{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[7.4,46.9,1],[7.5,47.0,2]]}}
	]}`
	path, err := Parse([]byte(in))
	require.NoError(t, err)
	require.Len(t, path, 2)
	require.Equal(t, 2.0, *path[1].Elevation)
}

func TestParse_Rejects(t *testing.T) {
	for name, in := range map[string]string{
		"not json":   `{"type":`,
		"point":      `{"type":"Point","coordinates":[7,46]}`,
		"no line":    `{"type":"FeatureCollection","features":[]}`,
		"bad points": `[{"lat":"north"}]`,
	} {
		_, err := Parse([]byte(in))
		require.Error(t, err, name)
	}
}
