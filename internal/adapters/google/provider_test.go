package google_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"github.com/samirrijal/elevprofile/internal/adapters/google"
	"github.com/samirrijal/elevprofile/internal/core/domain"
)

func line(n int) domain.Path {
	p := make(domain.Path, n)
	for i := range p {
		p[i] = domain.GeoPoint{Lat: 46.5 + float64(i)*0.0001, Lon: 7.5 + float64(i)*0.0001}
	}
	return p
}

// fakeGoogle answers every location with elevation = 1000 + index within the
// batch and records the batch sizes it saw.
type fakeGoogle struct {
	mu      sync.Mutex
	batches []int
	failOn  int // 1-based request number that returns HTTP 500, 0 = never
	status  string
}

func (f *fakeGoogle) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.batches = append(f.batches, 0)
		call := len(f.batches)
		f.mu.Unlock()

		if f.failOn == call {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		enc := strings.TrimPrefix(r.URL.Query().Get("locations"), "enc:")
		coords, _, err := polyline.DecodeCoords([]byte(enc))
		require.NoError(t, err)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))

		f.mu.Lock()
		f.batches[call-1] = len(coords)
		f.mu.Unlock()

		status := f.status
		if status == "" {
			status = "OK"
		}
		results := make([]map[string]any, len(coords))
		for i, c := range coords {
			results[i] = map[string]any{
				"elevation": 1000 + float64(i),
				"location":  map[string]any{"lat": c[0], "lng": c[1]},
			}
		}
		if status != "OK" {
			results = nil
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results":       results,
			"status":        status,
			"error_message": "denied",
		})
	}
}

func newProvider(t *testing.T, f *fakeGoogle) *google.Provider {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return google.New(google.Config{BaseURL: srv.URL, APIKey: "test-key"})
}

func TestSample_AdaptivePolicy(t *testing.T) {
	p := google.New(google.Config{})
	tests := []struct {
		in, want int
	}{
		{in: 2, want: 200},
		{in: 50, want: 200},
		{in: 200, want: 200},
		{in: 201, want: 201},
		{in: 1000, want: 1000},
		{in: 5000, want: 5000},
		{in: 6000, want: 5000},
	}
	for _, tt := range tests {
		path := line(tt.in)
		got, err := p.Sample(path)
		require.NoError(t, err)
		require.Len(t, got, tt.want, "input of %d points", tt.in)
		require.Equal(t, path[0], got[0])
		require.Equal(t, path[len(path)-1], got[len(got)-1])
	}
}

func TestSample_UnmodifiedInMiddleBand(t *testing.T) {
	p := google.New(google.Config{})
	path := line(1000)
	got, err := p.Sample(path)
	require.NoError(t, err)
	require.Equal(t, path, got)
}

func TestFetch_ResamplesShortPath(t *testing.T) {
	f := &fakeGoogle{}
	p := newProvider(t, f)

	res, err := p.Fetch(context.Background(), line(50))
	require.NoError(t, err)
	require.Len(t, res.Points, 200)
	require.Equal(t, []int{200}, f.batches)
}

func TestFetch_CapsLongPath(t *testing.T) {
	f := &fakeGoogle{}
	p := newProvider(t, f)

	res, err := p.Fetch(context.Background(), line(6000))
	require.NoError(t, err)
	require.Len(t, res.Points, 5000)

	total := 0
	for _, n := range f.batches {
		require.LessOrEqual(t, n, 512)
		total += n
	}
	require.Equal(t, 5000, total)
	require.Len(t, f.batches, 10)
}

func TestFetch_BatchesInOrder(t *testing.T) {
	f := &fakeGoogle{}
	p := newProvider(t, f)

	path := line(1000)
	res, err := p.Fetch(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, []int{512, 488}, f.batches)
	require.Len(t, res.Points, 1000)

	for i, pt := range res.Points {
		require.Equal(t, path[i].Lat, pt.Lat)
		require.Equal(t, path[i].Lon, pt.Lon)
		require.NotNil(t, pt.Elevation)
		require.Equal(t, 1000+float64(i%512), *pt.Elevation)
	}
}

func TestFetch_BatchFailureFailsWhole(t *testing.T) {
	f := &fakeGoogle{failOn: 2}
	p := newProvider(t, f)

	res, err := p.Fetch(context.Background(), line(1000))
	require.Nil(t, res)
	require.True(t, errors.Is(err, domain.ErrProviderError), "got %v", err)
}

func TestFetch_NonOKStatus(t *testing.T) {
	f := &fakeGoogle{status: "REQUEST_DENIED"}
	p := newProvider(t, f)

	_, err := p.Fetch(context.Background(), line(300))
	require.True(t, errors.Is(err, domain.ErrProviderError))
	require.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestFetch_ResultCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"elevation":1}]}`))
	}))
	defer srv.Close()

	p := google.New(google.Config{BaseURL: srv.URL})
	_, err := p.Fetch(context.Background(), line(300))
	require.True(t, errors.Is(err, domain.ErrProviderError))
}

func TestFetch_LogsThroughConfiguredLogger(t *testing.T) {
	f := &fakeGoogle{}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	p := google.New(google.Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Logger:  slog.New(slog.NewTextHandler(&buf, nil)),
	})
	_, err := p.Fetch(context.Background(), line(10))
	require.NoError(t, err)
	require.Contains(t, buf.String(), "elevation fetched")
	require.Contains(t, buf.String(), "provider=google")
}
