package reframe_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samirrijal/elevprofile/internal/adapters/reframe"
	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// fakeReframe echoes the input shifted by a fixed offset and answers in a
// random-ish order by sleeping longer for earlier points.
func fakeReframe(t *testing.T, calls *atomic.Int32, respond func(e, n float64) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "json", r.URL.Query().Get("format"))
		e, err := strconv.ParseFloat(r.URL.Query().Get("easting"), 64)
		require.NoError(t, err)
		n, err := strconv.ParseFloat(r.URL.Query().Get("northing"), 64)
		require.NoError(t, err)

		// Earlier points answer later so arrival order differs from input order.
		time.Sleep(time.Duration(10-int(e)%10) * time.Millisecond)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(respond(e, n))
	}))
}

func TestConvert_ReassemblesByIndex(t *testing.T) {
	var calls atomic.Int32
	srv := fakeReframe(t, &calls, func(e, n float64) any {
		return map[string]any{"easting": e + 2600000, "northing": n + 1200000}
	})
	defer srv.Close()

	c := reframe.New(reframe.Config{BaseURL: srv.URL, Concurrency: 4})

	in := make([]domain.PlanarPoint, 10)
	for i := range in {
		in[i] = domain.PlanarPoint{X: float64(i), Y: float64(i * 10)}
	}

	out, err := c.Convert(context.Background(), in, domain.CRSWGS84, domain.CRSLV95)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	require.EqualValues(t, len(in), calls.Load())
	for i, p := range out {
		require.Equal(t, float64(i)+2600000, p.X)
		require.Equal(t, float64(i*10)+1200000, p.Y)
	}
}

func TestConvert_UsesDirectionEndpoint(t *testing.T) {
	paths := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		// The service keeps easting/northing keys for WGS84 output too.
		_, _ = w.Write([]byte(`{"easting":"7.43864","northing":"46.95108"}`))
	}))
	defer srv.Close()

	c := reframe.New(reframe.Config{BaseURL: srv.URL, Concurrency: 1})
	out, err := c.Convert(context.Background(),
		[]domain.PlanarPoint{{X: 2600000, Y: 1200000}}, domain.CRSLV95, domain.CRSWGS84)
	require.NoError(t, err)
	require.Equal(t, "/lv95towgs84", <-paths)
	require.InDelta(t, 7.43864, out[0].X, 1e-9)
	require.InDelta(t, 46.95108, out[0].Y, 1e-9)
}

func TestConvert_NonNumericFailsWholeBatch(t *testing.T) {
	var calls atomic.Int32
	srv := fakeReframe(t, &calls, func(e, n float64) any {
		if e == 3 {
			return map[string]any{"easting": "NaN?", "northing": n}
		}
		return map[string]any{"easting": e, "northing": n}
	})
	defer srv.Close()

	c := reframe.New(reframe.Config{BaseURL: srv.URL})
	in := []domain.PlanarPoint{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}}

	out, err := c.Convert(context.Background(), in, domain.CRSWGS84, domain.CRSLV95)
	require.Nil(t, out)
	require.True(t, errors.Is(err, domain.ErrConversionFailure), "got %v", err)
}

func TestConvert_MissingFieldFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"easting":2600000}`))
	}))
	defer srv.Close()

	c := reframe.New(reframe.Config{BaseURL: srv.URL})
	_, err := c.Convert(context.Background(), []domain.PlanarPoint{{X: 7, Y: 46}}, domain.CRSWGS84, domain.CRSLV95)
	require.True(t, errors.Is(err, domain.ErrConversionFailure))
}

func TestConvert_HTTPErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := reframe.New(reframe.Config{BaseURL: srv.URL})
	_, err := c.Convert(context.Background(), []domain.PlanarPoint{{X: 7, Y: 46}}, domain.CRSWGS84, domain.CRSLV95)
	require.True(t, errors.Is(err, domain.ErrConversionFailure))
}

func TestConvert_UnsupportedPairSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := fakeReframe(t, &calls, func(e, n float64) any { return nil })
	defer srv.Close()

	c := reframe.New(reframe.Config{BaseURL: srv.URL})
	_, err := c.Convert(context.Background(), []domain.PlanarPoint{{X: 7, Y: 46}}, domain.CRSLV95, domain.CRSLV95)
	require.True(t, errors.Is(err, domain.ErrUnsupportedConversion))
	require.Zero(t, calls.Load())
}

func TestConvert_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := fakeReframe(t, &calls, func(e, n float64) any {
		return map[string]any{"easting": e, "northing": n}
	})
	defer srv.Close()

	c := reframe.New(reframe.Config{BaseURL: srv.URL, Concurrency: 8, RequestsPerSecond: 1000})
	in := make([]domain.PlanarPoint, 20)
	out, err := c.Convert(context.Background(), in, domain.CRSWGS84, domain.CRSLV95)
	require.NoError(t, err)
	require.Len(t, out, 20)
	require.EqualValues(t, 20, calls.Load())
}

func TestConvert_LogsThroughConfiguredLogger(t *testing.T) {
	var calls atomic.Int32
	srv := fakeReframe(t, &calls, func(e, n float64) any {
		return map[string]any{"easting": e, "northing": n}
	})
	defer srv.Close()

	var buf bytes.Buffer
	c := reframe.New(reframe.Config{
		BaseURL: srv.URL,
		Logger:  slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	_, err := c.Convert(context.Background(), []domain.PlanarPoint{{X: 1, Y: 1}}, domain.CRSWGS84, domain.CRSLV95)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "reframe batch converted")
	require.Contains(t, buf.String(), "component=reframe")
}
