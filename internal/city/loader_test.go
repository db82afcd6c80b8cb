package city

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataset = `[
  {"guid": "a1", "isActive": true, "address": "Berlin", "latitude": 52.52, "longitude": 13.405, "tags": ["capital"]},
  {"id": "b2", "isActive": false, "address": "Null Island", "latitude": 0, "longitude": 0}
]`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestDecode(t *testing.T) {
	t.Run("accepts id and guid", func(t *testing.T) {
		cities, err := Decode(strings.NewReader(dataset))
		require.NoError(t, err)
		require.Len(t, cities, 2)

		assert.Equal(t, "a1", cities[0].ID)
		assert.Equal(t, []string{"capital"}, cities[0].Tags)
		assert.Equal(t, "b2", cities[1].ID)
		assert.Zero(t, cities[1].Latitude)
		assert.NotNil(t, cities[1].Tags)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`[{"latitude": 1, "longitude": 1}]`))
		assert.Error(t, err)
	})

	t.Run("missing coordinates", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`[{"id": "x", "latitude": 1}]`))
		assert.Error(t, err)
	})

	t.Run("latitude out of range", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`[{"id": "x", "latitude": 91, "longitude": 1}]`))
		assert.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`nope`))
		assert.Error(t, err)
	})
}

func TestLoaderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	require.NoError(t, os.WriteFile(path, []byte(dataset), 0o600))

	idx, err := NewLoader(testLogger(), http.DefaultClient).Load(testContext(t), path)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	_, err = NewLoader(testLogger(), http.DefaultClient).Load(testContext(t), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoaderShippedDataset(t *testing.T) {
	idx, err := NewLoader(testLogger(), http.DefaultClient).Load(testContext(t), filepath.Join("..", "..", "data", "cities.json"))
	require.NoError(t, err)
	assert.Positive(t, idx.Len())
	assert.NotEmpty(t, idx.Filter("river", true))
}

func fastLoader() *Loader {
	l := NewLoader(testLogger(), &http.Client{Timeout: time.Second})
	l.remote.retry = RetryPolicy{Retries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	return l
}

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{Retries: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	assert.Equal(t, 100*time.Millisecond, p.delay(0))
	assert.Equal(t, 400*time.Millisecond, p.delay(2))
	assert.Equal(t, time.Second, p.delay(4))
	assert.Equal(t, time.Second, p.delay(70))
}

func TestLoaderRemote(t *testing.T) {
	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(dataset))
		}))
		defer srv.Close()

		idx, err := fastLoader().Load(testContext(t), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, 2, idx.Len())
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := fastLoader().Load(testContext(t), srv.URL)
		require.ErrorIs(t, err, errServerError)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.NotFound(w, r)
		}))
		defer srv.Close()

		_, err := fastLoader().Load(testContext(t), srv.URL)
		assert.ErrorIs(t, err, errUnexpected)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("rate limits are retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte(dataset))
		}))
		defer srv.Close()

		idx, err := fastLoader().Load(testContext(t), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, 2, idx.Len())
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(testContext(t))
		cancel()

		_, err := fastLoader().Load(ctx, srv.URL)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// testContext stands in for testing.T.Context (Go 1.24+): a context that is
// canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
