package helium_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/hnttax/pkg/helium"
	"github.com/screwyprof/hnttax/pkg/logger"
	"github.com/screwyprof/hnttax/pkg/metrics"
)

func TestClientRetryPolicy(t *testing.T) {
	t.Parallel()

	t.Run("it gives up with a transient error after the configured attempts", func(t *testing.T) {
		t.Parallel()

		// Arrange
		calls := &atomic.Int32{}
		server := httptest.NewServer(countingHandler(calls, statusHandler(http.StatusBadGateway, `{"error":"bad gateway"}`)))
		defer server.Close()

		clock := &instantClock{}
		client := clientFor(server, clock, helium.Config{MaxAttempts: 3})

		// Act
		_, err := client.Account(t.Context(), "wallet1")

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, helium.ErrTransientUpstream)
		assert.Equal(t, int32(3), calls.Load(), "Should stop after MaxAttempts requests")
		assert.Len(t, clock.Waits(), 2, "Should back off between attempts only")
	})

	t.Run("it gives up when the transport keeps failing", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close() // nothing listens on this address any more

		client := clientFor(server, &instantClock{}, helium.Config{MaxAttempts: 4})

		// Act
		_, err := client.Account(t.Context(), "wallet1")

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, helium.ErrTransientUpstream)
	})

	t.Run("it recovers when the upstream comes back", func(t *testing.T) {
		t.Parallel()

		// Arrange
		calls := &atomic.Int32{}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			writeJSON(w, `{"data":{"address":"wallet1","block":42}}`)
		}))
		defer server.Close()

		client := clientFor(server, &instantClock{}, helium.Config{MaxAttempts: 5})

		// Act
		account, err := client.Account(t.Context(), "wallet1")

		// Assert
		require.NoError(t, err)
		assert.True(t, account.Exists())
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("it backs off exponentially", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(statusHandler(http.StatusInternalServerError, ""))
		defer server.Close()

		clock := &instantClock{}
		client := clientFor(server, clock, helium.Config{MaxAttempts: 4})

		// Act
		_, _ = client.Account(t.Context(), "wallet1")

		// Assert
		waits := clock.Waits()
		require.Len(t, waits, 3)
		for i, base := range []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second} {
			assert.GreaterOrEqual(t, waits[i], base, "Wait %d should be at least %v", i, base)
			assert.Less(t, waits[i], base+10*time.Millisecond, "Wait %d jitter should stay small", i)
		}
	})

	t.Run("it does not retry client errors", func(t *testing.T) {
		t.Parallel()

		// Arrange
		calls := &atomic.Int32{}
		server := httptest.NewServer(countingHandler(calls, statusHandler(http.StatusNotFound, `{"error":"Not Found"}`)))
		defer server.Close()

		client := clientFor(server, &instantClock{}, helium.Config{MaxAttempts: 5})

		// Act
		_, err := client.Hotspot(t.Context(), "hotspot1")

		// Assert
		require.Error(t, err)
		assert.True(t, helium.IsNotFound(err))
		assert.NotErrorIs(t, err, helium.ErrTransientUpstream)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("it does not retry malformed bodies", func(t *testing.T) {
		t.Parallel()

		// Arrange
		calls := &atomic.Int32{}
		server := httptest.NewServer(countingHandler(calls, jsonHandler(`{"data":`)))
		defer server.Close()

		client := clientFor(server, &instantClock{}, helium.Config{MaxAttempts: 5})

		// Act
		_, err := client.Account(t.Context(), "wallet1")

		// Assert
		assert.ErrorIs(t, err, helium.ErrMalformedResponse)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("it stops waiting when the context is cancelled", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(statusHandler(http.StatusServiceUnavailable, ""))
		defer server.Close()

		client := clientFor(server, blockingClock{}, helium.Config{MaxAttempts: 5})
		ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
		defer cancel()

		// Act
		_, err := client.Account(ctx, "wallet1")

		// Assert
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestClientRequestHeaders(t *testing.T) {
	t.Parallel()

	// Arrange
	var mu sync.Mutex
	var agents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.Header.Get("User-Agent"))
		mu.Unlock()
		writeJSON(w, `{"data":{"address":"wallet1","block":null}}`)
	}))
	defer server.Close()

	client := clientFor(server, &instantClock{}, helium.Config{UserAgent: "hnttax-test/0.1"})

	// Act
	_, err1 := client.Account(t.Context(), "wallet1")
	_, err2 := client.Account(t.Context(), "wallet2")

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, []string{"hnttax-test/0.1", "hnttax-test/0.1"}, agents)
}

func TestClientAccounts(t *testing.T) {
	t.Parallel()

	t.Run("it reports unknown accounts as not existing", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(jsonHandler(`{"data":{"address":"nobody","block":null}}`))
		defer server.Close()

		client := clientFor(server, &instantClock{}, helium.Config{})

		// Act
		account, err := client.Account(t.Context(), "nobody")

		// Assert
		require.NoError(t, err)
		assert.False(t, account.Exists())
	})

	t.Run("it rejects responses without data", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(jsonHandler(`{}`))
		defer server.Close()

		client := clientFor(server, &instantClock{}, helium.Config{})

		// Act
		_, err := client.Account(t.Context(), "wallet1")

		// Assert
		assert.ErrorIs(t, err, helium.ErrMalformedResponse)
	})

	t.Run("it lists hotspots with their location", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/accounts/wallet1/hotspots", r.URL.Path)
			writeJSON(w, `{"data":[
				{"address":"hs1","name":"angry-purple-tiger","owner":"wallet1","geocode":{"short_state":"CA","short_country":"US","short_city":"Oakland"}},
				{"address":"hs2","name":"calm-blue-whale","owner":"wallet1","geocode":{"short_state":"NY","short_country":"US","short_city":"Brooklyn"}}
			]}`)
		}))
		defer server.Close()

		client := clientFor(server, &instantClock{}, helium.Config{})

		// Act
		hotspots, err := client.AccountHotspots(t.Context(), "wallet1")

		// Assert
		require.NoError(t, err)
		require.Len(t, hotspots, 2)
		assert.Equal(t, "hs1", hotspots[0].Address)
		assert.Equal(t, "CA", hotspots[0].Geocode.ShortState)
		assert.Equal(t, "Brooklyn", hotspots[1].Geocode.ShortCity)
	})

	t.Run("it returns the hotspot owner", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(jsonHandler(`{"data":{"address":"hs1","owner":"wallet1"}}`))
		defer server.Close()

		client := clientFor(server, &instantClock{}, helium.Config{})

		// Act
		hotspot, err := client.Hotspot(t.Context(), "hs1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "wallet1", hotspot.Owner)
	})
	t.Run("it reports an error body as a missing hotspot", func(t *testing.T) {
		t.Parallel()

		// Arrange
		server := httptest.NewServer(jsonHandler(`{"error":"Not Found"}`))
		defer server.Close()

		client := clientFor(server, &instantClock{}, helium.Config{})

		// Act
		_, err := client.Hotspot(t.Context(), "hs1")

		// Assert
		assert.ErrorIs(t, err, helium.ErrNotFound)
		assert.True(t, helium.IsNotFound(err))
		assert.NotErrorIs(t, err, helium.ErrMalformedResponse)
	})
}

func TestClientMetrics(t *testing.T) {
	t.Parallel()

	// Arrange
	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, `{"data":{"address":"wallet1","block":1}}`)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewUpstream(reg)
	client := helium.NewClient(server.Client(), helium.Config{BaseURL: server.URL},
		helium.WithClock(&instantClock{}),
		helium.WithLogger(logger.Discard()),
		helium.WithMetrics(m),
	)

	// Act
	_, err := client.Account(t.Context(), "wallet1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("accounts", http.StatusText(http.StatusBadGateway))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("accounts", http.StatusText(http.StatusOK))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Retries.WithLabelValues("accounts")))
}

// Test helpers

func clientFor(server *httptest.Server, clock helium.Clock, cfg helium.Config) *helium.Client {
	cfg.BaseURL = server.URL
	return helium.NewClient(server.Client(), cfg,
		helium.WithClock(clock),
		helium.WithLogger(logger.Discard()),
	)
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, body)
	}
}

func statusHandler(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}
}

func countingHandler(calls *atomic.Int32, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		next.ServeHTTP(w, r)
	}
}

// instantClock records requested waits and fires immediately
type instantClock struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return ch
}

func (c *instantClock) Now() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (c *instantClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

// blockingClock never fires
type blockingClock struct{}

func (blockingClock) After(time.Duration) <-chan time.Time { return nil }
func (blockingClock) Now() time.Time                       { return time.Time{} }
