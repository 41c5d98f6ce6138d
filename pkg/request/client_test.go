package request

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locpulse/pkg/tracker"
)

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemCache() *memCache { return &memCache{m: make(map[string][]byte)} }

func (c *memCache) GetCache(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *memCache) SetCache(_ context.Context, key string, val []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = val
	return nil
}

func TestGetCachesResponse(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := New(newMemCache(), tracker.New(), ClientConfig{Timeout: 5 * time.Second})

	body, err := c.Get(context.Background(), srv.URL+"/x", "key1")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	// Second call must be served from cache.
	body, err = c.Get(context.Background(), srv.URL+"/x", "key1")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
	assert.Equal(t, 1, hits)
}

func TestRetryOnServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(nil, tracker.New(), ClientConfig{
		Retries:   3,
		Timeout:   5 * time.Second,
		BaseDelay: 5 * time.Millisecond,
	})

	body, err := c.Get(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, 2, calls)
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(nil, tracker.New(), ClientConfig{Timeout: 5 * time.Second, BaseDelay: 5 * time.Millisecond})

	_, err := c.Get(context.Background(), srv.URL, "")
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPostRetryResendsBody(t *testing.T) {
	var bodies [][]byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, b)
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(nil, tracker.New(), ClientConfig{
		Retries:   3,
		Timeout:   5 * time.Second,
		BaseDelay: 5 * time.Millisecond,
	})

	payload := []byte(`{"title":"You've moved!"}`)
	_, err := c.Post(context.Background(), srv.URL, payload, nil)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, payload, bodies[0])
	assert.Equal(t, payload, bodies[1], "retried POST must carry the original payload")
}

func TestNormalizeProvider(t *testing.T) {
	assert.Equal(t, "nominatim", normalizeProvider("nominatim.openstreetmap.org"))
	assert.Equal(t, "webpushr", normalizeProvider("api.webpushr.com"))
	assert.Equal(t, "example.com", normalizeProvider("example.com"))
}
