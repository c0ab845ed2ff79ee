package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/protocol-risk/internal/cache"
	"github.com/yourorg/protocol-risk/internal/circuitbreaker"
	"github.com/yourorg/protocol-risk/internal/model"
)

func testOptions() Options {
	return Options{
		Timeout:         2 * time.Second,
		RetryMax:        0,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    time.Millisecond,
		BreakerFailures: 2,
		BreakerReset:    time.Hour,
	}
}

func newTestClient(provider string) *Client {
	return NewClient(provider, cache.New[[]byte](time.Minute), testOptions())
}

func TestClient_GetJSONCachesByURL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `{"value": 42}`)
	}))
	defer srv.Close()

	c := newTestClient("llama")
	var out struct{ Value int }

	require.NoError(t, c.GetJSON(context.Background(), srv.URL+"/a", &out))
	require.NoError(t, c.GetJSON(context.Background(), srv.URL+"/a", &out))
	assert.Equal(t, 42, out.Value)
	assert.Equal(t, int32(1), hits.Load(), "second identical request is served from cache")

	require.NoError(t, c.GetJSON(context.Background(), srv.URL+"/a?x=1", &out))
	assert.Equal(t, int32(2), hits.Load(), "a different query string is a different key")
}

func TestClient_PostJSONKeyIncludesBody(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := newTestClient("hyperliquid")
	var out []any
	ctx := context.Background()

	require.NoError(t, c.PostJSON(ctx, srv.URL, map[string]string{"type": "metaAndAssetCtxs"}, &out))
	require.NoError(t, c.PostJSON(ctx, srv.URL, map[string]string{"type": "predictedFundings"}, &out))
	require.NoError(t, c.PostJSON(ctx, srv.URL, map[string]string{"type": "metaAndAssetCtxs"}, &out))

	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestClient("llama")
	var out any
	for i := 0; i < 3; i++ {
		err := c.GetJSON(context.Background(), srv.URL+"/protocol/nope", &out)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNotFound))
	}
	assert.Equal(t, circuitbreaker.StateClosed, c.Breaker().GetState())
}

func TestClient_ServerErrorsTripBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient("snapshot")
	var out any
	ctx := context.Background()

	assert.Error(t, c.GetJSON(ctx, srv.URL, &out))
	assert.Error(t, c.GetJSON(ctx, srv.URL, &out))
	assert.Equal(t, circuitbreaker.StateOpen, c.Breaker().GetState())

	err := c.GetJSON(ctx, srv.URL, &out)
	assert.True(t, errors.Is(err, circuitbreaker.ErrOpen))
	assert.Equal(t, int32(2), hits.Load(), "open breaker short-circuits the request")
}

func TestClient_FailuresAreNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"ok": true}`)
	}))
	defer srv.Close()

	c := newTestClient("llama")
	var out struct{ OK bool }

	assert.Error(t, c.GetJSON(context.Background(), srv.URL, &out))
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	assert.True(t, out.OK)
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	var out map[string]any
	err := newTestClient("llama").GetJSON(context.Background(), srv.URL, &out)
	assert.ErrorContains(t, err, "decode llama response")
}

func TestRequestKey(t *testing.T) {
	assert.Equal(t, "GET https://x/y?a=1", requestKey(http.MethodGet, "https://x/y?a=1", nil))
	assert.NotEqual(t,
		requestKey(http.MethodPost, "https://x", []byte(`{"type":"a"}`)),
		requestKey(http.MethodPost, "https://x", []byte(`{"type":"b"}`)),
	)
}
