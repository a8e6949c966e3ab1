package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	c := New(url, "test-token", WithMaxRetries(3), WithBaseDelay(time.Millisecond))
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c
}

func TestGenerateBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		var body struct {
			Inputs []string `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		out := make([]map[string]string, len(body.Inputs))
		for i := range body.Inputs {
			out[i] = map[string]string{"generated_text": fmt.Sprintf("doc %d", i)}
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	outputs, err := c.GenerateBatch(context.Background(), []string{"a", "b", "c"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc 0", "doc 1", "doc 2"}, outputs)
}

func TestGenerateBatchNestedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[{"generated_text": "nested doc"}]]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	outputs, err := c.GenerateBatch(context.Background(), []string{"a"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"nested doc"}, outputs)
}

func TestGenerateSingle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Inputs     string         `json:"inputs"`
			Parameters map[string]any `json:"parameters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "def f(): ...", body.Inputs)
		assert.Equal(t, float64(64), body.Parameters["max_new_tokens"])
		w.Write([]byte(`[{"docstring": "Does f things."}]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	out, err := c.GenerateSingle(context.Background(), "def f(): ...", map[string]any{"max_new_tokens": 64})
	require.NoError(t, err)
	assert.Equal(t, "Does f things.", out)
}

func TestRetriesOn503ThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"generated_text": "eventually"}]`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	outputs, err := c.GenerateBatch(context.Background(), []string{"a"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"eventually"}, outputs)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetriesExhaustedReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GenerateBatch(context.Background(), []string{"a"}, nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.HTTPStatus())
}

func TestClientErrorFailsWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GenerateBatch(context.Background(), []string{"a"}, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.HTTPStatus())
	assert.Equal(t, int32(1), calls.Load(), "4xx responses must not be retried")
}

func TestContextCancellationStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(srv.URL, "", WithMaxRetries(5), WithBaseDelay(time.Millisecond))
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := c.GenerateBatch(ctx, []string{"a"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
