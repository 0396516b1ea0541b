package flowstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/flowgallery/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/flowgallery/internal/infrastructure/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const remoteJSON = `{
	"id": "7f1c",
	"name": "Business Analyst",
	"description": "remote copy",
	"is_component": false,
	"tags": ["sdlc"],
	"data": {
		"nodes": [
			{"id": "a", "type": "genericNode", "data": {"type": "ChatInput"}},
			{"id": "b", "type": "genericNode", "data": {"type": "ChatOutput"}}
		],
		"edges": [{"id": "e", "source": "a", "target": "b"}],
		"viewport": {"x": 0, "y": 0, "zoom": 1}
	}
}`

type recorded struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recorded) RecordTemplateFetch(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: time.Second}, opts...)
}

func TestGet(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/FLOWS/business-analyst", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(remoteJSON))
	})

	tpl, err := c.Get(context.Background(), "business-analyst")
	require.NoError(t, err)
	assert.Equal(t, "Business Analyst", tpl.Name)
	assert.Equal(t, "remote copy", tpl.Description)
	assert.Len(t, tpl.Data.Nodes, 2)
}

func TestGetErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
		kind    string
	}{
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) },
			want:    ErrHTTPStatus,
			kind:    "http_status",
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			want:    ErrHTTPStatus,
			kind:    "http_status",
		},
		{
			name: "created is not OK",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(remoteJSON))
			},
			want: ErrHTTPStatus,
			kind: "http_status",
		},
		{
			name:    "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"name": `)) },
			want:    ErrDecode,
			kind:    "decode",
		},
		{
			name: "invalid graph",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"name":"x","data":{"nodes":[],"edges":[{"source":"a","target":"b"}]}}`))
			},
			want: ErrDecode,
			kind: "decode",
		},
		{
			name: "oversized body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat(" ", maxBodySize+1)))
			},
			want: ErrDecode,
			kind: "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, tt.handler)

			tpl, err := c.Get(context.Background(), "business-analyst")
			assert.Nil(t, tpl)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.kind, Kind(err))
		})
	}
}

func TestGetTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url, APIKey: "secret", Timeout: time.Second})
	_, err := c.Get(context.Background(), "business-analyst")
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "transport", Kind(err))
}

func TestGetTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Get(ctx, "business-analyst")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestDisabled(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	for _, cfg := range []Config{
		{BaseURL: srv.URL},
		{APIKey: "secret"},
		{},
	} {
		c := New(cfg)
		assert.False(t, c.Enabled())

		_, err := c.Get(context.Background(), "business-analyst")
		assert.ErrorIs(t, err, ErrDisabled)

		tpl, ok := c.FetchTemplate(context.Background(), "business-analyst")
		assert.False(t, ok)
		assert.Nil(t, tpl)
	}
	assert.Zero(t, calls.Load())
}

func TestFetchTemplate(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()
		rec := &recorded{}
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(remoteJSON))
		}, WithRecorder(rec))

		tpl, ok := c.FetchTemplate(context.Background(), "business-analyst")
		require.True(t, ok)
		assert.Equal(t, "Business Analyst", tpl.Name)
		assert.Equal(t, []string{"ok"}, rec.outcomes)
	})

	t.Run("absent on failure", func(t *testing.T) {
		t.Parallel()
		rec := &recorded{}
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}, WithRecorder(rec))

		tpl, ok := c.FetchTemplate(context.Background(), "business-analyst")
		assert.False(t, ok)
		assert.Nil(t, tpl)
		assert.Equal(t, []string{"http_status"}, rec.outcomes)
	})
}

func TestBreakerShortCircuits(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, WithHTTPConfig(func(cfg *httpclient.Config) {
		cfg.Breaker.ReadyToTrip = func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		}
	}))

	for i := 0; i < 5; i++ {
		_, ok := c.FetchTemplate(context.Background(), "business-analyst")
		assert.False(t, ok)
	}
	assert.Equal(t, int32(3), calls.Load())

	_, err := c.Get(context.Background(), "business-analyst")
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, httpclient.ErrUnavailable)
}

func TestPathEscaping(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/FLOWS/a%2Fb", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Get(context.Background(), "a/b")
	assert.ErrorIs(t, err, ErrHTTPStatus)
}
