package server

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/flowgallery/internal/domain/catalog"
	"github.com/GriffinCanCode/flowgallery/internal/domain/flow"
	"github.com/GriffinCanCode/flowgallery/internal/infrastructure/config"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Logging.Level = "error"
	cfg.Logging.Development = true
	cfg.RateLimit.Enabled = false
	return cfg
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func remoteTemplate(t *testing.T, name string) []byte {
	t.Helper()
	data, err := fs.ReadFile(catalog.FS(), "sdlc/business-analyst.json")
	require.NoError(t, err)
	tpl, err := flow.Decode(data)
	require.NoError(t, err)
	tpl.Name = name
	out, err := flow.Encode(tpl)
	require.NoError(t, err)
	return out
}

func TestNewServerRoutes(t *testing.T) {
	srv, err := NewServer(testConfig())
	require.NoError(t, err)
	h := srv.Handler()

	w := get(t, h, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = get(t, h, "/templates/sdlc/ba")
	require.Equal(t, http.StatusOK, w.Code)
	var tpl map[string]any
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &tpl))
	assert.Equal(t, "Business Analyst", tpl["name"])

	w = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "flowgallery_registry_templates 1")
	assert.Contains(t, w.Body.String(), "flowgallery_http_requests_total")
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = get(t, h, "/metrics/json")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRemoteTemplatePromotedOnStart(t *testing.T) {
	var hits atomic.Int32
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/FLOWS/7f1c", r.URL.Path)
		assert.Equal(t, "store-key", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(remoteTemplate(t, "Business Analyst (remote)"))
	}))
	defer store.Close()

	cfg := testConfig()
	cfg.FlowStore.URL = store.URL
	cfg.FlowStore.APIKey = "store-key"
	cfg.FlowStore.TemplateID = "7f1c"

	srv, err := NewServer(cfg)
	require.NoError(t, err)

	srv.gallery.Start()
	srv.gallery.Wait()
	assert.Equal(t, int32(1), hits.Load())

	w := get(t, srv.Handler(), "/templates/sdlc/ba")
	require.Equal(t, http.StatusOK, w.Code)
	var tpl map[string]any
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &tpl))
	assert.Equal(t, "Business Analyst (remote)", tpl["name"])

	assert.Contains(t, get(t, srv.Handler(), "/metrics").Body.String(), "flowgallery_registry_override_active 1")
}

func TestRemoteFailureKeepsBundledTemplate(t *testing.T) {
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer store.Close()

	cfg := testConfig()
	cfg.FlowStore.URL = store.URL
	cfg.FlowStore.APIKey = "store-key"
	cfg.FlowStore.Retries = 0

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	srv.gallery.Start()
	srv.gallery.Wait()

	w := get(t, srv.Handler(), "/templates/sdlc/ba")
	require.Equal(t, http.StatusOK, w.Code)
	var tpl map[string]any
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &tpl))
	assert.Equal(t, "Business Analyst", tpl["name"])
}

func TestRunAndClose(t *testing.T) {
	srv, err := NewServer(testConfig())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	// give ListenAndServe a moment to bind
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, srv.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
