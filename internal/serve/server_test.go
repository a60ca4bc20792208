package serve

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supdoc/internal/config"
)

func newTestServer(t *testing.T, files map[string]string) *Server {
	t.Helper()
	dir := t.TempDir()
	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	cfg := config.Default()
	cfg.SearchPath = []string{dir}
	cfg.Cache.Enabled = false
	cfg.Serve.RateLimit = 1000
	cfg.Serve.Burst = 1000
	return New(cfg)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestModuleEndpoint(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"m.py": `"""A module."""


def f(x):
    return x
`,
	})

	rec := get(t, s, "/modules/m")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "module", doc["type_name"])
	dict, ok := doc["dict"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, dict, "f")
}

func TestModuleEndpointQualname(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"m.py": "class C:\n    def f(self):\n        return 1\n",
	})

	rec := get(t, s, "/modules/m:C.f")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "C.f", doc["qualname"])
}

func TestModuleEndpointNotFound(t *testing.T) {
	s := newTestServer(t, map[string]string{"m.py": "x = 1\n"})

	assert.Equal(t, http.StatusNotFound, get(t, s, "/modules/missing").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/modules/m:nope").Code)
}

func TestDocsEndpoint(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"m.py": `"""A module."""


class Widget:
    """A widget."""
`,
	})

	rec := get(t, s, "/docs/m")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "<title>m</title>")
	assert.Contains(t, body, "Widget")
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	rec := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"up"}`, rec.Body.String())
}

func TestOpenAPIEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	rec := get(t, s, "/openapi.json")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/modules/{name}")
	assert.Contains(t, paths, "/docs/{name}")
	assert.Contains(t, paths, "/health")
}

func TestRateLimit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.py"), []byte("x = 1\n"), 0o644))

	cfg := config.Default()
	cfg.SearchPath = []string{dir}
	cfg.Cache.Enabled = false
	cfg.Serve.RateLimit = 1
	cfg.Serve.Burst = 1
	s := New(cfg)

	assert.Equal(t, http.StatusOK, get(t, s, "/modules/m").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, s, "/modules/m").Code)
}

func TestCachedDocumentServed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.py"), []byte("x = 1\n"), 0o644))

	cfg := config.Default()
	cfg.SearchPath = []string{dir}
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Serve.RateLimit = 1000
	cfg.Serve.Burst = 1000
	s := New(cfg)

	// First request populates the cache, second is served from it.
	require.Equal(t, http.StatusOK, get(t, s, "/modules/m").Code)
	entries, err := os.ReadDir(cfg.Cache.Dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	rec := get(t, s, "/modules/m")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "module", doc["type_name"])
}
