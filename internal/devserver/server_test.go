package devserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relight-dev/relight/internal/compiler"
	"github.com/relight-dev/relight/internal/config"
	"github.com/relight-dev/relight/internal/errors"
)

// buildProject compiles the test project so a bundle exists on disk.
func buildProject(t *testing.T, cfg *config.Config, mode config.Mode) {
	t.Helper()
	require.NoError(t, compiler.Build(context.Background(), cfg, compiler.BuildOptions{Mode: mode}))
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func TestManager_ServesBundleRoutes(t *testing.T) {
	cfg := newTestProject(t, map[string]string{
		"index.html":      "<html><body><h1>home</h1></body></html>",
		"api/status.json": `{"ok": true}`,
	})
	buildProject(t, cfg, config.ModeDevelopment)

	m, err := NewManager(cfg, config.ModeDevelopment, ManagerOptions{ChannelPort: 8002})
	require.NoError(t, err)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, body := get(t, srv, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<h1>home</h1>")
	assert.Contains(t, body, "WebSocket",
		"development HTML responses carry the live-reload client")
	assert.Contains(t, body, ":8002/socket")

	resp, body = get(t, srv, "/api/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"ok": true}`, body)
	assert.NotContains(t, body, "WebSocket")

	resp, _ = get(t, srv, "/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestManager_ProductionSkipsScriptInjection(t *testing.T) {
	cfg := newTestProject(t, map[string]string{"index.html": "<html><body>x</body></html>"})
	buildProject(t, cfg, config.ModeProduction)

	m, err := NewManager(cfg, config.ModeProduction, ManagerOptions{})
	require.NoError(t, err)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	_, body := get(t, srv, "/")
	assert.NotContains(t, body, "WebSocket")
}

// The purge-before-dispatch step is what makes a rebuilt artifact visible
// without restarting: a second request after the bundle file changed must
// serve the new content.
func TestManager_PurgeReloadsRebuiltArtifact(t *testing.T) {
	cfg := newTestProject(t, map[string]string{"index.html": "<h1>v1</h1>"})
	buildProject(t, cfg, config.ModeDevelopment)

	m, err := NewManager(cfg, config.ModeDevelopment, ManagerOptions{ChannelPort: 8002})
	require.NoError(t, err)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	_, body := get(t, srv, "/")
	assert.Contains(t, body, "v1")
	assert.Equal(t, 1, m.Cache().Len(), "first dispatch loads the bundle")

	// Simulate a rebuild by recompiling with changed source.
	require.NoError(t, os.WriteFile(
		cfg.RoutesPath()+"/index.html", []byte("<h1>v2</h1>"), 0644))
	buildProject(t, cfg, config.ModeDevelopment)

	_, body = get(t, srv, "/")
	assert.Contains(t, body, "v2", "purge must expose the rebuilt bundle")
}

func TestManager_CustomServerFailsBeforeBind(t *testing.T) {
	cfg := newTestProject(t, map[string]string{"index.html": "x"})
	cfg.Server = "cmd/custom/main.go"

	m, err := NewManager(cfg, config.ModeDevelopment, ManagerOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "E301"))
	assert.Nil(t, m, "no manager, hence no listener, may exist")
}

func TestManager_CloseWithoutListenIsNoop(t *testing.T) {
	cfg := newTestProject(t, map[string]string{"index.html": "x"})

	m, err := NewManager(cfg, config.ModeDevelopment, ManagerOptions{})
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Empty(t, m.Addr())
}

func TestManager_ListenHonorsPortEnv(t *testing.T) {
	cfg := newTestProject(t, map[string]string{"index.html": "x"})
	buildProject(t, cfg, config.ModeDevelopment)

	port := freePort(t)
	t.Setenv("PORT", port)
	t.Setenv("HOST", "127.0.0.1")

	m, err := NewManager(cfg, config.ModeDevelopment, ManagerOptions{})
	require.NoError(t, err)
	defer m.Close()

	url, err := m.Listen()
	require.NoError(t, err)
	assert.Contains(t, url, port)
	assert.Contains(t, m.Addr(), port)
}

func TestManager_MissingArtifactServesPendingPage(t *testing.T) {
	cfg := newTestProject(t, map[string]string{"index.html": "x"})
	// No build: the artifact does not exist yet.

	m, err := NewManager(cfg, config.ModeDevelopment, ManagerOptions{ChannelPort: 8002})
	require.NoError(t, err)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, body := get(t, srv, "/")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "Application Not Built")
	assert.Contains(t, body, "WebSocket",
		"the pending page reloads itself once a build lands")
}

func TestManager_MetricsEndpoint(t *testing.T) {
	cfg := newTestProject(t, map[string]string{"index.html": "x"})
	buildProject(t, cfg, config.ModeDevelopment)

	metrics := NewMetrics()
	metrics.Sink().OnRebuildEvent(RebuildEvent{Kind: RebuildFinished, OK: true})

	m, err := NewManager(cfg, config.ModeDevelopment, ManagerOptions{Metrics: metrics})
	require.NoError(t, err)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, body := get(t, srv, "/_relight/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "relight_rebuilds_total")
}
