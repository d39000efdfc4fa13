package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relight-dev/relight/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"name": "demo"}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Name)
	assert.Equal(t, "app", cfg.AppDirectory)
	assert.Equal(t, DefaultOutput, cfg.AssetsBuildDirectory)
	assert.Equal(t, DefaultChannelPort, cfg.DevChannelPort)
	assert.Equal(t, DefaultHost, cfg.Dev.Host)
	assert.False(t, cfg.HasCustomServer())
}

func TestLoad_PathResolution(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"assetsBuildDirectory": "out", "serverBuildPath": "out/server.app.json"}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "out"), cfg.OutputPath())
	assert.Equal(t, filepath.Join(dir, "out", "server.app.json"), cfg.ServerBuildAbs())
	assert.Equal(t, filepath.Join(dir, "app", "routes"), cfg.RoutesPath())
	assert.Equal(t, dir, cfg.Dir())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, "E100"))
}

func TestLoad_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"name": `)

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "E101"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		json string
		code string
	}{
		{"channel port too large", `{"devChannelPort": 70000}`, "E102"},
		{"dev port negative", `{"dev": {"port": -1}}`, "E102"},
		{"negative delay", `{"broadcastDelayMs": -5}`, "E103"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.json)

			_, err := Load(dir)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "want %s, got %v", tt.code, err)
		})
	}
}

func TestBroadcastDelay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"broadcastDelayMs": 50}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.BroadcastDelay())
}

func TestHasCustomServer(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"server": "cmd/server/main.go"}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.HasCustomServer())
}
