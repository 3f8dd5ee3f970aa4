package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/vega/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vega.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
backend = "vulkan"
offscreen = true
width = 640
height = 480
samples = 4
clear_color = [0.1, 0.2, 0.3, 1.0]
hud = true
swap_interval = 1
set_surface_pts = true
live_controls = "controls.toml"
`)

	config, liveControls, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, metadata.BackendVulkan, config.Backend)
	assert.True(t, config.Offscreen)
	assert.Equal(t, int32(640), config.Width)
	assert.Equal(t, int32(480), config.Height)
	assert.Equal(t, int32(4), config.Samples)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1.0}, config.ClearColor)
	assert.True(t, config.HUD)
	assert.Equal(t, int32(1), config.SwapInterval)
	assert.True(t, config.SetSurfacePTS)
	assert.Equal(t, "controls.toml", liveControls)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, "")

	config, liveControls, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, metadata.BackendAuto, config.Backend)
	assert.False(t, config.Offscreen)
	assert.Empty(t, liveControls)
}

func TestLoadConfigUnknownBackend(t *testing.T) {
	path := writeConfigFile(t, `backend = "direct3d"`)

	_, _, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "direct3d")
}

func TestLoadConfigParseError(t *testing.T) {
	path := writeConfigFile(t, "width = [not toml")

	_, _, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
