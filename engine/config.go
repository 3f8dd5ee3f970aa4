package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/vega/engine/core"
	"github.com/spaghettifunk/vega/engine/renderer"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
)

// fileConfig is the TOML-facing shape of the engine configuration.
type fileConfig struct {
	Backend       string     `toml:"backend"`
	Offscreen     bool       `toml:"offscreen"`
	Width         int32      `toml:"width"`
	Height        int32      `toml:"height"`
	Samples       int32      `toml:"samples"`
	ClearColor    [4]float32 `toml:"clear_color"`
	HUD           bool       `toml:"hud"`
	SwapInterval  int32      `toml:"swap_interval"`
	SetSurfacePTS bool       `toml:"set_surface_pts"`

	// LiveControls points at the TOML file watched for live-control
	// updates. Empty disables the watcher.
	LiveControls string `toml:"live_controls"`
}

func backendFromString(s string) (metadata.Backend, error) {
	switch s {
	case "", "auto":
		return metadata.BackendAuto, nil
	case "opengl":
		return metadata.BackendOpenGL, nil
	case "opengles":
		return metadata.BackendOpenGLES, nil
	case "vulkan":
		return metadata.BackendVulkan, nil
	}
	return metadata.BackendAuto, fmt.Errorf("unknown backend %q: %w", s, core.ErrInvalidArg)
}

// LoadConfig reads a TOML configuration file into a context configuration.
// The live-control file path, if any, is returned alongside.
func LoadConfig(path string) (*renderer.Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("could not read configuration %q: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, "", fmt.Errorf("could not parse configuration %q: %w", path, err)
	}

	backend, err := backendFromString(fc.Backend)
	if err != nil {
		return nil, "", err
	}

	config := &renderer.Config{
		Backend:       backend,
		Offscreen:     fc.Offscreen,
		Width:         fc.Width,
		Height:        fc.Height,
		Samples:       fc.Samples,
		ClearColor:    fc.ClearColor,
		HUD:           fc.HUD,
		SwapInterval:  fc.SwapInterval,
		SetSurfacePTS: fc.SetSurfacePTS,
	}
	if err := config.Validate(); err != nil {
		return nil, "", err
	}
	return config, fc.LiveControls, nil
}
