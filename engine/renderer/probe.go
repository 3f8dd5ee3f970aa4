package renderer

import (
	"github.com/spaghettifunk/vega/engine/core"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
)

type probeMode int

const (
	// probeFull initializes each backend and reports its capabilities.
	probeFull probeMode = iota
	// probeNoGraphics reports backend identity without opening a surface.
	probeNoGraphics
)

func backendProbe(desc *metadata.BackendDesc, config *Config, mode probeMode) error {
	ctx, err := New(config)
	if err != nil {
		return err
	}
	defer ctx.Destroy()

	desc.ID = config.Backend
	desc.StringID = ctx.StringID()
	desc.Name = ctx.Name()

	if mode == probeNoGraphics {
		return nil
	}

	if err := ctx.Init(); err != nil {
		return err
	}
	desc.Caps = LoadCaps(ctx.Features(), ctx.Limits())
	return nil
}

func backendsProbe(userConfig *Config, mode probeMode) ([]metadata.BackendDesc, error) {
	if userConfig == nil {
		userConfig = &Config{
			Width:     1,
			Height:    1,
			Offscreen: true,
		}
	}

	platform := userConfig.Platform
	if platform == metadata.PlatformAuto {
		var err error
		platform, err = DefaultPlatform()
		if err != nil {
			return nil, err
		}
	}

	var backends []metadata.BackendDesc
	for _, backend := range Compiled() {
		if userConfig.Backend != metadata.BackendAuto && userConfig.Backend != backend {
			continue
		}
		config := *userConfig
		config.Backend = backend
		config.Platform = platform

		var desc metadata.BackendDesc
		// A backend that cannot be created or initialized is simply
		// excluded from the results.
		if err := backendProbe(&desc, &config, mode); err != nil {
			core.LogDebug("excluding backend %q from probe: %v", backend.StringID(), err)
			continue
		}
		desc.IsDefault = backend == DefaultBackend()
		backends = append(backends, desc)
	}
	return backends, nil
}

// Probe enumerates the available backends, initializing each one to report
// its capability list. Backends that fail to initialize are excluded, never
// reported as an error.
func Probe(userConfig *Config) ([]metadata.BackendDesc, error) {
	return backendsProbe(userConfig, probeFull)
}

// Backends enumerates the compiled-in backends by identity only, without
// touching the native device.
func Backends(userConfig *Config) ([]metadata.BackendDesc, error) {
	return backendsProbe(userConfig, probeNoGraphics)
}
