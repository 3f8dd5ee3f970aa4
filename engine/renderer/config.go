package renderer

import (
	"fmt"

	"github.com/spaghettifunk/vega/engine/core"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
)

/** @brief Destination kind of a frame capture. */
type CaptureBufferType int

const (
	CaptureBufferTypeCPU CaptureBufferType = iota
	CaptureBufferTypeCoreVideo
)

/**
 * @brief Context configuration. Copied into context ownership at configure
 * time and immutable afterwards; reset releases the copy.
 */
type Config struct {
	Backend  metadata.Backend
	Platform metadata.Platform

	// Offscreen selects an engine-owned surface instead of the platform
	// swapchain. External surfaces are requested through the backend
	// specific configuration block.
	Offscreen bool
	Width     int32
	Height    int32
	Samples   int32

	CaptureBuffer     []byte
	CaptureBufferType CaptureBufferType

	Viewport   [4]int32
	Scissor    [4]int32
	ClearColor [4]float32

	// HUD enables the statistics overlay and the GPU draw-time queries
	// that bracket the scene draw.
	HUD bool

	SwapInterval  int32
	SetSurfacePTS bool

	// BackendConfig holds the backend specific extension block, e.g.
	// *gl.Config for the OpenGL family.
	BackendConfig interface{}
}

// Validate checks the backend-agnostic parts of the configuration without
// mutating anything.
func (c *Config) Validate() error {
	if c.Backend < metadata.BackendAuto || c.Backend > metadata.BackendVulkan {
		return fmt.Errorf("unknown backend %d: %w", c.Backend, core.ErrInvalidArg)
	}
	if c.Backend == metadata.BackendAuto && c.BackendConfig != nil {
		return fmt.Errorf("backend specific configuration is not allowed "+
			"while automatic backend selection is used: %w", core.ErrInvalidUsage)
	}
	switch c.CaptureBufferType {
	case CaptureBufferTypeCPU, CaptureBufferTypeCoreVideo:
	default:
		return fmt.Errorf("unknown capture buffer type %d: %w", c.CaptureBufferType, core.ErrInvalidArg)
	}
	return nil
}
