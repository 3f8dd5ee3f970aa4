package gl

import (
	"fmt"

	"github.com/spaghettifunk/vega/engine/core"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
)

// Features are the native GL feature bits reported by the context provider,
// probed from the GL version and extension string.
type Features uint64

const (
	FeatureFramebufferObject Features = 1 << iota
	FeatureClearBuffer
	FeatureDrawBuffers
	FeatureInvalidateSubdata
	FeatureTimerQuery
	FeatureEXTDisjointTimerQuery
	FeatureComputeShader
	FeatureDrawInstanced
	FeatureInstancedArray
	FeatureShaderTextureLOD
	FeatureSoftware
	FeatureTexture3D
	FeatureTextureCubeMap
	FeatureTextureNPOT
	FeatureUintUniforms
	FeatureUniformBufferObject
	FeatureShaderStorageBufferObject
	FeatureColorBufferFloat
	FeatureColorBufferHalfFloat
)

// FeatureComputeShaderAll groups everything compute dispatch relies on.
const FeatureComputeShaderAll = FeatureComputeShader | FeatureShaderStorageBufferObject

// All reports whether every bit of mask is set.
func (f Features) All(mask Features) bool { return f&mask == mask }

// Any reports whether at least one bit of mask is set.
func (f Features) Any(mask Features) bool { return f&mask != 0 }

// GLContext wraps the native OpenGL context handed over by the embedder:
// the wire-level functions plus everything probed at creation time. The
// engine never opens the native context itself.
type GLContext struct {
	Funcs   Functions
	Backend metadata.Backend

	// Version is the context version (major*100 + minor*10), GLSLVersion
	// the shading language version.
	Version     int
	GLSLVersion int

	Features Features
	Limits   metadata.Limits

	// Swapchain dimensions and sample count for onscreen contexts.
	Width   int32
	Height  int32
	Samples int32

	Offscreen bool

	// DefaultFramebuffer is the platform framebuffer id. On some platforms
	// (EAGL) it changes across resizes, hence DefaultFramebufferFunc.
	DefaultFramebuffer     uint32
	DefaultFramebufferFunc func() uint32

	// Optional platform hooks.
	ResizeFunc        func(width, height int32) (int32, int32, error)
	SwapBuffersFunc   func()
	SwapIntervalFunc  func(interval int32)
	SetSurfacePTSFunc func(t float64)
	ReleaseFunc       func()
}

func (c *GLContext) defaultFramebuffer() uint32 {
	if c.DefaultFramebufferFunc != nil {
		return c.DefaultFramebufferFunc()
	}
	return c.DefaultFramebuffer
}

func (c *GLContext) resize(width, height int32) error {
	if c.ResizeFunc == nil {
		return fmt.Errorf("native context does not support resizing: %w", core.ErrUnsupported)
	}
	w, h, err := c.ResizeFunc(width, height)
	if err != nil {
		return err
	}
	c.Width, c.Height = w, h
	return nil
}

func (c *GLContext) swapBuffers() {
	if c.SwapBuffersFunc != nil {
		c.SwapBuffersFunc()
	}
}

func (c *GLContext) checkError(op string) error {
	if e := c.Funcs.GetError(); e != NO_ERROR {
		return fmt.Errorf("%s: OpenGL error 0x%04x: %w", op, uint32(e), core.ErrExternal)
	}
	return nil
}

// Config is the OpenGL-family specific configuration block, supplied
// through the generic configuration's BackendConfig field.
type Config struct {
	// Context is the native context wrapper; required.
	Context *GLContext
	// External marks the rendering surface as externally managed: the
	// engine renders into ExternalFramebuffer and never owns the surface.
	External            bool
	ExternalFramebuffer uint32
}
