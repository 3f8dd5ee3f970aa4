// Package engine exposes the top-level rendering context: a configured
// graphics backend, an attached scene and the per-frame draw protocol, all
// serialized onto one worker goroutine.
package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/vega/engine/core"
	vmath "github.com/spaghettifunk/vega/engine/math"
	"github.com/spaghettifunk/vega/engine/renderer"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
	"github.com/spaghettifunk/vega/engine/scene"
)

// framebufferWrapper is the optional backend escape hatch for re-targeting
// an externally managed surface to another framebuffer.
type framebufferWrapper interface {
	WrapExternalFramebuffer(fbo uint32) error
}

// Context owns a graphics backend and the scene attached to it. All
// mutation happens on a private worker goroutine; the public methods are
// safe for concurrent use and block until the command has run.
type Context struct {
	dispatcher *dispatcher
	destroyed  atomic.Bool

	// Everything below is owned by the worker goroutine.
	configured bool
	config     renderer.Config
	gpu        renderer.Context
	scn        *scene.Scene
	controls   scene.Controls
	stats      *hud
	live       *liveController

	projectionStack []vmath.Mat4
	modelViewStack  []vmath.Mat4

	cpuUpdateTime time.Duration
}

// New creates an unconfigured context and starts its worker.
func New() *Context {
	core.MetricsInitialize()
	return &Context{dispatcher: newDispatcher()}
}

func (c *Context) dispatch(fn func() error) error {
	if c.destroyed.Load() {
		return fmt.Errorf("context has been destroyed: %w", core.ErrInvalidUsage)
	}
	return c.dispatcher.dispatch(fn)
}

func (c *Context) requireConfigured() error {
	if !c.configured {
		return fmt.Errorf("context must be configured first: %w", core.ErrInvalidUsage)
	}
	return nil
}

// Configure selects and initializes the graphics backend. A configured
// context is reset first; on failure the context is left unconfigured.
func (c *Context) Configure(userConfig *renderer.Config) error {
	return c.dispatch(func() error { return c.configure(userConfig) })
}

func (c *Context) configure(userConfig *renderer.Config) error {
	if c.configured {
		c.reset()
	}

	if err := userConfig.Validate(); err != nil {
		return err
	}

	config := *userConfig
	if config.Backend == metadata.BackendAuto {
		config.Backend = renderer.DefaultBackend()
	}
	if config.Platform == metadata.PlatformAuto {
		platform, err := renderer.DefaultPlatform()
		if err != nil {
			return err
		}
		config.Platform = platform
	}

	gpu, err := renderer.New(&config)
	if err != nil {
		return err
	}
	if err := gpu.Init(); err != nil {
		gpu.Destroy()
		return fmt.Errorf("could not initialize the %s backend: %w", config.Backend.StringID(), err)
	}

	if config.HUD {
		stats, err := newHUD()
		if err != nil {
			gpu.Destroy()
			return err
		}
		c.stats = stats
	}

	c.config = config
	c.gpu = gpu
	c.projectionStack = []vmath.Mat4{vmath.NewMat4Identity()}
	c.modelViewStack = []vmath.Mat4{vmath.NewMat4Identity()}
	c.configured = true

	core.LogInfo("configured the %s backend (%dx%d)", gpu.Name(), config.Width, config.Height)
	return nil
}

// Resize adjusts an onscreen or external surface, with an optional
// explicit viewport.
func (c *Context) Resize(width, height int32, viewport *[4]int32) error {
	return c.dispatch(func() error {
		if err := c.requireConfigured(); err != nil {
			return err
		}
		return c.gpu.Resize(width, height, viewport)
	})
}

// SetCaptureBuffer redirects offscreen frame capture into buffer; nil
// detaches the current buffer.
func (c *Context) SetCaptureBuffer(buffer []byte) error {
	return c.dispatch(func() error {
		if err := c.requireConfigured(); err != nil {
			return err
		}
		return c.gpu.SetCaptureBuffer(buffer)
	})
}

// SetScene attaches a scene, taking a reference on it. The previous scene
// reference is dropped after in-flight GPU work has finished. A nil scene
// detaches only.
func (c *Context) SetScene(scn *scene.Scene) error {
	return c.dispatch(func() error {
		if err := c.requireConfigured(); err != nil {
			return err
		}
		if scn != nil {
			scn.Ref()
		}
		if c.scn != nil {
			c.gpu.WaitIdle()
			c.controls.Release()
			c.controls = nil
			c.scn.Unref()
		}
		c.scn = scn
		if scn != nil {
			c.controls = scene.LiveControls(scn.Root())
		}
		return nil
	})
}

// LiveControls snapshots the live controls of the attached scene. The
// caller releases the result when done with it.
func (c *Context) LiveControls() (scene.Controls, error) {
	var controls scene.Controls
	err := c.dispatch(func() error {
		if err := c.requireConfigured(); err != nil {
			return err
		}
		if c.scn == nil {
			return fmt.Errorf("no scene attached: %w", core.ErrInvalidUsage)
		}
		controls = scene.LiveControls(c.scn.Root())
		return nil
	})
	return controls, err
}

// PrepareDraw runs the CPU side of the frame at time t without drawing:
// scene preparation and the update-time measurement.
func (c *Context) PrepareDraw(t float64) error {
	return c.dispatch(func() error {
		if err := c.requireConfigured(); err != nil {
			return err
		}
		return c.prepareDraw(t)
	})
}

func (c *Context) prepareDraw(t float64) error {
	start := time.Now()

	if err := c.gpu.BeginUpdate(t); err != nil {
		return err
	}
	if c.scn != nil {
		if err := c.scn.Root().Prepare(t); err != nil {
			return fmt.Errorf("could not prepare the scene for t=%g: %w", t, err)
		}
	}
	if err := c.gpu.EndUpdate(t); err != nil {
		return err
	}

	c.cpuUpdateTime = time.Since(start)
	return nil
}

// Draw renders the frame at time t. A frame is never empty: with no scene
// attached, the default rendertarget is still cleared in a dedicated pass.
func (c *Context) Draw(t float64) error {
	return c.dispatch(func() error {
		if err := c.requireConfigured(); err != nil {
			return err
		}
		if err := c.prepareDraw(t); err != nil {
			return err
		}
		return c.drawFrame(t)
	})
}

func (c *Context) drawFrame(t float64) error {
	start := time.Now()

	if err := c.gpu.BeginDraw(t); err != nil {
		return err
	}

	rt := c.gpu.DefaultRendertarget(metadata.LoadOpClear)
	c.gpu.BeginRenderPass(rt)
	if c.scn != nil {
		c.scn.Root().Draw(c)
	}
	c.gpu.EndRenderPass()
	cpuDrawTime := time.Since(start)

	if c.config.HUD {
		// Timer queries resolve at end of draw, so the overlay shows the
		// previous frame's GPU time.
		gpuDrawTime, err := c.gpu.QueryDrawTime()
		if err != nil {
			gpuDrawTime = 0
		}
		core.MetricsSampleDrawTimes(c.cpuUpdateTime, cpuDrawTime, gpuDrawTime)
		c.stats.update()

		rtLoad := c.gpu.DefaultRendertarget(metadata.LoadOpLoad)
		c.gpu.BeginRenderPass(rtLoad)
		c.stats.draw(c)
		c.gpu.EndRenderPass()
	}

	err := c.gpu.EndDraw(t)
	core.MetricsUpdate(time.Since(start))
	return err
}

// GLWrapFramebuffer re-targets an externally managed OpenGL surface to
// another framebuffer. Only valid on external GL contexts.
func (c *Context) GLWrapFramebuffer(fbo uint32) error {
	return c.dispatch(func() error {
		if err := c.requireConfigured(); err != nil {
			return err
		}
		wrapper, ok := c.gpu.(framebufferWrapper)
		if !ok {
			return fmt.Errorf("the %s backend cannot wrap framebuffers: %w",
				c.gpu.Name(), core.ErrUnsupported)
		}
		return wrapper.WrapExternalFramebuffer(fbo)
	})
}

// Reset detaches the scene and destroys the graphics backend, returning
// the context to its unconfigured state.
func (c *Context) Reset() error {
	c.stopLiveControls()
	return c.dispatch(func() error {
		c.reset()
		return nil
	})
}

func (c *Context) reset() {
	if !c.configured {
		return
	}
	c.gpu.WaitIdle()
	if c.scn != nil {
		c.controls.Release()
		c.controls = nil
		c.scn.Unref()
		c.scn = nil
	}
	c.gpu.Destroy()
	c.gpu = nil
	c.stats = nil
	c.projectionStack = nil
	c.modelViewStack = nil
	c.configured = false
}

// Destroy resets the context and terminates its worker. The context must
// not be used afterwards.
func (c *Context) Destroy() {
	if c.destroyed.Load() {
		return
	}
	c.Reset()
	c.destroyed.Store(true)
	c.dispatcher.stop()
}

// GPU exposes the backend context to nodes during Draw.
func (c *Context) GPU() renderer.Context {
	return c.gpu
}

// ModelViewMatrix returns the top of the model-view matrix stack.
func (c *Context) ModelViewMatrix() vmath.Mat4 {
	return c.modelViewStack[len(c.modelViewStack)-1]
}

// ProjectionMatrix returns the top of the projection matrix stack,
// remapped to the backend's clip-space conventions.
func (c *Context) ProjectionMatrix() vmath.Mat4 {
	top := c.projectionStack[len(c.projectionStack)-1]
	return c.gpu.TransformProjectionMatrix(top)
}

// PushModelViewMatrix multiplies m onto the model-view stack.
func (c *Context) PushModelViewMatrix(m vmath.Mat4) {
	c.modelViewStack = append(c.modelViewStack, c.ModelViewMatrix().Mul(m))
}

// PopModelViewMatrix restores the previous model-view matrix.
func (c *Context) PopModelViewMatrix() {
	if len(c.modelViewStack) <= 1 {
		panic("model-view matrix stack underflow")
	}
	c.modelViewStack = c.modelViewStack[:len(c.modelViewStack)-1]
}

// PushProjectionMatrix multiplies m onto the projection stack.
func (c *Context) PushProjectionMatrix(m vmath.Mat4) {
	top := c.projectionStack[len(c.projectionStack)-1]
	c.projectionStack = append(c.projectionStack, top.Mul(m))
}

// PopProjectionMatrix restores the previous projection matrix.
func (c *Context) PopProjectionMatrix() {
	if len(c.projectionStack) <= 1 {
		panic("projection matrix stack underflow")
	}
	c.projectionStack = c.projectionStack[:len(c.projectionStack)-1]
}
