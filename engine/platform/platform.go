// Package platform owns the window-system glue: a glfw window for
// onscreen surfaces and the Vulkan surface extension names.
package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/vega/engine/core"
	"github.com/spaghettifunk/vega/engine/renderer/gl"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type Platform struct {
	Window *glfw.Window
}

func New() (*Platform, error) {
	return &Platform{
		Window: nil,
	}, nil
}

// Startup opens the application window. withGLContext selects an OpenGL
// window; otherwise the window is created without a client API, as
// required for Vulkan.
func (p *Platform) Startup(applicationName string, x, y, width, height uint32, withGLContext bool) error {
	if err := glfw.Init(); err != nil {
		core.LogFatal("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	if withGLContext {
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
	} else {
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.
	}

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogFatal("failed to create window: %s", err)
		return err
	}
	p.Window = window

	if withGLContext {
		p.Window.MakeContextCurrent()
	}

	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	return nil
}

func (p *Platform) Shutdown() error {
	glfw.Terminate()
	return nil
}

func (p *Platform) PumpMessages() {
	glfw.PollEvents()
}

// GetRequiredExtensionNames returns the Vulkan instance extensions the
// window system needs.
func (p *Platform) GetRequiredExtensionNames() []string {
	return glfw.GetRequiredInstanceExtensions()
}

// ApplyGLHooks fills the platform-dependent callbacks of a native GL
// context wrapper with their glfw implementations. The wire-level function
// loader stays with the embedder.
func (p *Platform) ApplyGLHooks(context *gl.GLContext) {
	window := p.Window
	context.ResizeFunc = func(width, height int32) (int32, int32, error) {
		w, h := window.GetFramebufferSize()
		return int32(w), int32(h), nil
	}
	context.SwapBuffersFunc = window.SwapBuffers
	context.SwapIntervalFunc = func(interval int32) {
		glfw.SwapInterval(int(interval))
	}
	context.ReleaseFunc = glfw.DetachCurrentContext

	w, h := window.GetFramebufferSize()
	context.Width = int32(w)
	context.Height = int32(h)
}
