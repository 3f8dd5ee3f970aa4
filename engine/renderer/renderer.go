package renderer

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/spaghettifunk/vega/engine/core"
	vmath "github.com/spaghettifunk/vega/engine/math"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
)

// Rendertarget abstracts a native framebuffer: a set of attachments plus
// their load/store/clear policy. Concrete types live in the backends.
type Rendertarget interface {
	Size() (width, height uint32)
}

// Context is the virtual contract every graphics backend implements. It is
// selected once at configure time and never changed for the lifetime of the
// engine context.
type Context interface {
	// Identity, valid before Init.
	StringID() string
	Name() string

	// Init allocates the native device/surface and the default
	// rendertarget pair. On failure the context is left in an
	// uninitialized-equivalent state.
	Init() error
	Resize(width, height int32, viewport *[4]int32) error
	SetCaptureBuffer(buffer []byte) error

	BeginUpdate(t float64) error
	EndUpdate(t float64) error
	BeginDraw(t float64) error
	EndDraw(t float64) error
	QueryDrawTime() (time.Duration, error)

	// WaitIdle blocks until all in-flight GPU work has finished. Resource
	// release must always happen behind it.
	WaitIdle()
	Destroy()

	DefaultRendertarget(op metadata.LoadOp) Rendertarget
	DefaultRendertargetDesc() *metadata.RendertargetDesc
	BeginRenderPass(rt Rendertarget)
	EndRenderPass()

	SetViewport(viewport [4]int32)
	Viewport() [4]int32
	SetScissor(scissor [4]int32)
	Scissor() [4]int32

	TransformProjectionMatrix(m vmath.Mat4) vmath.Mat4

	Features() metadata.Features
	Limits() *metadata.Limits
}

// Factory creates a context for one backend without touching the native
// device; graphics resources are only allocated by Init.
type Factory func(config *Config) Context

var (
	registryMu sync.RWMutex
	registry   = make(map[metadata.Backend]Factory)
)

// Register makes a backend available for selection and probing. It is meant
// to be called from the backend package's init function.
func Register(backend metadata.Backend, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[backend]; dup {
		panic(fmt.Sprintf("renderer: backend %q registered twice", backend.StringID()))
	}
	registry[backend] = factory
}

// compiledBackends is the fixed probe order.
var compiledBackends = []metadata.Backend{
	metadata.BackendOpenGL,
	metadata.BackendOpenGLES,
	metadata.BackendVulkan,
}

// Compiled returns the registered backends in probe order.
func Compiled() []metadata.Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var out []metadata.Backend
	for _, b := range compiledBackends {
		if _, ok := registry[b]; ok {
			out = append(out, b)
		}
	}
	return out
}

// DefaultBackend returns the backend used when the configuration selects
// automatic backend selection.
func DefaultBackend() metadata.Backend {
	switch runtime.GOOS {
	case "android", "ios":
		return metadata.BackendOpenGLES
	default:
		return metadata.BackendOpenGL
	}
}

// DefaultPlatform resolves the automatic platform selector for the host OS.
func DefaultPlatform() (metadata.Platform, error) {
	switch runtime.GOOS {
	case "linux":
		return metadata.PlatformXlib, nil
	case "darwin":
		return metadata.PlatformMacOS, nil
	case "ios":
		return metadata.PlatformIOS, nil
	case "windows":
		return metadata.PlatformWindows, nil
	case "android":
		return metadata.PlatformAndroid, nil
	}
	return metadata.PlatformAuto, fmt.Errorf("no platform available for %s: %w", runtime.GOOS, core.ErrUnsupported)
}

// New creates the context for the configured backend. The configuration must
// have its backend already resolved (not auto).
func New(config *Config) (Context, error) {
	registryMu.RLock()
	factory, ok := registry[config.Backend]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("backend %q not available with this build: %w",
			config.Backend.StringID(), core.ErrUnsupported)
	}
	return factory(config), nil
}
