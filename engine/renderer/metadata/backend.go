package metadata

/** @brief The graphics backend driving a GPU context. */
type Backend int

const (
	/** @brief Automatic backend selection, resolved at configure time. */
	BackendAuto Backend = iota
	BackendOpenGL
	BackendOpenGLES
	BackendVulkan
)

// StringID returns the stable external identifier of the backend.
// Unknown values are a programming error.
func (b Backend) StringID() string {
	switch b {
	case BackendOpenGL:
		return "opengl"
	case BackendOpenGLES:
		return "opengles"
	case BackendVulkan:
		return "vulkan"
	}
	panic("unknown backend")
}

/** @brief The windowing platform a context is bound to. */
type Platform int

const (
	PlatformAuto Platform = iota
	PlatformXlib
	PlatformWayland
	PlatformMacOS
	PlatformIOS
	PlatformWindows
	PlatformAndroid
)

/** @brief A probed backend descriptor, as reported to the caller. */
type BackendDesc struct {
	ID        Backend
	StringID  string
	Name      string
	IsDefault bool
	Caps      []Cap
}
