package metadata

/** @brief Pixel/depth formats used by default rendertargets. */
type Format int

const (
	FormatUndefined Format = iota
	FormatR8G8B8A8Unorm
	FormatB8G8R8A8Unorm
	FormatD16Unorm
	FormatD24UnormS8Uint
)

// HasDepth reports whether the format carries a depth component.
func (f Format) HasDepth() bool {
	return f == FormatD16Unorm || f == FormatD24UnormS8Uint
}

// HasStencil reports whether the format carries a stencil component.
func (f Format) HasStencil() bool {
	return f == FormatD24UnormS8Uint
}

/** @brief The native storage kind a texture binds through. */
type TextureTarget uint8

const (
	TextureTargetRenderbuffer TextureTarget = iota
	TextureTarget2D
	TextureTargetRectangle
	TextureTargetCube
)

/**
 * @brief An engine-side texture record. The native handle is owned by the
 * backend that created it; rendertargets only reference it.
 */
type Texture struct {
	Target   TextureTarget
	Format   Format
	Width    uint32
	Height   uint32
	Samples  int32
	NativeID uint32
}
