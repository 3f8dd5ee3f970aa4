package gl

// Enum is a GL enumerant.
type Enum uint32

const (
	NO_ERROR Enum = 0

	FRAMEBUFFER      Enum = 0x8D40
	READ_FRAMEBUFFER Enum = 0x8CA8
	DRAW_FRAMEBUFFER Enum = 0x8CA9
	RENDERBUFFER     Enum = 0x8D41

	COLOR_ATTACHMENT0        Enum = 0x8CE0
	DEPTH_ATTACHMENT         Enum = 0x8D00
	STENCIL_ATTACHMENT       Enum = 0x8D20
	DEPTH_STENCIL_ATTACHMENT Enum = 0x821A

	TEXTURE_2D                  Enum = 0x0DE1
	TEXTURE_RECTANGLE           Enum = 0x84F5
	TEXTURE_CUBE_MAP_POSITIVE_X Enum = 0x8515

	TEXTURE_MIN_FILTER Enum = 0x2801
	TEXTURE_MAG_FILTER Enum = 0x2800
	NEAREST            Enum = 0x2600

	COLOR_BUFFER_BIT   uint32 = 0x4000
	DEPTH_BUFFER_BIT   uint32 = 0x0100
	STENCIL_BUFFER_BIT uint32 = 0x0400

	COLOR         Enum = 0x1800
	DEPTH         Enum = 0x1801
	STENCIL       Enum = 0x1802
	DEPTH_STENCIL Enum = 0x84F9

	BACK Enum = 0x0405

	SCISSOR_TEST Enum = 0x0C11

	FRAMEBUFFER_COMPLETE                Enum = 0x8CD5
	FRAMEBUFFER_ATTACHMENT_RED_SIZE     Enum = 0x8212
	FRAMEBUFFER_ATTACHMENT_GREEN_SIZE   Enum = 0x8213
	FRAMEBUFFER_ATTACHMENT_BLUE_SIZE    Enum = 0x8214
	FRAMEBUFFER_ATTACHMENT_ALPHA_SIZE   Enum = 0x8215
	FRAMEBUFFER_ATTACHMENT_DEPTH_SIZE   Enum = 0x8216
	FRAMEBUFFER_ATTACHMENT_STENCIL_SIZE Enum = 0x8217
	DRAW_FRAMEBUFFER_BINDING            Enum = 0x8CA6

	TIME_ELAPSED Enum = 0x88BF
	TIMESTAMP    Enum = 0x8E28
	QUERY_RESULT Enum = 0x8866

	RGBA             Enum = 0x1908
	UNSIGNED_BYTE    Enum = 0x1401
	RGBA8            Enum = 0x8058
	DEPTH24_STENCIL8 Enum = 0x88F0
)

// Functions is the wire-level OpenGL surface the context drives. The
// concrete implementation belongs to the embedder (a cgo binding, an EGL
// loader, a browser shim); tests provide a recording fake.
type Functions interface {
	// Framebuffers
	GenFramebuffer() uint32
	DeleteFramebuffer(fbo uint32)
	BindFramebuffer(target Enum, fbo uint32)
	FramebufferRenderbuffer(target, attachment Enum, rbo uint32)
	FramebufferTexture2D(target, attachment, textarget Enum, texture uint32, level int32)
	CheckFramebufferStatus(target Enum) Enum
	GetFramebufferAttachmentParameteri(target, attachment, pname Enum) int32

	// Renderbuffers
	GenRenderbuffer() uint32
	DeleteRenderbuffer(rbo uint32)
	BindRenderbuffer(target Enum, rbo uint32)
	RenderbufferStorage(target, internalFormat Enum, width, height int32)
	RenderbufferStorageMultisample(target Enum, samples int32, internalFormat Enum, width, height int32)

	// Textures
	GenTexture() uint32
	DeleteTexture(texture uint32)
	BindTexture(target Enum, texture uint32)
	TexImage2D(target Enum, level int32, internalFormat Enum, width, height int32, format, ty Enum)
	TexParameteri(target, pname Enum, param int32)

	// Rasterizer state
	Viewport(x, y, width, height int32)
	Scissor(x, y, width, height int32)

	// Clears and write masks
	ClearColor(r, g, b, a float32)
	Clear(mask uint32)
	ClearBufferfv(buffer Enum, drawBuffer int32, values [4]float32)
	ClearBufferfi(buffer Enum, drawBuffer int32, depth float32, stencil int32)
	ColorMask(r, g, b, a bool)
	DepthMask(enabled bool)
	StencilMask(mask uint32)
	Enable(cap Enum)
	Disable(cap Enum)

	// Draw buffer routing and resolves
	ReadBuffer(src Enum)
	DrawBuffers(bufs []Enum)
	BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask uint32, filter Enum)
	InvalidateFramebuffer(target Enum, attachments []Enum)

	// Timer queries
	GenQueries(n int32) []uint32
	DeleteQueries(ids []uint32)
	BeginQuery(target Enum, id uint32)
	EndQuery(target Enum)
	QueryCounter(id uint32, target Enum)
	GetQueryObjectui64(id uint32, pname Enum) uint64

	// Readback and synchronization
	GetIntegerv(pname Enum) int32
	ReadPixels(x, y, width, height int32, format, ty Enum, data []byte)
	GetError() Enum
	Finish()
}
