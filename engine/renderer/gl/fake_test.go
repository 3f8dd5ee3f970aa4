package gl

import (
	"fmt"
)

// fakeFuncs is a recording in-memory implementation of the wire-level GL
// interface. It tracks object lifetimes and logs the operations the tests
// assert on.
type fakeFuncs struct {
	nextID uint32

	framebuffersAlive  map[uint32]bool
	framebuffersFreed  []uint32
	renderbuffersAlive map[uint32]bool
	texturesAlive      map[uint32]bool
	queriesAlive       map[uint32]bool

	bound map[Enum]uint32

	// attachmentSizes overrides GetFramebufferAttachmentParameteri results,
	// keyed by attachment then parameter. Missing entries report 8.
	attachmentSizes map[Enum]map[Enum]int32

	framebufferStatus Enum
	glError           Enum
	queryResults      map[uint32]uint64

	readPixels int
	finishes   int

	ops []string
}

func newFakeFuncs() *fakeFuncs {
	return &fakeFuncs{
		framebuffersAlive:  map[uint32]bool{},
		renderbuffersAlive: map[uint32]bool{},
		texturesAlive:      map[uint32]bool{},
		queriesAlive:       map[uint32]bool{},
		bound:              map[Enum]uint32{},
		attachmentSizes:    map[Enum]map[Enum]int32{},
		framebufferStatus:  FRAMEBUFFER_COMPLETE,
		queryResults:       map[uint32]uint64{},
	}
}

func (f *fakeFuncs) log(format string, args ...interface{}) {
	f.ops = append(f.ops, fmt.Sprintf(format, args...))
}

// opIndex returns the position of the first logged operation with the
// given prefix, or -1.
func (f *fakeFuncs) opIndex(prefix string) int {
	for i, op := range f.ops {
		if len(op) >= len(prefix) && op[:len(prefix)] == prefix {
			return i
		}
	}
	return -1
}

func (f *fakeFuncs) id() uint32 {
	f.nextID++
	return f.nextID
}

func (f *fakeFuncs) GenFramebuffer() uint32 {
	id := f.id()
	f.framebuffersAlive[id] = true
	return id
}

func (f *fakeFuncs) DeleteFramebuffer(fbo uint32) {
	delete(f.framebuffersAlive, fbo)
	f.framebuffersFreed = append(f.framebuffersFreed, fbo)
}

func (f *fakeFuncs) BindFramebuffer(target Enum, fbo uint32) {
	f.bound[target] = fbo
	f.log("bindfb %#x %d", uint32(target), fbo)
}

func (f *fakeFuncs) FramebufferRenderbuffer(target, attachment Enum, rbo uint32) {
	f.log("fbrenderbuffer %#x %d", uint32(attachment), rbo)
}

func (f *fakeFuncs) FramebufferTexture2D(target, attachment, textarget Enum, texture uint32, level int32) {
	f.log("fbtexture2d %#x %#x %d", uint32(attachment), uint32(textarget), texture)
}

func (f *fakeFuncs) CheckFramebufferStatus(target Enum) Enum {
	return f.framebufferStatus
}

func (f *fakeFuncs) GetFramebufferAttachmentParameteri(target, attachment, pname Enum) int32 {
	if sizes, ok := f.attachmentSizes[attachment]; ok {
		if size, ok := sizes[pname]; ok {
			return size
		}
	}
	return 8
}

func (f *fakeFuncs) GenRenderbuffer() uint32 {
	id := f.id()
	f.renderbuffersAlive[id] = true
	return id
}

func (f *fakeFuncs) DeleteRenderbuffer(rbo uint32) {
	delete(f.renderbuffersAlive, rbo)
}

func (f *fakeFuncs) BindRenderbuffer(target Enum, rbo uint32) {}

func (f *fakeFuncs) RenderbufferStorage(target, internalFormat Enum, width, height int32) {}

func (f *fakeFuncs) RenderbufferStorageMultisample(target Enum, samples int32, internalFormat Enum, width, height int32) {
}

func (f *fakeFuncs) GenTexture() uint32 {
	id := f.id()
	f.texturesAlive[id] = true
	return id
}

func (f *fakeFuncs) DeleteTexture(texture uint32) {
	delete(f.texturesAlive, texture)
}

func (f *fakeFuncs) BindTexture(target Enum, texture uint32) {}

func (f *fakeFuncs) TexImage2D(target Enum, level int32, internalFormat Enum, width, height int32, format, ty Enum) {
}

func (f *fakeFuncs) TexParameteri(target, pname Enum, param int32) {}

func (f *fakeFuncs) Viewport(x, y, width, height int32) {
	f.log("viewport %d %d %d %d", x, y, width, height)
}

func (f *fakeFuncs) Scissor(x, y, width, height int32) {
	f.log("scissor %d %d %d %d", x, y, width, height)
}

func (f *fakeFuncs) ClearColor(r, g, b, a float32) {}

func (f *fakeFuncs) Clear(mask uint32) {
	f.log("clear %#x", mask)
}

func (f *fakeFuncs) ClearBufferfv(buffer Enum, drawBuffer int32, values [4]float32) {
	f.log("clearbufferfv %#x %d", uint32(buffer), drawBuffer)
}

func (f *fakeFuncs) ClearBufferfi(buffer Enum, drawBuffer int32, depth float32, stencil int32) {
	f.log("clearbufferfi %#x %d", uint32(buffer), drawBuffer)
}

func (f *fakeFuncs) ColorMask(r, g, b, a bool) {
	f.log("colormask %t %t %t %t", r, g, b, a)
}

func (f *fakeFuncs) DepthMask(enabled bool) {
	f.log("depthmask %t", enabled)
}

func (f *fakeFuncs) StencilMask(mask uint32) {
	f.log("stencilmask %#x", mask)
}

func (f *fakeFuncs) Enable(cap Enum) {
	f.log("enable %#x", uint32(cap))
}

func (f *fakeFuncs) Disable(cap Enum) {
	f.log("disable %#x", uint32(cap))
}

func (f *fakeFuncs) ReadBuffer(src Enum) {
	f.log("readbuffer %#x", uint32(src))
}

func (f *fakeFuncs) DrawBuffers(bufs []Enum) {
	f.log("drawbuffers %d", len(bufs))
}

func (f *fakeFuncs) BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask uint32, filter Enum) {
	f.log("blit %#x", mask)
}

func (f *fakeFuncs) InvalidateFramebuffer(target Enum, attachments []Enum) {
	f.log("invalidate %d", len(attachments))
}

func (f *fakeFuncs) GenQueries(n int32) []uint32 {
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = f.id()
		f.queriesAlive[ids[i]] = true
	}
	return ids
}

func (f *fakeFuncs) DeleteQueries(ids []uint32) {
	for _, id := range ids {
		delete(f.queriesAlive, id)
	}
}

func (f *fakeFuncs) BeginQuery(target Enum, id uint32) {
	f.log("beginquery %d", id)
}

func (f *fakeFuncs) EndQuery(target Enum) {
	f.log("endquery")
}

func (f *fakeFuncs) QueryCounter(id uint32, target Enum) {
	f.log("querycounter %d", id)
}

func (f *fakeFuncs) GetQueryObjectui64(id uint32, pname Enum) uint64 {
	return f.queryResults[id]
}

func (f *fakeFuncs) GetIntegerv(pname Enum) int32 {
	if pname == DRAW_FRAMEBUFFER_BINDING {
		return int32(f.bound[FRAMEBUFFER])
	}
	return 0
}

func (f *fakeFuncs) ReadPixels(x, y, width, height int32, format, ty Enum, data []byte) {
	f.readPixels++
	for i := range data {
		data[i] = 0xab
	}
}

func (f *fakeFuncs) GetError() Enum {
	return f.glError
}

func (f *fakeFuncs) Finish() {
	f.finishes++
}
