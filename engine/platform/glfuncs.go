package platform

import (
	"fmt"

	glbind "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/spaghettifunk/vega/engine/renderer/gl"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
)

// glFuncs implements the wire-level OpenGL surface on top of the go-gl core
// bindings. The native context must be current on the calling thread.
type glFuncs struct{}

func (glFuncs) GenFramebuffer() uint32 {
	var id uint32
	glbind.GenFramebuffers(1, &id)
	return id
}

func (glFuncs) DeleteFramebuffer(fbo uint32) {
	glbind.DeleteFramebuffers(1, &fbo)
}

func (glFuncs) BindFramebuffer(target gl.Enum, fbo uint32) {
	glbind.BindFramebuffer(uint32(target), fbo)
}

func (glFuncs) FramebufferRenderbuffer(target, attachment gl.Enum, rbo uint32) {
	glbind.FramebufferRenderbuffer(uint32(target), uint32(attachment), glbind.RENDERBUFFER, rbo)
}

func (glFuncs) FramebufferTexture2D(target, attachment, textarget gl.Enum, texture uint32, level int32) {
	glbind.FramebufferTexture2D(uint32(target), uint32(attachment), uint32(textarget), texture, level)
}

func (glFuncs) CheckFramebufferStatus(target gl.Enum) gl.Enum {
	return gl.Enum(glbind.CheckFramebufferStatus(uint32(target)))
}

func (glFuncs) GetFramebufferAttachmentParameteri(target, attachment, pname gl.Enum) int32 {
	var value int32
	glbind.GetFramebufferAttachmentParameteriv(uint32(target), uint32(attachment), uint32(pname), &value)
	return value
}

func (glFuncs) GenRenderbuffer() uint32 {
	var id uint32
	glbind.GenRenderbuffers(1, &id)
	return id
}

func (glFuncs) DeleteRenderbuffer(rbo uint32) {
	glbind.DeleteRenderbuffers(1, &rbo)
}

func (glFuncs) BindRenderbuffer(target gl.Enum, rbo uint32) {
	glbind.BindRenderbuffer(uint32(target), rbo)
}

func (glFuncs) RenderbufferStorage(target, internalFormat gl.Enum, width, height int32) {
	glbind.RenderbufferStorage(uint32(target), uint32(internalFormat), width, height)
}

func (glFuncs) RenderbufferStorageMultisample(target gl.Enum, samples int32, internalFormat gl.Enum, width, height int32) {
	glbind.RenderbufferStorageMultisample(uint32(target), samples, uint32(internalFormat), width, height)
}

func (glFuncs) GenTexture() uint32 {
	var id uint32
	glbind.GenTextures(1, &id)
	return id
}

func (glFuncs) DeleteTexture(texture uint32) {
	glbind.DeleteTextures(1, &texture)
}

func (glFuncs) BindTexture(target gl.Enum, texture uint32) {
	glbind.BindTexture(uint32(target), texture)
}

func (glFuncs) TexImage2D(target gl.Enum, level int32, internalFormat gl.Enum, width, height int32, format, ty gl.Enum) {
	glbind.TexImage2D(uint32(target), level, int32(internalFormat), width, height, 0, uint32(format), uint32(ty), nil)
}

func (glFuncs) TexParameteri(target, pname gl.Enum, param int32) {
	glbind.TexParameteri(uint32(target), uint32(pname), param)
}

func (glFuncs) Viewport(x, y, width, height int32) {
	glbind.Viewport(x, y, width, height)
}

func (glFuncs) Scissor(x, y, width, height int32) {
	glbind.Scissor(x, y, width, height)
}

func (glFuncs) ClearColor(r, g, b, a float32) {
	glbind.ClearColor(r, g, b, a)
}

func (glFuncs) Clear(mask uint32) {
	glbind.Clear(mask)
}

func (glFuncs) ClearBufferfv(buffer gl.Enum, drawBuffer int32, values [4]float32) {
	glbind.ClearBufferfv(uint32(buffer), drawBuffer, &values[0])
}

func (glFuncs) ClearBufferfi(buffer gl.Enum, drawBuffer int32, depth float32, stencil int32) {
	glbind.ClearBufferfi(uint32(buffer), drawBuffer, depth, stencil)
}

func (glFuncs) ColorMask(r, g, b, a bool) {
	glbind.ColorMask(r, g, b, a)
}

func (glFuncs) DepthMask(enabled bool) {
	glbind.DepthMask(enabled)
}

func (glFuncs) StencilMask(mask uint32) {
	glbind.StencilMask(mask)
}

func (glFuncs) Enable(cap gl.Enum) {
	glbind.Enable(uint32(cap))
}

func (glFuncs) Disable(cap gl.Enum) {
	glbind.Disable(uint32(cap))
}

func (glFuncs) ReadBuffer(src gl.Enum) {
	glbind.ReadBuffer(uint32(src))
}

func (glFuncs) DrawBuffers(bufs []gl.Enum) {
	native := make([]uint32, len(bufs))
	for i, buf := range bufs {
		native[i] = uint32(buf)
	}
	glbind.DrawBuffers(int32(len(native)), &native[0])
}

func (glFuncs) BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask uint32, filter gl.Enum) {
	glbind.BlitFramebuffer(srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1, mask, uint32(filter))
}

// InvalidateFramebuffer needs GL 4.3; the 4.1 core bindings never report
// the invalidate feature, so this entry point is never reached.
func (glFuncs) InvalidateFramebuffer(target gl.Enum, attachments []gl.Enum) {}

func (glFuncs) GenQueries(n int32) []uint32 {
	ids := make([]uint32, n)
	glbind.GenQueries(n, &ids[0])
	return ids
}

func (glFuncs) DeleteQueries(ids []uint32) {
	if len(ids) == 0 {
		return
	}
	glbind.DeleteQueries(int32(len(ids)), &ids[0])
}

func (glFuncs) BeginQuery(target gl.Enum, id uint32) {
	glbind.BeginQuery(uint32(target), id)
}

func (glFuncs) EndQuery(target gl.Enum) {
	glbind.EndQuery(uint32(target))
}

func (glFuncs) QueryCounter(id uint32, target gl.Enum) {
	glbind.QueryCounter(id, uint32(target))
}

func (glFuncs) GetQueryObjectui64(id uint32, pname gl.Enum) uint64 {
	var value uint64
	glbind.GetQueryObjectui64v(id, uint32(pname), &value)
	return value
}

func (glFuncs) GetIntegerv(pname gl.Enum) int32 {
	var value int32
	glbind.GetIntegerv(uint32(pname), &value)
	return value
}

func (glFuncs) ReadPixels(x, y, width, height int32, format, ty gl.Enum, data []byte) {
	glbind.ReadPixels(x, y, width, height, uint32(format), uint32(ty), glbind.Ptr(data))
}

func (glFuncs) GetError() gl.Enum {
	return gl.Enum(glbind.GetError())
}

func (glFuncs) Finish() {
	glbind.Finish()
}

// NewGLContext loads the OpenGL functions for the window created by Startup
// and probes the context version, features and limits. The result is handed
// to the engine through the backend configuration.
func (p *Platform) NewGLContext() (*gl.GLContext, error) {
	if err := glbind.Init(); err != nil {
		return nil, fmt.Errorf("could not load the OpenGL functions: %w", err)
	}

	funcs := glFuncs{}
	major := funcs.GetIntegerv(glbind.MAJOR_VERSION)
	minor := funcs.GetIntegerv(glbind.MINOR_VERSION)
	version := int(major)*100 + int(minor)*10

	features := gl.FeatureFramebufferObject | gl.FeatureClearBuffer |
		gl.FeatureDrawBuffers | gl.FeatureTimerQuery |
		gl.FeatureDrawInstanced | gl.FeatureInstancedArray |
		gl.FeatureShaderTextureLOD | gl.FeatureTexture3D |
		gl.FeatureTextureCubeMap | gl.FeatureTextureNPOT |
		gl.FeatureUintUniforms | gl.FeatureUniformBufferObject

	context := &gl.GLContext{
		Funcs:    funcs,
		Backend:  metadata.BackendOpenGL,
		Version:  version,
		Features: features,
		Limits: metadata.Limits{
			MaxColorAttachments:     funcs.GetIntegerv(glbind.MAX_COLOR_ATTACHMENTS),
			MaxDrawBuffers:          funcs.GetIntegerv(glbind.MAX_DRAW_BUFFERS),
			MaxSamples:              funcs.GetIntegerv(glbind.MAX_SAMPLES),
			MaxTextureDimension1D:   funcs.GetIntegerv(glbind.MAX_TEXTURE_SIZE),
			MaxTextureDimension2D:   funcs.GetIntegerv(glbind.MAX_TEXTURE_SIZE),
			MaxTextureDimension3D:   funcs.GetIntegerv(glbind.MAX_3D_TEXTURE_SIZE),
			MaxTextureDimensionCube: funcs.GetIntegerv(glbind.MAX_CUBE_MAP_TEXTURE_SIZE),
		},
	}
	p.ApplyGLHooks(context)
	return context, nil
}
