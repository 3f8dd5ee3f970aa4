package gl

import (
	"fmt"

	"github.com/spaghettifunk/vega/engine/core"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
)

func attachmentIndexFor(format metadata.Format) Enum {
	switch format {
	case metadata.FormatD16Unorm:
		return DEPTH_ATTACHMENT
	case metadata.FormatD24UnormS8Uint:
		return DEPTH_STENCIL_ATTACHMENT
	default:
		return COLOR_ATTACHMENT0
	}
}

// Rendertarget is the OpenGL framebuffer abstraction. The clear, resolve
// and invalidate strategies are selected once at init from the context
// features and cached, not re-dispatched per pass.
type Rendertarget struct {
	ctx    *Context
	params metadata.RendertargetParams
	width  uint32
	height uint32

	id        uint32
	resolveID uint32
	// wrapped rendertargets never own the underlying framebuffer id.
	wrapped bool

	clearFlags            uint32
	drawBuffers           []Enum
	invalidateAttachments []Enum

	clear      func(*Rendertarget)
	resolve    func(*Rendertarget)
	invalidate func(*Rendertarget)
}

func newRendertarget(ctx *Context) *Rendertarget {
	return &Rendertarget{ctx: ctx}
}

func (s *Rendertarget) Size() (uint32, uint32) {
	return s.width, s.height
}

func (s *Rendertarget) resolveNoDrawBuffers() {
	funcs := s.ctx.gl.Funcs
	flags := COLOR_BUFFER_BIT | DEPTH_BUFFER_BIT | STENCIL_BUFFER_BIT
	w, h := int32(s.width), int32(s.height)
	funcs.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, flags, NEAREST)
}

func (s *Rendertarget) resolveDrawBuffers() {
	funcs := s.ctx.gl.Funcs
	w, h := int32(s.width), int32(s.height)

	for i, attachment := range s.params.Colors {
		if attachment.ResolveTarget == nil {
			continue
		}
		flags := COLOR_BUFFER_BIT
		if i == 0 {
			flags |= DEPTH_BUFFER_BIT | STENCIL_BUFFER_BIT
		}
		funcs.ReadBuffer(COLOR_ATTACHMENT0 + Enum(i))
		// Rebind the single active draw buffer so the blit lands on the
		// destination at the same attachment index.
		bufs := make([]Enum, i+1)
		bufs[i] = COLOR_ATTACHMENT0 + Enum(i)
		funcs.DrawBuffers(bufs)
		funcs.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, flags, NEAREST)
	}
	funcs.ReadBuffer(COLOR_ATTACHMENT0)
	funcs.DrawBuffers(s.drawBuffers)
}

func (s *Rendertarget) clearBuffer() {
	funcs := s.ctx.gl.Funcs
	if len(s.params.Colors) >= 1 {
		clearValue := s.params.Colors[0].ClearValue
		funcs.ClearColor(clearValue[0], clearValue[1], clearValue[2], clearValue[3])
		funcs.Clear(s.clearFlags)
	}
}

func (s *Rendertarget) clearBuffers() {
	funcs := s.ctx.gl.Funcs

	for i, color := range s.params.Colors {
		if color.LoadOp != metadata.LoadOpLoad {
			funcs.ClearBufferfv(COLOR, int32(i), color.ClearValue)
		}
	}

	if s.params.DepthStencil.Attachment != nil || s.wrapped {
		if s.params.DepthStencil.LoadOp != metadata.LoadOpLoad {
			funcs.ClearBufferfi(DEPTH_STENCIL, 0, 1.0, 0)
		}
	}
}

func (s *Rendertarget) invalidateNoop() {}

func (s *Rendertarget) doInvalidate() {
	s.ctx.gl.Funcs.InvalidateFramebuffer(FRAMEBUFFER, s.invalidateAttachments)
}

func (s *Rendertarget) requireResolveFBO() bool {
	for _, attachment := range s.params.Colors {
		if attachment.ResolveTarget != nil {
			return true
		}
	}
	return false
}

func (s *Rendertarget) createFBO(resolve bool) (uint32, error) {
	gl := s.ctx.gl
	funcs := gl.Funcs
	limits := &gl.Limits

	id := funcs.GenFramebuffer()
	funcs.BindFramebuffer(FRAMEBUFFER, id)

	nbColorAttachments := int32(0)
	for _, attachment := range s.params.Colors {
		texture := attachment.Attachment
		layer := attachment.AttachmentLayer
		if resolve {
			texture = attachment.ResolveTarget
			layer = attachment.ResolveTargetLayer
		}
		if texture == nil {
			continue
		}

		attachmentIndex := attachmentIndexFor(texture.Format)
		if attachmentIndex != COLOR_ATTACHMENT0 {
			panic("color attachment with a depth/stencil format")
		}

		if nbColorAttachments >= limits.MaxColorAttachments {
			funcs.DeleteFramebuffer(id)
			return 0, fmt.Errorf("could not attach color buffer %d (maximum %d): %w",
				nbColorAttachments, limits.MaxColorAttachments, core.ErrGraphicsUnsupported)
		}
		attachmentIndex += Enum(nbColorAttachments)
		nbColorAttachments++

		switch texture.Target {
		case metadata.TextureTargetRenderbuffer:
			funcs.FramebufferRenderbuffer(FRAMEBUFFER, attachmentIndex, texture.NativeID)
		case metadata.TextureTargetRectangle:
			funcs.FramebufferTexture2D(FRAMEBUFFER, attachmentIndex, TEXTURE_RECTANGLE, texture.NativeID, 0)
		case metadata.TextureTarget2D:
			funcs.FramebufferTexture2D(FRAMEBUFFER, attachmentIndex, TEXTURE_2D, texture.NativeID, 0)
		case metadata.TextureTargetCube:
			funcs.FramebufferTexture2D(FRAMEBUFFER, attachmentIndex, TEXTURE_CUBE_MAP_POSITIVE_X+Enum(layer), texture.NativeID, 0)
		default:
			panic("unknown texture target")
		}
	}

	depthStencil := &s.params.DepthStencil
	texture := depthStencil.Attachment
	if resolve {
		texture = depthStencil.ResolveTarget
	}
	if texture != nil {
		attachmentIndex := attachmentIndexFor(texture.Format)
		if attachmentIndex == COLOR_ATTACHMENT0 {
			panic("depth/stencil attachment with a color format")
		}

		// GLES 2.0 has no unified depth-stencil attachment point: bind the
		// same storage separately as depth then stencil.
		split := gl.Backend == metadata.BackendOpenGLES && gl.Version < 300 &&
			attachmentIndex == DEPTH_STENCIL_ATTACHMENT

		switch texture.Target {
		case metadata.TextureTargetRenderbuffer:
			if split {
				funcs.FramebufferRenderbuffer(FRAMEBUFFER, DEPTH_ATTACHMENT, texture.NativeID)
				funcs.FramebufferRenderbuffer(FRAMEBUFFER, STENCIL_ATTACHMENT, texture.NativeID)
			} else {
				funcs.FramebufferRenderbuffer(FRAMEBUFFER, attachmentIndex, texture.NativeID)
			}
		case metadata.TextureTarget2D:
			if split {
				funcs.FramebufferTexture2D(FRAMEBUFFER, DEPTH_ATTACHMENT, TEXTURE_2D, texture.NativeID, 0)
				funcs.FramebufferTexture2D(FRAMEBUFFER, STENCIL_ATTACHMENT, TEXTURE_2D, texture.NativeID, 0)
			} else {
				funcs.FramebufferTexture2D(FRAMEBUFFER, attachmentIndex, TEXTURE_2D, texture.NativeID, 0)
			}
		default:
			panic("unknown depth/stencil texture target")
		}
	}

	if funcs.CheckFramebufferStatus(FRAMEBUFFER) != FRAMEBUFFER_COMPLETE {
		funcs.DeleteFramebuffer(id)
		return 0, fmt.Errorf("framebuffer %d is not complete: %w", id, core.ErrGraphicsUnsupported)
	}

	return id, nil
}

// rebindCurrent restores the framebuffer binding of the pass that was
// active before this rendertarget touched the binding.
func (s *Rendertarget) rebindCurrent() {
	gl := s.ctx.gl
	fboID := gl.defaultFramebuffer()
	if current := s.ctx.currentRT; current != nil {
		fboID = current.id
	}
	gl.Funcs.BindFramebuffer(FRAMEBUFFER, fboID)
}

func (s *Rendertarget) init(params *metadata.RendertargetParams) error {
	gl := s.ctx.gl
	funcs := gl.Funcs
	limits := &gl.Limits

	if len(params.Colors) > metadata.MaxColorAttachments {
		return fmt.Errorf("too many color attachments (%d, maximum %d): %w",
			len(params.Colors), metadata.MaxColorAttachments, core.ErrInvalidArg)
	}

	s.params = *params
	s.params.Colors = append([]metadata.Attachment(nil), params.Colors...)
	s.width = params.Width
	s.height = params.Height
	s.wrapped = false

	defer s.rebindCurrent()

	if s.requireResolveFBO() {
		if !gl.Features.All(FeatureFramebufferObject) {
			return fmt.Errorf("context does not support the framebuffer object feature, "+
				"resolving MSAA attachments is not supported: %w", core.ErrGraphicsUnsupported)
		}
		resolveID, err := s.createFBO(true)
		if err != nil {
			return err
		}
		s.resolveID = resolveID
	}

	id, err := s.createFBO(false)
	if err != nil {
		return err
	}
	s.id = id

	if gl.Features.All(FeatureInvalidateSubdata) {
		s.invalidate = (*Rendertarget).doInvalidate
	} else {
		s.invalidate = (*Rendertarget).invalidateNoop
	}

	if gl.Features.All(FeatureClearBuffer) {
		s.clear = (*Rendertarget).clearBuffers
	} else {
		s.clear = (*Rendertarget).clearBuffer
	}

	s.resolve = (*Rendertarget).resolveNoDrawBuffers
	if gl.Features.All(FeatureDrawBuffers) {
		if int32(len(s.params.Colors)) > limits.MaxDrawBuffers {
			return fmt.Errorf("draw buffer count (%d) exceeds driver limit (%d): %w",
				len(s.params.Colors), limits.MaxDrawBuffers, core.ErrGraphicsUnsupported)
		}
		if len(s.params.Colors) > 1 {
			s.drawBuffers = make([]Enum, len(s.params.Colors))
			for i := range s.params.Colors {
				s.drawBuffers[i] = COLOR_ATTACHMENT0 + Enum(i)
			}
			funcs.DrawBuffers(s.drawBuffers)
			s.resolve = (*Rendertarget).resolveDrawBuffers
		}
	}

	for i, color := range s.params.Colors {
		if color.LoadOp == metadata.LoadOpDontCare || color.LoadOp == metadata.LoadOpClear {
			s.clearFlags |= COLOR_BUFFER_BIT
		}
		if color.StoreOp == metadata.StoreOpDontCare {
			s.invalidateAttachments = append(s.invalidateAttachments, COLOR_ATTACHMENT0+Enum(i))
		}
	}

	depthStencil := &s.params.DepthStencil
	if depthStencil.Attachment != nil {
		if depthStencil.LoadOp == metadata.LoadOpDontCare || depthStencil.LoadOp == metadata.LoadOpClear {
			s.clearFlags |= DEPTH_BUFFER_BIT | STENCIL_BUFFER_BIT
		}
		if depthStencil.StoreOp == metadata.StoreOpDontCare {
			s.invalidateAttachments = append(s.invalidateAttachments, DEPTH_ATTACHMENT, STENCIL_ATTACHMENT)
		}
	}

	return nil
}

// wrap attaches the rendertarget to a caller-supplied framebuffer id. The
// parameter restrictions are a programming contract, not runtime errors.
func (s *Rendertarget) wrap(params *metadata.RendertargetParams, id uint32) error {
	gl := s.ctx.gl

	if len(params.Colors) != 1 {
		panic("wrapped rendertargets require exactly one color attachment")
	}
	if params.Colors[0].Attachment != nil || params.Colors[0].ResolveTarget != nil {
		panic("wrapped rendertargets cannot own color attachments")
	}
	if params.DepthStencil.Attachment != nil || params.DepthStencil.ResolveTarget != nil {
		panic("wrapped rendertargets cannot own a depth/stencil attachment")
	}

	s.params = *params
	s.params.Colors = append([]metadata.Attachment(nil), params.Colors...)
	s.width = params.Width
	s.height = params.Height

	s.wrapped = true
	s.id = id

	if gl.Features.All(FeatureInvalidateSubdata) {
		s.invalidate = (*Rendertarget).doInvalidate
	} else {
		s.invalidate = (*Rendertarget).invalidateNoop
	}

	if gl.Features.All(FeatureClearBuffer) {
		s.clear = (*Rendertarget).clearBuffers
	} else {
		s.clear = (*Rendertarget).clearBuffer
	}

	s.resolve = (*Rendertarget).resolveNoDrawBuffers

	color := &s.params.Colors[0]
	if color.LoadOp == metadata.LoadOpDontCare || color.LoadOp == metadata.LoadOpClear {
		s.clearFlags |= COLOR_BUFFER_BIT
	}
	if color.StoreOp == metadata.StoreOpDontCare {
		attachment := COLOR
		if s.id != 0 {
			attachment = COLOR_ATTACHMENT0
		}
		s.invalidateAttachments = append(s.invalidateAttachments, attachment)
	}

	depthStencil := &s.params.DepthStencil
	if depthStencil.LoadOp == metadata.LoadOpDontCare || depthStencil.LoadOp == metadata.LoadOpClear {
		s.clearFlags |= DEPTH_BUFFER_BIT | STENCIL_BUFFER_BIT
	}
	if depthStencil.StoreOp == metadata.StoreOpDontCare {
		depth, stencil := DEPTH, STENCIL
		if s.id != 0 {
			depth, stencil = DEPTH_ATTACHMENT, STENCIL_ATTACHMENT
		}
		s.invalidateAttachments = append(s.invalidateAttachments, depth, stencil)
	}

	return nil
}

func (s *Rendertarget) beginPass() {
	gl := s.ctx.gl
	funcs := gl.Funcs
	glstate := &s.ctx.glstate

	// Sticky write masks or scissor state from earlier draw calls would
	// silently mask the clear.
	defaultColorMask := [4]bool{true, true, true, true}
	if glstate.colorWriteMask != defaultColorMask {
		funcs.ColorMask(true, true, true, true)
		glstate.colorWriteMask = defaultColorMask
	}

	if !glstate.depthWriteMask {
		funcs.DepthMask(true)
		glstate.depthWriteMask = true
	}

	if glstate.stencilWriteMask != 0xff {
		funcs.StencilMask(0xff)
		glstate.stencilWriteMask = 0xff
	}

	if glstate.scissorTest {
		funcs.Disable(SCISSOR_TEST)
		glstate.scissorTest = false
	}

	funcs.BindFramebuffer(FRAMEBUFFER, s.id)

	s.clear(s)
}

func (s *Rendertarget) endPass() {
	gl := s.ctx.gl
	funcs := gl.Funcs
	glstate := &s.ctx.glstate

	if glstate.scissorTest {
		funcs.Disable(SCISSOR_TEST)
		glstate.scissorTest = false
	}

	if s.resolveID != 0 {
		funcs.BindFramebuffer(READ_FRAMEBUFFER, s.id)
		funcs.BindFramebuffer(DRAW_FRAMEBUFFER, s.resolveID)

		s.resolve(s)

		s.rebindCurrent()
	}

	// Invalidating before resolving would discard the source of the blit.
	s.invalidate(s)
}

func (s *Rendertarget) free() {
	funcs := s.ctx.gl.Funcs

	if !s.wrapped {
		if s.id != 0 {
			funcs.DeleteFramebuffer(s.id)
		}
		if s.resolveID != 0 {
			funcs.DeleteFramebuffer(s.resolveID)
		}
	}
	s.id = 0
	s.resolveID = 0
}
