// Package gl implements the OpenGL and OpenGL ES graphics backends on top
// of a native context supplied by the embedder.
package gl

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spaghettifunk/vega/engine/core"
	vmath "github.com/spaghettifunk/vega/engine/math"
	"github.com/spaghettifunk/vega/engine/renderer"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
)

func init() {
	renderer.Register(metadata.BackendOpenGL, func(config *renderer.Config) renderer.Context {
		return newContext(config, metadata.BackendOpenGL, "opengl", "OpenGL")
	})
	renderer.Register(metadata.BackendOpenGLES, func(config *renderer.Config) renderer.Context {
		return newContext(config, metadata.BackendOpenGLES, "opengles", "OpenGL ES")
	})
}

// glWriteState mirrors the pieces of fixed-function state the rendertarget
// pass setup depends on, so redundant state changes are skipped.
type glWriteState struct {
	colorWriteMask   [4]bool
	depthWriteMask   bool
	stencilWriteMask uint32
	scissorTest      bool
}

func defaultWriteState() glWriteState {
	return glWriteState{
		colorWriteMask:   [4]bool{true, true, true, true},
		depthWriteMask:   true,
		stencilWriteMask: 0xff,
	}
}

// Context is the OpenGL-family implementation of the graphics backend
// contract.
type Context struct {
	config   renderer.Config
	backend  metadata.Backend
	stringID string
	name     string

	gl       *GLContext
	external bool

	features metadata.Features
	limits   metadata.Limits

	glstate   glWriteState
	viewport  [4]int32
	scissor   [4]int32
	currentRT *Rendertarget

	defaultRT     *Rendertarget
	defaultRTLoad *Rendertarget
	defaultRTDesc metadata.RendertargetDesc

	// Offscreen-owned attachment storage.
	color   metadata.Texture
	msColor metadata.Texture
	depth   metadata.Texture

	capture func(c *Context)

	timerQueries [2]uint32
	timerActive  bool
	timerStarted bool
	lastDrawTime time.Duration
}

func newContext(config *renderer.Config, backend metadata.Backend, stringID, name string) *Context {
	return &Context{
		config:   *config,
		backend:  backend,
		stringID: stringID,
		name:     name,
	}
}

func (c *Context) StringID() string { return c.stringID }
func (c *Context) Name() string     { return c.name }

// glFeatureMap translates the native context feature bits to the abstract
// feature set the capability report is derived from.
var glFeatureMap = []struct {
	abstract metadata.Features
	native   Features
}{
	{metadata.FeatureCompute, FeatureComputeShaderAll},
	{metadata.FeatureInstancedDraw, FeatureDrawInstanced | FeatureInstancedArray},
	{metadata.FeatureColorResolve, FeatureFramebufferObject},
	{metadata.FeatureShaderTextureLOD, FeatureShaderTextureLOD},
	{metadata.FeatureSoftware, FeatureSoftware},
	{metadata.FeatureTexture3D, FeatureTexture3D},
	{metadata.FeatureTextureCubeMap, FeatureTextureCubeMap},
	{metadata.FeatureTextureNPOT, FeatureTextureNPOT},
	{metadata.FeatureUintUniforms, FeatureUintUniforms},
	{metadata.FeatureUniformBuffer, FeatureUniformBufferObject},
	{metadata.FeatureStorageBuffer, FeatureShaderStorageBufferObject},
	{metadata.FeatureDepthStencilResolve, FeatureFramebufferObject},
	{metadata.FeatureTextureFloatRenderable, FeatureColorBufferFloat},
	{metadata.FeatureTextureHalfFloatRenderable, FeatureColorBufferHalfFloat},
}

func (c *Context) loadFeatures() {
	c.features = 0
	for _, m := range glFeatureMap {
		if c.gl.Features.All(m.native) {
			c.features |= m.abstract
		}
	}
	c.limits = c.gl.Limits
}

func (c *Context) createTexture(target metadata.TextureTarget, format metadata.Format, samples int32) (metadata.Texture, error) {
	funcs := c.gl.Funcs
	width, height := c.config.Width, c.config.Height

	texture := metadata.Texture{
		Target:  target,
		Format:  format,
		Width:   uint32(width),
		Height:  uint32(height),
		Samples: samples,
	}

	switch target {
	case metadata.TextureTargetRenderbuffer:
		internalFormat := RGBA8
		if format.HasDepth() {
			internalFormat = DEPTH24_STENCIL8
		}
		texture.NativeID = funcs.GenRenderbuffer()
		funcs.BindRenderbuffer(RENDERBUFFER, texture.NativeID)
		if samples > 0 {
			funcs.RenderbufferStorageMultisample(RENDERBUFFER, samples, internalFormat, width, height)
		} else {
			funcs.RenderbufferStorage(RENDERBUFFER, internalFormat, width, height)
		}
		funcs.BindRenderbuffer(RENDERBUFFER, 0)
	case metadata.TextureTarget2D:
		texture.NativeID = funcs.GenTexture()
		funcs.BindTexture(TEXTURE_2D, texture.NativeID)
		funcs.TexImage2D(TEXTURE_2D, 0, RGBA8, width, height, RGBA, UNSIGNED_BYTE)
		funcs.TexParameteri(TEXTURE_2D, TEXTURE_MIN_FILTER, int32(NEAREST))
		funcs.TexParameteri(TEXTURE_2D, TEXTURE_MAG_FILTER, int32(NEAREST))
		funcs.BindTexture(TEXTURE_2D, 0)
	default:
		panic("unknown offscreen texture target")
	}

	if err := c.gl.checkError("create texture"); err != nil {
		return metadata.Texture{}, err
	}
	return texture, nil
}

func (c *Context) offscreenRendertargetInit() error {
	samples := c.config.Samples

	color, err := c.createTexture(metadata.TextureTarget2D, metadata.FormatR8G8B8A8Unorm, 0)
	if err != nil {
		return err
	}
	c.color = color

	colorAttachment := metadata.Attachment{
		Attachment: &c.color,
		LoadOp:     metadata.LoadOpClear,
		StoreOp:    metadata.StoreOpStore,
		ClearValue: c.config.ClearColor,
	}
	if samples > 0 {
		msColor, err := c.createTexture(metadata.TextureTargetRenderbuffer, metadata.FormatR8G8B8A8Unorm, samples)
		if err != nil {
			return err
		}
		c.msColor = msColor
		colorAttachment.Attachment = &c.msColor
		colorAttachment.ResolveTarget = &c.color
	}

	depth, err := c.createTexture(metadata.TextureTargetRenderbuffer, metadata.FormatD24UnormS8Uint, samples)
	if err != nil {
		return err
	}
	c.depth = depth

	params := metadata.RendertargetParams{
		Width:  uint32(c.config.Width),
		Height: uint32(c.config.Height),
		Colors: []metadata.Attachment{colorAttachment},
		DepthStencil: metadata.Attachment{
			Attachment: &c.depth,
			LoadOp:     metadata.LoadOpClear,
			StoreOp:    metadata.StoreOpDontCare,
		},
	}

	c.defaultRT = newRendertarget(c)
	if err := c.defaultRT.init(&params); err != nil {
		return fmt.Errorf("could not initialize the offscreen rendertarget: %w", err)
	}

	paramsLoad := params
	paramsLoad.Colors = append([]metadata.Attachment(nil), params.Colors...)
	paramsLoad.Colors[0].LoadOp = metadata.LoadOpLoad
	paramsLoad.DepthStencil.LoadOp = metadata.LoadOpLoad

	c.defaultRTLoad = newRendertarget(c)
	if err := c.defaultRTLoad.init(&paramsLoad); err != nil {
		return fmt.Errorf("could not initialize the offscreen load rendertarget: %w", err)
	}
	return nil
}

func (c *Context) wrappedRendertargetParams(width, height uint32) metadata.RendertargetParams {
	return metadata.RendertargetParams{
		Width:  width,
		Height: height,
		Colors: []metadata.Attachment{{
			LoadOp:     metadata.LoadOpClear,
			StoreOp:    metadata.StoreOpStore,
			ClearValue: c.config.ClearColor,
		}},
		DepthStencil: metadata.Attachment{
			LoadOp:  metadata.LoadOpClear,
			StoreOp: metadata.StoreOpDontCare,
		},
	}
}

func (c *Context) wrappedRendertargetInit(fbo uint32, width, height uint32) error {
	params := c.wrappedRendertargetParams(width, height)

	c.defaultRT = newRendertarget(c)
	if err := c.defaultRT.wrap(&params, fbo); err != nil {
		return err
	}

	params.Colors[0].LoadOp = metadata.LoadOpLoad
	params.DepthStencil.LoadOp = metadata.LoadOpLoad

	c.defaultRTLoad = newRendertarget(c)
	return c.defaultRTLoad.wrap(&params, fbo)
}

// checkExternalFramebuffer verifies that the caller-supplied framebuffer
// carries a complete color/depth/stencil surface. The previous framebuffer
// binding is restored whether the check passes or not.
func (c *Context) checkExternalFramebuffer(fbo uint32) error {
	funcs := c.gl.Funcs

	previous := uint32(funcs.GetIntegerv(DRAW_FRAMEBUFFER_BINDING))
	funcs.BindFramebuffer(FRAMEBUFFER, fbo)
	defer funcs.BindFramebuffer(FRAMEBUFFER, previous)

	colorAttachment, depthStencilAttachment := COLOR_ATTACHMENT0, DEPTH_STENCIL_ATTACHMENT
	if fbo == 0 {
		// The default framebuffer is queried through its buffer names, not
		// attachment points.
		colorAttachment, depthStencilAttachment = BACK, DEPTH_STENCIL
	}

	components := []struct {
		attachment Enum
		size       Enum
		name       string
	}{
		{colorAttachment, FRAMEBUFFER_ATTACHMENT_RED_SIZE, "red"},
		{colorAttachment, FRAMEBUFFER_ATTACHMENT_GREEN_SIZE, "green"},
		{colorAttachment, FRAMEBUFFER_ATTACHMENT_BLUE_SIZE, "blue"},
		{colorAttachment, FRAMEBUFFER_ATTACHMENT_ALPHA_SIZE, "alpha"},
		{depthStencilAttachment, FRAMEBUFFER_ATTACHMENT_DEPTH_SIZE, "depth"},
		{depthStencilAttachment, FRAMEBUFFER_ATTACHMENT_STENCIL_SIZE, "stencil"},
	}
	for _, component := range components {
		if funcs.GetFramebufferAttachmentParameteri(FRAMEBUFFER, component.attachment, component.size) <= 0 {
			return fmt.Errorf("external framebuffer %d has no %s component: %w",
				fbo, component.name, core.ErrGraphicsUnsupported)
		}
	}
	return nil
}

func (c *Context) timerInit() {
	if !c.config.HUD {
		return
	}
	if !c.gl.Features.Any(FeatureTimerQuery | FeatureEXTDisjointTimerQuery) {
		core.LogDebug("GPU timing not supported by this context")
		return
	}
	queries := c.gl.Funcs.GenQueries(2)
	copy(c.timerQueries[:], queries)
	c.timerActive = true
}

func (c *Context) timerBegin() {
	if !c.timerActive || c.timerStarted {
		return
	}
	funcs := c.gl.Funcs
	if runtime.GOOS == "darwin" {
		funcs.QueryCounter(c.timerQueries[0], TIMESTAMP)
	} else {
		funcs.BeginQuery(TIME_ELAPSED, c.timerQueries[0])
	}
	c.timerStarted = true
}

func (c *Context) timerEnd() {
	if !c.timerStarted {
		return
	}
	funcs := c.gl.Funcs
	if runtime.GOOS == "darwin" {
		funcs.QueryCounter(c.timerQueries[1], TIMESTAMP)
		t0 := funcs.GetQueryObjectui64(c.timerQueries[0], QUERY_RESULT)
		t1 := funcs.GetQueryObjectui64(c.timerQueries[1], QUERY_RESULT)
		c.lastDrawTime = time.Duration(t1 - t0)
	} else {
		funcs.EndQuery(TIME_ELAPSED)
		c.lastDrawTime = time.Duration(funcs.GetQueryObjectui64(c.timerQueries[0], QUERY_RESULT))
	}
	c.timerStarted = false
}

func (c *Context) timerReset() {
	if !c.timerActive {
		return
	}
	c.gl.Funcs.DeleteQueries(c.timerQueries[:])
	c.timerQueries = [2]uint32{}
	c.timerActive = false
	c.timerStarted = false
}

func captureCPU(c *Context) {
	funcs := c.gl.Funcs
	fbo := c.defaultRT.id
	if c.defaultRT.resolveID != 0 {
		fbo = c.defaultRT.resolveID
	}
	funcs.BindFramebuffer(FRAMEBUFFER, fbo)
	funcs.ReadPixels(0, 0, c.config.Width, c.config.Height, RGBA, UNSIGNED_BYTE, c.config.CaptureBuffer)
	c.currentRTRebind()
}

func (c *Context) currentRTRebind() {
	fbo := c.gl.defaultFramebuffer()
	if c.currentRT != nil {
		fbo = c.currentRT.id
	}
	c.gl.Funcs.BindFramebuffer(FRAMEBUFFER, fbo)
}

func (c *Context) selectCaptureFunc() error {
	if c.config.CaptureBuffer == nil {
		c.capture = nil
		return nil
	}
	switch c.config.CaptureBufferType {
	case renderer.CaptureBufferTypeCPU:
		c.capture = captureCPU
	case renderer.CaptureBufferTypeCoreVideo:
		return fmt.Errorf("CoreVideo capture is not supported by this build: %w", core.ErrUnsupported)
	default:
		return fmt.Errorf("unknown capture buffer type %d: %w", c.config.CaptureBufferType, core.ErrInvalidArg)
	}
	return nil
}

func (c *Context) defaultViewport() [4]int32 {
	viewport := c.config.Viewport
	if viewport[2] <= 0 || viewport[3] <= 0 {
		viewport = [4]int32{0, 0, c.config.Width, c.config.Height}
	}
	return viewport
}

func (c *Context) Init() error {
	config := &c.config

	glConfig, _ := config.BackendConfig.(*Config)
	if glConfig == nil || glConfig.Context == nil {
		return fmt.Errorf("the OpenGL backend requires a native context to be "+
			"supplied through the backend configuration: %w", core.ErrInvalidUsage)
	}
	if glConfig.Context.Backend != c.backend {
		return fmt.Errorf("native context backend mismatch: %w", core.ErrInvalidArg)
	}
	c.gl = glConfig.Context
	c.external = glConfig.External

	if c.external && config.Offscreen {
		return fmt.Errorf("external surfaces are incompatible with offscreen "+
			"rendering: %w", core.ErrInvalidUsage)
	}
	if config.CaptureBuffer != nil && !config.Offscreen {
		return fmt.Errorf("capture buffers are only supported with offscreen "+
			"rendering: %w", core.ErrInvalidUsage)
	}
	if config.Offscreen || c.external {
		if config.Width <= 0 || config.Height <= 0 {
			return fmt.Errorf("offscreen and external rendering require both "+
				"dimensions (%dx%d): %w", config.Width, config.Height, core.ErrInvalidArg)
		}
	}

	c.loadFeatures()
	c.glstate = defaultWriteState()

	switch {
	case c.external:
		if err := c.checkExternalFramebuffer(glConfig.ExternalFramebuffer); err != nil {
			return err
		}
		if err := c.wrappedRendertargetInit(glConfig.ExternalFramebuffer,
			uint32(config.Width), uint32(config.Height)); err != nil {
			return err
		}
	case config.Offscreen:
		if config.Samples > c.limits.MaxSamples {
			return fmt.Errorf("%d samples exceeds the context maximum (%d): %w",
				config.Samples, c.limits.MaxSamples, core.ErrGraphicsUnsupported)
		}
		if err := c.offscreenRendertargetInit(); err != nil {
			return err
		}
		if err := c.selectCaptureFunc(); err != nil {
			return err
		}
	default:
		config.Width = c.gl.Width
		config.Height = c.gl.Height
		if c.gl.SwapIntervalFunc != nil {
			c.gl.SwapIntervalFunc(config.SwapInterval)
		}
		if err := c.wrappedRendertargetInit(c.gl.defaultFramebuffer(),
			uint32(config.Width), uint32(config.Height)); err != nil {
			return err
		}
	}

	colorDesc := metadata.AttachmentDesc{
		Format:  metadata.FormatR8G8B8A8Unorm,
		Resolve: config.Samples > 0,
	}
	c.defaultRTDesc = metadata.RendertargetDesc{
		Samples:      config.Samples,
		Colors:       []metadata.AttachmentDesc{colorDesc},
		DepthStencil: metadata.AttachmentDesc{Format: metadata.FormatD24UnormS8Uint},
	}

	c.timerInit()

	c.viewport = c.defaultViewport()
	c.gl.Funcs.Viewport(c.viewport[0], c.viewport[1], c.viewport[2], c.viewport[3])
	c.scissor = [4]int32{0, 0, config.Width, config.Height}
	c.gl.Funcs.Scissor(c.scissor[0], c.scissor[1], c.scissor[2], c.scissor[3])

	return c.gl.checkError("init")
}

func (c *Context) Resize(width, height int32, viewport *[4]int32) error {
	config := &c.config

	if config.Offscreen {
		return fmt.Errorf("offscreen contexts cannot be resized: %w", core.ErrUnsupported)
	}

	if c.external {
		config.Width = width
		config.Height = height
	} else {
		if err := c.gl.resize(width, height); err != nil {
			return err
		}
		config.Width = c.gl.Width
		config.Height = c.gl.Height
		// The default framebuffer id may change across resizes on some
		// platforms.
		fbo := c.gl.defaultFramebuffer()
		c.defaultRT.id = fbo
		c.defaultRTLoad.id = fbo
	}

	c.defaultRT.width = uint32(config.Width)
	c.defaultRT.height = uint32(config.Height)
	c.defaultRTLoad.width = uint32(config.Width)
	c.defaultRTLoad.height = uint32(config.Height)

	if viewport != nil && viewport[2] > 0 && viewport[3] > 0 {
		c.SetViewport(*viewport)
	} else {
		c.SetViewport([4]int32{0, 0, config.Width, config.Height})
	}
	c.SetScissor([4]int32{0, 0, config.Width, config.Height})

	return nil
}

func (c *Context) SetCaptureBuffer(buffer []byte) error {
	if !c.config.Offscreen {
		return fmt.Errorf("capture buffers are only supported with offscreen "+
			"rendering: %w", core.ErrInvalidUsage)
	}
	c.config.CaptureBuffer = buffer
	return c.selectCaptureFunc()
}

func (c *Context) BeginUpdate(t float64) error { return nil }
func (c *Context) EndUpdate(t float64) error   { return nil }

func (c *Context) BeginDraw(t float64) error {
	c.timerBegin()
	return nil
}

func (c *Context) EndDraw(t float64) error {
	c.timerEnd()

	if c.config.Offscreen {
		if c.capture != nil {
			c.capture(c)
		}
		return c.gl.checkError("end draw")
	}

	if err := c.gl.checkError("end draw"); err != nil {
		return err
	}
	if c.config.SetSurfacePTS && c.gl.SetSurfacePTSFunc != nil {
		c.gl.SetSurfacePTSFunc(t)
	}
	c.gl.swapBuffers()
	return nil
}

func (c *Context) QueryDrawTime() (time.Duration, error) {
	if !c.config.HUD {
		return 0, fmt.Errorf("GPU timing requires the HUD to be enabled: %w", core.ErrInvalidUsage)
	}
	return c.lastDrawTime, nil
}

func (c *Context) WaitIdle() {
	c.gl.Funcs.Finish()
}

func (c *Context) Destroy() {
	if c.gl == nil {
		return
	}
	funcs := c.gl.Funcs

	c.timerReset()

	if c.defaultRT != nil {
		c.defaultRT.free()
		c.defaultRT = nil
	}
	if c.defaultRTLoad != nil {
		c.defaultRTLoad.free()
		c.defaultRTLoad = nil
	}

	if c.color.NativeID != 0 {
		funcs.DeleteTexture(c.color.NativeID)
		c.color = metadata.Texture{}
	}
	if c.msColor.NativeID != 0 {
		funcs.DeleteRenderbuffer(c.msColor.NativeID)
		c.msColor = metadata.Texture{}
	}
	if c.depth.NativeID != 0 {
		funcs.DeleteRenderbuffer(c.depth.NativeID)
		c.depth = metadata.Texture{}
	}

	if c.gl.ReleaseFunc != nil {
		c.gl.ReleaseFunc()
	}
	c.gl = nil
}

// WrapExternalFramebuffer re-targets an external surface to another
// caller-owned framebuffer. On failure the previous wrap is kept intact.
func (c *Context) WrapExternalFramebuffer(fbo uint32) error {
	if !c.external {
		return fmt.Errorf("the rendering surface is not externally managed: %w", core.ErrInvalidUsage)
	}
	if err := c.checkExternalFramebuffer(fbo); err != nil {
		return err
	}
	c.defaultRT.id = fbo
	c.defaultRTLoad.id = fbo
	return nil
}

func (c *Context) DefaultRendertarget(op metadata.LoadOp) renderer.Rendertarget {
	if op == metadata.LoadOpLoad {
		return c.defaultRTLoad
	}
	return c.defaultRT
}

func (c *Context) DefaultRendertargetDesc() *metadata.RendertargetDesc {
	return &c.defaultRTDesc
}

func (c *Context) BeginRenderPass(rt renderer.Rendertarget) {
	if rt == nil {
		panic("begin render pass without a rendertarget")
	}
	if c.currentRT != nil {
		panic("render pass already started")
	}
	target := rt.(*Rendertarget)
	c.currentRT = target
	target.beginPass()
}

func (c *Context) EndRenderPass() {
	if c.currentRT == nil {
		panic("no render pass started")
	}
	c.currentRT.endPass()
	c.currentRT = nil
}

func (c *Context) SetViewport(viewport [4]int32) {
	c.gl.Funcs.Viewport(viewport[0], viewport[1], viewport[2], viewport[3])
	c.viewport = viewport
}

func (c *Context) Viewport() [4]int32 {
	return c.viewport
}

func (c *Context) SetScissor(scissor [4]int32) {
	c.gl.Funcs.Scissor(scissor[0], scissor[1], scissor[2], scissor[3])
	c.scissor = scissor
}

func (c *Context) Scissor() [4]int32 {
	return c.scissor
}

// flipMatrix flips the Y axis: render-to-texture surfaces have an inverted
// vertical origin compared to the window system surface.
var flipMatrix = vmath.Mat4{Data: [16]float32{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}}

func (c *Context) TransformProjectionMatrix(m vmath.Mat4) vmath.Mat4 {
	if !c.config.Offscreen && !c.external {
		return m
	}
	return flipMatrix.Mul(m)
}

func (c *Context) Features() metadata.Features {
	return c.features
}

func (c *Context) Limits() *metadata.Limits {
	return &c.limits
}
