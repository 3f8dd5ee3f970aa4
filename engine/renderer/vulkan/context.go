// Package vulkan implements the Vulkan graphics backend. It supports
// offscreen rendering and device probing; window-system surfaces are glued
// in by the platform layer.
package vulkan

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vega/engine/core"
	vmath "github.com/spaghettifunk/vega/engine/math"
	"github.com/spaghettifunk/vega/engine/renderer"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
)

func init() {
	renderer.Register(metadata.BackendVulkan, func(config *renderer.Config) renderer.Context {
		return &Context{config: *config}
	})
}

var loaderOnce sync.Once
var loaderErr error

func loadVulkan() error {
	loaderOnce.Do(func() {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			loaderErr = fmt.Errorf("could not locate the Vulkan loader: %w", err)
			return
		}
		loaderErr = vk.Init()
	})
	return loaderErr
}

// Rendertarget is the Vulkan pairing of a render pass with the framebuffer
// it draws into. The clear/load variants of the default rendertarget share
// the framebuffer and differ only in their render pass load ops.
type Rendertarget struct {
	ctx         *Context
	width       uint32
	height      uint32
	renderPass  vk.RenderPass
	framebuffer vk.Framebuffer
	clearValues []vk.ClearValue
	ownsFB      bool
}

func (s *Rendertarget) Size() (uint32, uint32) {
	return s.width, s.height
}

func (s *Rendertarget) free(device *Device) {
	if s.ownsFB && s.framebuffer != nil {
		vk.DestroyFramebuffer(device.LogicalDevice, s.framebuffer, nil)
	}
	s.framebuffer = nil
	if s.renderPass != nil {
		vk.DestroyRenderPass(device.LogicalDevice, s.renderPass, nil)
		s.renderPass = nil
	}
}

// Context is the Vulkan implementation of the graphics backend contract.
type Context struct {
	config renderer.Config

	instance vk.Instance
	device   *Device

	features metadata.Features
	limits   metadata.Limits

	color *Image
	depth *Image

	defaultRT     *Rendertarget
	defaultRTLoad *Rendertarget
	defaultRTDesc metadata.RendertargetDesc
	currentRT     *Rendertarget

	commandPool   vk.CommandPool
	commandBuffer vk.CommandBuffer
	submitFence   vk.Fence
	recording     bool

	queryPool       vk.QueryPool
	timestampPeriod float64
	lastDrawTime    time.Duration

	viewport [4]int32
	scissor  [4]int32
}

func (c *Context) StringID() string { return "vulkan" }
func (c *Context) Name() string     { return "Vulkan" }

func sampleCountFlag(samples int32) vk.SampleCountFlagBits {
	switch {
	case samples >= 64:
		return vk.SampleCount64Bit
	case samples >= 32:
		return vk.SampleCount32Bit
	case samples >= 16:
		return vk.SampleCount16Bit
	case samples >= 8:
		return vk.SampleCount8Bit
	case samples >= 4:
		return vk.SampleCount4Bit
	case samples >= 2:
		return vk.SampleCount2Bit
	default:
		return vk.SampleCount1Bit
	}
}

func (c *Context) createInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   safeString("vega"),
		PEngineName:        safeString("vega"),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return fmt.Errorf("could not create the Vulkan instance: %s", resultString(res))
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return err
	}
	c.instance = instance
	return nil
}

func (c *Context) buildRenderPass(loadOp vk.AttachmentLoadOp) (vk.RenderPass, error) {
	samples := sampleCountFlag(c.config.Samples)

	colorInitialLayout := vk.ImageLayoutUndefined
	if loadOp == vk.AttachmentLoadOpLoad {
		colorInitialLayout = vk.ImageLayoutColorAttachmentOptimal
	}

	attachments := []vk.AttachmentDescription{
		{
			Format:         vk.FormatR8g8b8a8Unorm,
			Samples:        samples,
			LoadOp:         loadOp,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  colorInitialLayout,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		},
		{
			Format:         c.device.DepthFormat,
			Samples:        samples,
			LoadOp:         loadOp,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorReference := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	depthReference := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       colorReference,
		PDepthStencilAttachment: &depthReference,
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	renderPassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPass vk.RenderPass
	if res := vk.CreateRenderPass(c.device.LogicalDevice, &renderPassCreateInfo, nil, &renderPass); res != vk.Success {
		return nil, fmt.Errorf("could not create render pass: %s", resultString(res))
	}
	return renderPass, nil
}

func (c *Context) offscreenRendertargetInit() error {
	width, height := uint32(c.config.Width), uint32(c.config.Height)
	samples := sampleCountFlag(c.config.Samples)

	color, err := imageCreate(c.device, width, height, vk.FormatR8g8b8a8Unorm,
		vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit|vk.ImageUsageTransferSrcBit),
		vk.ImageAspectFlags(vk.ImageAspectColorBit), samples)
	if err != nil {
		return err
	}
	c.color = color

	depthAspect := vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	depth, err := imageCreate(c.device, width, height, c.device.DepthFormat,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit), depthAspect, samples)
	if err != nil {
		return err
	}
	c.depth = depth

	clearPass, err := c.buildRenderPass(vk.AttachmentLoadOpClear)
	if err != nil {
		return err
	}
	loadPass, err := c.buildRenderPass(vk.AttachmentLoadOpLoad)
	if err != nil {
		vk.DestroyRenderPass(c.device.LogicalDevice, clearPass, nil)
		return err
	}

	attachments := []vk.ImageView{c.color.View, c.depth.View}
	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      clearPass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           width,
		Height:          height,
		Layers:          1,
	}
	var framebuffer vk.Framebuffer
	if res := vk.CreateFramebuffer(c.device.LogicalDevice, &framebufferCreateInfo, nil, &framebuffer); res != vk.Success {
		vk.DestroyRenderPass(c.device.LogicalDevice, clearPass, nil)
		vk.DestroyRenderPass(c.device.LogicalDevice, loadPass, nil)
		return fmt.Errorf("could not create framebuffer: %s", resultString(res))
	}

	clearValues := make([]vk.ClearValue, 2)
	clearColor := c.config.ClearColor
	clearValues[0].SetColor(clearColor[:])
	clearValues[1].SetDepthStencil(1.0, 0)

	c.defaultRT = &Rendertarget{
		ctx:         c,
		width:       width,
		height:      height,
		renderPass:  clearPass,
		framebuffer: framebuffer,
		clearValues: clearValues,
		ownsFB:      true,
	}
	c.defaultRTLoad = &Rendertarget{
		ctx:         c,
		width:       width,
		height:      height,
		renderPass:  loadPass,
		framebuffer: framebuffer,
		clearValues: clearValues,
	}
	return nil
}

func (c *Context) commandInit() error {
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: c.device.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(c.device.LogicalDevice, &poolCreateInfo, nil, &pool); res != vk.Success {
		return fmt.Errorf("could not create command pool: %s", resultString(res))
	}
	c.commandPool = pool

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	commandBuffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(c.device.LogicalDevice, &allocateInfo, commandBuffers); res != vk.Success {
		return fmt.Errorf("could not allocate command buffer: %s", resultString(res))
	}
	c.commandBuffer = commandBuffers[0]

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	var fence vk.Fence
	if res := vk.CreateFence(c.device.LogicalDevice, &fenceCreateInfo, nil, &fence); res != vk.Success {
		return fmt.Errorf("could not create submit fence: %s", resultString(res))
	}
	c.submitFence = fence
	return nil
}

func (c *Context) timerInit() error {
	if !c.config.HUD {
		return nil
	}
	queryPoolCreateInfo := vk.QueryPoolCreateInfo{
		SType:      vk.StructureTypeQueryPoolCreateInfo,
		QueryType:  vk.QueryTypeTimestamp,
		QueryCount: 2,
	}
	var pool vk.QueryPool
	if res := vk.CreateQueryPool(c.device.LogicalDevice, &queryPoolCreateInfo, nil, &pool); res != vk.Success {
		return fmt.Errorf("could not create timestamp query pool: %s", resultString(res))
	}
	c.queryPool = pool

	limits := c.device.Properties.Limits
	limits.Deref()
	c.timestampPeriod = float64(limits.TimestampPeriod)
	return nil
}

func (c *Context) Init() error {
	config := &c.config

	if !config.Offscreen {
		return fmt.Errorf("the Vulkan backend only supports offscreen surfaces "+
			"in this build: %w", core.ErrUnsupported)
	}
	if config.Width <= 0 || config.Height <= 0 {
		return fmt.Errorf("offscreen rendering requires both dimensions "+
			"(%dx%d): %w", config.Width, config.Height, core.ErrInvalidArg)
	}
	if config.CaptureBuffer != nil {
		return fmt.Errorf("frame capture is not supported by the Vulkan "+
			"backend: %w", core.ErrUnsupported)
	}

	if err := loadVulkan(); err != nil {
		return err
	}
	if err := c.createInstance(); err != nil {
		return err
	}

	device, err := deviceCreate(c.instance)
	if err != nil {
		c.Destroy()
		return err
	}
	c.device = device

	c.features = device.loadFeatures()
	c.limits = device.loadLimits()

	if config.Samples > c.limits.MaxSamples {
		c.Destroy()
		return fmt.Errorf("%d samples exceeds the device maximum (%d): %w",
			config.Samples, c.limits.MaxSamples, core.ErrGraphicsUnsupported)
	}

	if err := c.offscreenRendertargetInit(); err != nil {
		c.Destroy()
		return err
	}
	if err := c.commandInit(); err != nil {
		c.Destroy()
		return err
	}
	if err := c.timerInit(); err != nil {
		c.Destroy()
		return err
	}

	c.defaultRTDesc = metadata.RendertargetDesc{
		Samples: config.Samples,
		Colors: []metadata.AttachmentDesc{{
			Format: metadata.FormatR8G8B8A8Unorm,
		}},
		DepthStencil: metadata.AttachmentDesc{Format: metadata.FormatD24UnormS8Uint},
	}

	c.viewport = config.Viewport
	if c.viewport[2] <= 0 || c.viewport[3] <= 0 {
		c.viewport = [4]int32{0, 0, config.Width, config.Height}
	}
	c.scissor = [4]int32{0, 0, config.Width, config.Height}

	return nil
}

func (c *Context) Resize(width, height int32, viewport *[4]int32) error {
	return fmt.Errorf("offscreen contexts cannot be resized: %w", core.ErrUnsupported)
}

func (c *Context) SetCaptureBuffer(buffer []byte) error {
	return fmt.Errorf("frame capture is not supported by the Vulkan backend: %w", core.ErrUnsupported)
}

func (c *Context) BeginUpdate(t float64) error { return nil }
func (c *Context) EndUpdate(t float64) error   { return nil }

func (c *Context) BeginDraw(t float64) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(c.commandBuffer, &beginInfo); res != vk.Success {
		return fmt.Errorf("could not begin command buffer: %s", resultString(res))
	}
	c.recording = true

	if c.queryPool != nil {
		vk.CmdResetQueryPool(c.commandBuffer, c.queryPool, 0, 2)
		vk.CmdWriteTimestamp(c.commandBuffer, vk.PipelineStageTopOfPipeBit, c.queryPool, 0)
	}
	return nil
}

func (c *Context) EndDraw(t float64) error {
	if !c.recording {
		return nil
	}
	if c.queryPool != nil {
		vk.CmdWriteTimestamp(c.commandBuffer, vk.PipelineStageBottomOfPipeBit, c.queryPool, 1)
	}
	if res := vk.EndCommandBuffer(c.commandBuffer); res != vk.Success {
		return fmt.Errorf("could not end command buffer: %s", resultString(res))
	}
	c.recording = false

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{c.commandBuffer},
	}
	if res := vk.QueueSubmit(c.device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, c.submitFence); res != vk.Success {
		return fmt.Errorf("could not submit the frame: %s", resultString(res))
	}
	if res := vk.WaitForFences(c.device.LogicalDevice, 1, []vk.Fence{c.submitFence}, vk.True, ^uint64(0)); res != vk.Success {
		return fmt.Errorf("could not wait on the submit fence: %s", resultString(res))
	}
	if res := vk.ResetFences(c.device.LogicalDevice, 1, []vk.Fence{c.submitFence}); res != vk.Success {
		return fmt.Errorf("could not reset the submit fence: %s", resultString(res))
	}

	if c.queryPool != nil {
		var timestamps [2]uint64
		res := vk.GetQueryPoolResults(c.device.LogicalDevice, c.queryPool, 0, 2,
			uint64(unsafe.Sizeof(timestamps)), unsafe.Pointer(&timestamps[0]), vk.DeviceSize(8),
			vk.QueryResultFlags(vk.QueryResult64Bit|vk.QueryResultWaitBit))
		if res == vk.Success {
			elapsed := float64(timestamps[1]-timestamps[0]) * c.timestampPeriod
			c.lastDrawTime = time.Duration(elapsed)
		}
	}
	return nil
}

func (c *Context) QueryDrawTime() (time.Duration, error) {
	if !c.config.HUD {
		return 0, fmt.Errorf("GPU timing requires the HUD to be enabled: %w", core.ErrInvalidUsage)
	}
	return c.lastDrawTime, nil
}

func (c *Context) WaitIdle() {
	if c.device != nil {
		vk.DeviceWaitIdle(c.device.LogicalDevice)
	}
}

func (c *Context) Destroy() {
	if c.device != nil {
		vk.DeviceWaitIdle(c.device.LogicalDevice)

		device := c.device.LogicalDevice
		if c.queryPool != nil {
			vk.DestroyQueryPool(device, c.queryPool, nil)
			c.queryPool = nil
		}
		if c.submitFence != nil {
			vk.DestroyFence(device, c.submitFence, nil)
			c.submitFence = nil
		}
		if c.commandPool != nil {
			vk.DestroyCommandPool(device, c.commandPool, nil)
			c.commandPool = nil
			c.commandBuffer = nil
		}
		if c.defaultRTLoad != nil {
			c.defaultRTLoad.free(c.device)
			c.defaultRTLoad = nil
		}
		if c.defaultRT != nil {
			c.defaultRT.free(c.device)
			c.defaultRT = nil
		}
		if c.depth != nil {
			c.depth.destroy(c.device)
			c.depth = nil
		}
		if c.color != nil {
			c.color.destroy(c.device)
			c.color = nil
		}
		c.device.destroy()
		c.device = nil
	}
	if c.instance != nil {
		vk.DestroyInstance(c.instance, nil)
		c.instance = nil
	}
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

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  target.renderPass,
		Framebuffer: target.framebuffer,
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: target.width, Height: target.height},
		},
		ClearValueCount: uint32(len(target.clearValues)),
		PClearValues:    target.clearValues,
	}
	vk.CmdBeginRenderPass(c.commandBuffer, &beginInfo, vk.SubpassContentsInline)
}

func (c *Context) EndRenderPass() {
	if c.currentRT == nil {
		panic("no render pass started")
	}
	vk.CmdEndRenderPass(c.commandBuffer)
	c.currentRT = nil
}

func (c *Context) SetViewport(viewport [4]int32) {
	c.viewport = viewport
	if !c.recording {
		return
	}
	vkViewport := vk.Viewport{
		X:        float32(viewport[0]),
		Y:        float32(viewport[1]),
		Width:    float32(viewport[2]),
		Height:   float32(viewport[3]),
		MinDepth: 0,
		MaxDepth: 1,
	}
	vk.CmdSetViewport(c.commandBuffer, 0, 1, []vk.Viewport{vkViewport})
}

func (c *Context) Viewport() [4]int32 {
	return c.viewport
}

func (c *Context) SetScissor(scissor [4]int32) {
	c.scissor = scissor
	if !c.recording {
		return
	}
	vkScissor := vk.Rect2D{
		Offset: vk.Offset2D{X: scissor[0], Y: scissor[1]},
		Extent: vk.Extent2D{Width: uint32(scissor[2]), Height: uint32(scissor[3])},
	}
	vk.CmdSetScissor(c.commandBuffer, 0, 1, []vk.Rect2D{vkScissor})
}

func (c *Context) Scissor() [4]int32 {
	return c.scissor
}

// clipMatrix remaps the projection from a GL-style clip space (y up, depth
// -1..1) to the Vulkan conventions (y down, depth 0..1).
var clipMatrix = vmath.Mat4{Data: [16]float32{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}}

func (c *Context) TransformProjectionMatrix(m vmath.Mat4) vmath.Mat4 {
	return clipMatrix.Mul(m)
}

func (c *Context) Features() metadata.Features {
	return c.features
}

func (c *Context) Limits() *metadata.Limits {
	return &c.limits
}
