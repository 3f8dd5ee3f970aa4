package gl

import (
	"testing"

	"github.com/spaghettifunk/vega/engine/core"
	"github.com/spaghettifunk/vega/engine/renderer"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGLContext(funcs *fakeFuncs, features Features) *GLContext {
	return &GLContext{
		Funcs:    funcs,
		Backend:  metadata.BackendOpenGL,
		Version:  430,
		Features: features,
		Limits: metadata.Limits{
			MaxColorAttachments: 8,
			MaxDrawBuffers:      8,
			MaxSamples:          4,
		},
	}
}

const testFeatures = FeatureFramebufferObject | FeatureClearBuffer | FeatureDrawBuffers

func offscreenConfig(funcs *fakeFuncs, features Features) *renderer.Config {
	return &renderer.Config{
		Backend:   metadata.BackendOpenGL,
		Offscreen: true,
		Width:     16,
		Height:    16,
		BackendConfig: &Config{
			Context: newTestGLContext(funcs, features),
		},
	}
}

func TestInitRequiresNativeContext(t *testing.T) {
	ctx := newContext(&renderer.Config{Offscreen: true, Width: 1, Height: 1},
		metadata.BackendOpenGL, "opengl", "OpenGL")
	err := ctx.Init()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidUsage)
}

func TestOffscreenLifecycleLeakFree(t *testing.T) {
	funcs := newFakeFuncs()
	config := offscreenConfig(funcs, testFeatures)
	config.Samples = 4

	ctx := newContext(config, metadata.BackendOpenGL, "opengl", "OpenGL")
	require.NoError(t, ctx.Init())

	require.NotNil(t, ctx.DefaultRendertarget(metadata.LoadOpClear))
	require.NotNil(t, ctx.DefaultRendertarget(metadata.LoadOpLoad))
	assert.NotEqual(t, ctx.DefaultRendertarget(metadata.LoadOpClear), ctx.DefaultRendertarget(metadata.LoadOpLoad))

	desc := ctx.DefaultRendertargetDesc()
	assert.Equal(t, int32(4), desc.Samples)
	require.Len(t, desc.Colors, 1)
	assert.True(t, desc.Colors[0].Resolve)

	ctx.Destroy()
	assert.Empty(t, funcs.framebuffersAlive)
	assert.Empty(t, funcs.renderbuffersAlive)
	assert.Empty(t, funcs.texturesAlive)
	assert.Empty(t, funcs.queriesAlive)
}

func TestOffscreenRequiresDimensions(t *testing.T) {
	funcs := newFakeFuncs()
	config := offscreenConfig(funcs, testFeatures)
	config.Width = 0

	ctx := newContext(config, metadata.BackendOpenGL, "opengl", "OpenGL")
	assert.ErrorIs(t, ctx.Init(), core.ErrInvalidArg)
}

func TestCaptureRequiresOffscreen(t *testing.T) {
	funcs := newFakeFuncs()
	config := offscreenConfig(funcs, testFeatures)
	config.Offscreen = false
	config.CaptureBuffer = make([]byte, 16*16*4)

	ctx := newContext(config, metadata.BackendOpenGL, "opengl", "OpenGL")
	assert.ErrorIs(t, ctx.Init(), core.ErrInvalidUsage)
}

func TestCaptureCPUReadsAtEndDraw(t *testing.T) {
	funcs := newFakeFuncs()
	config := offscreenConfig(funcs, testFeatures)
	buffer := make([]byte, 16*16*4)
	config.CaptureBuffer = buffer

	ctx := newContext(config, metadata.BackendOpenGL, "opengl", "OpenGL")
	require.NoError(t, ctx.Init())
	defer ctx.Destroy()

	require.NoError(t, ctx.BeginDraw(0))
	ctx.BeginRenderPass(ctx.DefaultRendertarget(metadata.LoadOpClear))
	ctx.EndRenderPass()
	require.NoError(t, ctx.EndDraw(0))

	assert.Equal(t, 1, funcs.readPixels)
	assert.Equal(t, byte(0xab), buffer[0])
}

func TestCaptureCoreVideoUnsupported(t *testing.T) {
	funcs := newFakeFuncs()
	config := offscreenConfig(funcs, testFeatures)
	config.CaptureBuffer = make([]byte, 16*16*4)
	config.CaptureBufferType = renderer.CaptureBufferTypeCoreVideo

	ctx := newContext(config, metadata.BackendOpenGL, "opengl", "OpenGL")
	assert.ErrorIs(t, ctx.Init(), core.ErrUnsupported)
}

func TestSetCaptureBufferOffscreenOnly(t *testing.T) {
	funcs := newFakeFuncs()
	ctx := newContext(offscreenConfig(funcs, testFeatures), metadata.BackendOpenGL, "opengl", "OpenGL")
	require.NoError(t, ctx.Init())
	defer ctx.Destroy()

	require.NoError(t, ctx.SetCaptureBuffer(make([]byte, 16*16*4)))
	assert.NotNil(t, ctx.capture)
	require.NoError(t, ctx.SetCaptureBuffer(nil))
	assert.Nil(t, ctx.capture)
}

func TestResizeOffscreenUnsupported(t *testing.T) {
	funcs := newFakeFuncs()
	ctx := newContext(offscreenConfig(funcs, testFeatures), metadata.BackendOpenGL, "opengl", "OpenGL")
	require.NoError(t, ctx.Init())
	defer ctx.Destroy()

	assert.ErrorIs(t, ctx.Resize(32, 32, nil), core.ErrUnsupported)
}

func TestSamplesExceedingLimit(t *testing.T) {
	funcs := newFakeFuncs()
	config := offscreenConfig(funcs, testFeatures)
	config.Samples = 16

	ctx := newContext(config, metadata.BackendOpenGL, "opengl", "OpenGL")
	assert.ErrorIs(t, ctx.Init(), core.ErrGraphicsUnsupported)
}

func externalConfig(funcs *fakeFuncs, fbo uint32) *renderer.Config {
	return &renderer.Config{
		Backend: metadata.BackendOpenGL,
		Width:   16,
		Height:  16,
		BackendConfig: &Config{
			Context:             newTestGLContext(funcs, testFeatures),
			External:            true,
			ExternalFramebuffer: fbo,
		},
	}
}

func TestExternalValidatesComponents(t *testing.T) {
	funcs := newFakeFuncs()
	funcs.attachmentSizes[DEPTH_STENCIL_ATTACHMENT] = map[Enum]int32{
		FRAMEBUFFER_ATTACHMENT_STENCIL_SIZE: 0,
	}

	ctx := newContext(externalConfig(funcs, 7), metadata.BackendOpenGL, "opengl", "OpenGL")
	err := ctx.Init()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrGraphicsUnsupported)
	assert.Contains(t, err.Error(), "stencil")
}

func TestWrapExternalFramebufferKeepsStateOnFailure(t *testing.T) {
	funcs := newFakeFuncs()
	ctx := newContext(externalConfig(funcs, 7), metadata.BackendOpenGL, "opengl", "OpenGL")
	require.NoError(t, ctx.Init())
	defer ctx.Destroy()
	require.Equal(t, uint32(7), ctx.defaultRT.id)

	// A framebuffer with no depth component is rejected and the previous
	// wrap stays active.
	funcs.attachmentSizes[DEPTH_STENCIL_ATTACHMENT] = map[Enum]int32{
		FRAMEBUFFER_ATTACHMENT_DEPTH_SIZE: 0,
	}
	err := ctx.WrapExternalFramebuffer(9)
	require.ErrorIs(t, err, core.ErrGraphicsUnsupported)
	assert.Equal(t, uint32(7), ctx.defaultRT.id)
	assert.Equal(t, uint32(7), ctx.defaultRTLoad.id)

	funcs.attachmentSizes = map[Enum]map[Enum]int32{}
	require.NoError(t, ctx.WrapExternalFramebuffer(9))
	assert.Equal(t, uint32(9), ctx.defaultRT.id)
}

func TestWrapExternalFramebufferRequiresExternalSurface(t *testing.T) {
	funcs := newFakeFuncs()
	ctx := newContext(offscreenConfig(funcs, testFeatures), metadata.BackendOpenGL, "opengl", "OpenGL")
	require.NoError(t, ctx.Init())
	defer ctx.Destroy()

	assert.ErrorIs(t, ctx.WrapExternalFramebuffer(9), core.ErrInvalidUsage)
}

func TestExternalResizeUpdatesDimensionsOnly(t *testing.T) {
	funcs := newFakeFuncs()
	ctx := newContext(externalConfig(funcs, 7), metadata.BackendOpenGL, "opengl", "OpenGL")
	require.NoError(t, ctx.Init())
	defer ctx.Destroy()

	require.NoError(t, ctx.Resize(64, 48, nil))
	w, h := ctx.DefaultRendertarget(metadata.LoadOpClear).Size()
	assert.Equal(t, uint32(64), w)
	assert.Equal(t, uint32(48), h)
	assert.Equal(t, [4]int32{0, 0, 64, 48}, ctx.Viewport())
	assert.Equal(t, [4]int32{0, 0, 64, 48}, ctx.Scissor())
	// The wrapped framebuffer id is untouched.
	assert.Equal(t, uint32(7), ctx.defaultRT.id)
}

func TestRenderPassPairing(t *testing.T) {
	funcs := newFakeFuncs()
	ctx := newContext(offscreenConfig(funcs, testFeatures), metadata.BackendOpenGL, "opengl", "OpenGL")
	require.NoError(t, ctx.Init())
	defer ctx.Destroy()

	assert.Panics(t, func() { ctx.EndRenderPass() })
	assert.Panics(t, func() { ctx.BeginRenderPass(nil) })

	rt := ctx.DefaultRendertarget(metadata.LoadOpClear)
	ctx.BeginRenderPass(rt)
	assert.Panics(t, func() { ctx.BeginRenderPass(rt) })
	ctx.EndRenderPass()
}

func TestTransformProjectionMatrixFlipsOffscreen(t *testing.T) {
	funcs := newFakeFuncs()
	ctx := newContext(offscreenConfig(funcs, testFeatures), metadata.BackendOpenGL, "opengl", "OpenGL")
	require.NoError(t, ctx.Init())
	defer ctx.Destroy()

	m := ctx.TransformProjectionMatrix(flipMatrix)
	// Flipping the flip matrix lands back on identity.
	identity := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	assert.Equal(t, identity, m.Data)
}
