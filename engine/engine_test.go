package engine

import (
	"testing"

	"github.com/spaghettifunk/vega/engine/core"
	"github.com/spaghettifunk/vega/engine/renderer"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
	"github.com/spaghettifunk/vega/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *renderer.Config {
	return &renderer.Config{
		Backend:   metadata.BackendOpenGL,
		Offscreen: true,
		Width:     16,
		Height:    16,
	}
}

// testNode counts the engine callbacks and tracks release.
type testNode struct {
	label    string
	prepared int
	drawn    int
	released int
	children []scene.Node
}

func (n *testNode) Label() string { return n.label }

func (n *testNode) Prepare(t float64) error {
	n.prepared++
	return nil
}

func (n *testNode) Draw(g scene.Graphics) {
	n.drawn++
	_ = g.GPU()
}

func (n *testNode) Children() []scene.Node { return n.children }

func (n *testNode) Release() { n.released++ }

func newTestScene(t *testing.T, root scene.Node) *scene.Scene {
	t.Helper()
	scn, err := scene.New(scene.Params{Root: root})
	require.NoError(t, err)
	return scn
}

func TestMethodsRequireConfiguration(t *testing.T) {
	ctx := New()
	defer ctx.Destroy()

	assert.ErrorIs(t, ctx.Draw(0), core.ErrInvalidUsage)
	assert.ErrorIs(t, ctx.PrepareDraw(0), core.ErrInvalidUsage)
	assert.ErrorIs(t, ctx.Resize(1, 1, nil), core.ErrInvalidUsage)
	assert.ErrorIs(t, ctx.SetScene(nil), core.ErrInvalidUsage)
	assert.ErrorIs(t, ctx.SetCaptureBuffer(nil), core.ErrInvalidUsage)
}

func TestDrawWithoutSceneStillClears(t *testing.T) {
	ctx := New()
	defer ctx.Destroy()
	require.NoError(t, ctx.Configure(testConfig()))

	require.NoError(t, ctx.Draw(0))

	// A frame is never empty: exactly one clearing pass ran.
	require.Equal(t, []metadata.LoadOp{metadata.LoadOpClear}, lastFakeGPU.passes)
	assert.Equal(t, 1, lastFakeGPU.draws)
	assert.False(t, lastFakeGPU.inPass)
}

func TestDrawWithHUDAddsOverlayPass(t *testing.T) {
	ctx := New()
	defer ctx.Destroy()

	config := testConfig()
	config.HUD = true
	require.NoError(t, ctx.Configure(config))

	require.NoError(t, ctx.Draw(0))

	// Scene pass first (clearing), then the overlay pass on the
	// load-existing rendertarget.
	require.Equal(t, []metadata.LoadOp{metadata.LoadOpClear, metadata.LoadOpLoad}, lastFakeGPU.passes)
}

func TestDrawWithHUDScissorsOverlayToTextBounds(t *testing.T) {
	ctx := New()
	defer ctx.Destroy()

	config := testConfig()
	config.Width, config.Height = 640, 480
	config.HUD = true
	require.NoError(t, ctx.Configure(config))

	require.NoError(t, ctx.Draw(0))

	// The overlay pass restricts drawing to the laid out text, inset from
	// the viewport origin and never exceeding the viewport.
	scissor := lastFakeGPU.scissor
	assert.Equal(t, int32(8), scissor[0])
	assert.Positive(t, scissor[2])
	assert.Positive(t, scissor[3])
	assert.LessOrEqual(t, scissor[2], int32(640))
	assert.LessOrEqual(t, scissor[3], int32(480))
}

func TestDrawCallsSceneCallbacks(t *testing.T) {
	ctx := New()
	defer ctx.Destroy()
	require.NoError(t, ctx.Configure(testConfig()))

	root := &testNode{label: "root"}
	scn := newTestScene(t, root)
	require.NoError(t, ctx.SetScene(scn))

	require.NoError(t, ctx.PrepareDraw(0))
	assert.Equal(t, 1, root.prepared)
	assert.Zero(t, root.drawn)

	require.NoError(t, ctx.Draw(0.5))
	assert.Equal(t, 2, root.prepared)
	assert.Equal(t, 1, root.drawn)

	scn.Unref()
}

func TestSceneReferenceLifecycle(t *testing.T) {
	ctx := New()
	defer ctx.Destroy()
	require.NoError(t, ctx.Configure(testConfig()))

	root := &testNode{label: "root"}
	scn := newTestScene(t, root)
	require.NoError(t, ctx.SetScene(scn))

	// The caller drops its reference; the engine's reference keeps the
	// scene alive.
	scn.Unref()
	assert.Zero(t, root.released)

	require.NoError(t, ctx.SetScene(nil))
	assert.Equal(t, 1, root.released)
	assert.GreaterOrEqual(t, lastFakeGPU.waitIdle, 1)
}

func TestSceneReplaceReleasesPrevious(t *testing.T) {
	ctx := New()
	defer ctx.Destroy()
	require.NoError(t, ctx.Configure(testConfig()))

	first := &testNode{label: "first"}
	second := &testNode{label: "second"}

	firstScene := newTestScene(t, first)
	require.NoError(t, ctx.SetScene(firstScene))
	firstScene.Unref()

	secondScene := newTestScene(t, second)
	require.NoError(t, ctx.SetScene(secondScene))
	assert.Equal(t, 1, first.released)
	assert.Zero(t, second.released)

	secondScene.Unref()
	require.NoError(t, ctx.Reset())
	assert.Equal(t, 1, second.released)
}

func TestResetReturnsToUnconfigured(t *testing.T) {
	ctx := New()
	defer ctx.Destroy()
	require.NoError(t, ctx.Configure(testConfig()))
	gpu := lastFakeGPU

	require.NoError(t, ctx.Reset())
	assert.True(t, gpu.destroyed)
	assert.ErrorIs(t, ctx.Draw(0), core.ErrInvalidUsage)

	// A reset context can be configured again.
	require.NoError(t, ctx.Configure(testConfig()))
	require.NoError(t, ctx.Draw(0))
}

func TestConfigureFailureLeavesUnconfigured(t *testing.T) {
	ctx := New()
	defer ctx.Destroy()

	config := testConfig()
	config.Backend = metadata.BackendVulkan // not registered in tests
	assert.Error(t, ctx.Configure(config))
	assert.ErrorIs(t, ctx.Draw(0), core.ErrInvalidUsage)
}

func TestDestroyedContextRejectsCalls(t *testing.T) {
	ctx := New()
	ctx.Destroy()
	assert.ErrorIs(t, ctx.Configure(testConfig()), core.ErrInvalidUsage)
	// Destroy is idempotent.
	ctx.Destroy()
}

func TestGLWrapFramebufferUnsupportedBackend(t *testing.T) {
	ctx := New()
	defer ctx.Destroy()
	require.NoError(t, ctx.Configure(testConfig()))

	// The fake backend does not implement the wrap escape hatch.
	assert.ErrorIs(t, ctx.GLWrapFramebuffer(1), core.ErrUnsupported)
}

func TestLiveControlsSnapshot(t *testing.T) {
	ctx := New()
	defer ctx.Destroy()
	require.NoError(t, ctx.Configure(testConfig()))

	_, err := ctx.LiveControls()
	assert.ErrorIs(t, err, core.ErrInvalidUsage)

	knob := &controlNode{testNode: testNode{label: "knob"}, value: 1}
	root := &testNode{label: "root", children: []scene.Node{knob}}
	scn := newTestScene(t, root)
	defer scn.Unref()
	require.NoError(t, ctx.SetScene(scn))

	controls, err := ctx.LiveControls()
	require.NoError(t, err)
	require.Len(t, controls, 1)
	assert.Equal(t, "knob", controls[0].Label)
	controls.Release()
}
