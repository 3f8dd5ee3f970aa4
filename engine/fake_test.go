package engine

import (
	"time"

	vmath "github.com/spaghettifunk/vega/engine/math"
	"github.com/spaghettifunk/vega/engine/renderer"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
)

// fakeRendertarget and fakeGPU form an in-memory backend the engine tests
// register under the OpenGL backend id.
type fakeRendertarget struct {
	op metadata.LoadOp
}

func (f *fakeRendertarget) Size() (uint32, uint32) { return 16, 16 }

type fakeGPU struct {
	config renderer.Config

	initErr   error
	destroyed bool

	passes   []metadata.LoadOp
	inPass   bool
	draws    int
	waitIdle int

	viewport [4]int32
	scissor  [4]int32

	clearRT fakeRendertarget
	loadRT  fakeRendertarget
}

// lastFakeGPU is set by the factory so tests can inspect the backend the
// engine context created internally.
var lastFakeGPU *fakeGPU

func init() {
	renderer.Register(metadata.BackendOpenGL, func(config *renderer.Config) renderer.Context {
		lastFakeGPU = &fakeGPU{
			config:  *config,
			clearRT: fakeRendertarget{op: metadata.LoadOpClear},
			loadRT:  fakeRendertarget{op: metadata.LoadOpLoad},
		}
		return lastFakeGPU
	})
}

func (f *fakeGPU) StringID() string { return "fake" }
func (f *fakeGPU) Name() string     { return "Fake" }

func (f *fakeGPU) Init() error {
	if f.initErr == nil {
		f.viewport = [4]int32{0, 0, f.config.Width, f.config.Height}
		f.scissor = f.viewport
	}
	return f.initErr
}

func (f *fakeGPU) Resize(width, height int32, viewport *[4]int32) error {
	f.config.Width, f.config.Height = width, height
	return nil
}

func (f *fakeGPU) SetCaptureBuffer(buffer []byte) error {
	f.config.CaptureBuffer = buffer
	return nil
}

func (f *fakeGPU) BeginUpdate(t float64) error { return nil }
func (f *fakeGPU) EndUpdate(t float64) error   { return nil }
func (f *fakeGPU) BeginDraw(t float64) error   { f.draws++; return nil }
func (f *fakeGPU) EndDraw(t float64) error     { return nil }

func (f *fakeGPU) QueryDrawTime() (time.Duration, error) {
	return 42 * time.Microsecond, nil
}

func (f *fakeGPU) WaitIdle() { f.waitIdle++ }
func (f *fakeGPU) Destroy()  { f.destroyed = true }

func (f *fakeGPU) DefaultRendertarget(op metadata.LoadOp) renderer.Rendertarget {
	if op == metadata.LoadOpLoad {
		return &f.loadRT
	}
	return &f.clearRT
}

func (f *fakeGPU) DefaultRendertargetDesc() *metadata.RendertargetDesc {
	return &metadata.RendertargetDesc{}
}

func (f *fakeGPU) BeginRenderPass(rt renderer.Rendertarget) {
	if f.inPass {
		panic("render pass already started")
	}
	f.inPass = true
	f.passes = append(f.passes, rt.(*fakeRendertarget).op)
}

func (f *fakeGPU) EndRenderPass() {
	if !f.inPass {
		panic("no render pass started")
	}
	f.inPass = false
}

func (f *fakeGPU) SetViewport(viewport [4]int32) { f.viewport = viewport }
func (f *fakeGPU) Viewport() [4]int32            { return f.viewport }
func (f *fakeGPU) SetScissor(scissor [4]int32)   { f.scissor = scissor }
func (f *fakeGPU) Scissor() [4]int32             { return f.scissor }

func (f *fakeGPU) TransformProjectionMatrix(m vmath.Mat4) vmath.Mat4 { return m }

func (f *fakeGPU) Features() metadata.Features { return 0 }
func (f *fakeGPU) Limits() *metadata.Limits    { return &metadata.Limits{} }
