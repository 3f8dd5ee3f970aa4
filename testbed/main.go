/*
Offscreen rendering example: draws a short animation into a capture
buffer and dumps every frame as a BMP file.
*/
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/vega/engine"
	"github.com/spaghettifunk/vega/engine/core"
	"github.com/spaghettifunk/vega/engine/platform"
	"github.com/spaghettifunk/vega/engine/renderer"
	"github.com/spaghettifunk/vega/engine/renderer/gl"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
	"github.com/spaghettifunk/vega/engine/scene"
	"golang.org/x/image/bmp"

	// Compiled-in backends.
	_ "github.com/spaghettifunk/vega/engine/renderer/vulkan"
)

// pulse is a minimal scene node: it exposes its speed as a live control
// and tracks the animation time.
type pulse struct {
	t     float64
	speed float64
}

func (p *pulse) Label() string { return "pulse" }

func (p *pulse) Prepare(t float64) error {
	p.t = t * p.speed
	return nil
}

func (p *pulse) Draw(g scene.Graphics) {}

func (p *pulse) Control() scene.Control {
	return scene.Control{
		Label: "speed",
		Value: p.speed,
		Min:   0,
		Max:   10,
	}
}

func (p *pulse) SetValue(value float64, text string) error {
	p.speed = value
	return nil
}

func run() error {
	backendName := flag.String("backend", "opengl", "backend to render with (opengl, vulkan)")
	width := flag.Int("width", 320, "frame width")
	height := flag.Int("height", 240, "frame height")
	frames := flag.Int("frames", 30, "number of frames to render")
	outDir := flag.String("out", "frames", "output directory")
	flag.Parse()

	config := &renderer.Config{
		Offscreen:  true,
		Width:      int32(*width),
		Height:     int32(*height),
		ClearColor: [4]float32{0.1, 0.1, 0.1, 1},
	}

	var capture []byte
	switch *backendName {
	case "opengl":
		// The OpenGL backend renders into engine-owned framebuffers but
		// still needs a native context; a hidden window provides one.
		plat, err := platform.New()
		if err != nil {
			return err
		}
		if err := plat.Startup("vega-testbed", 0, 0, uint32(*width), uint32(*height), true); err != nil {
			return err
		}
		defer plat.Shutdown()

		glContext, err := plat.NewGLContext()
		if err != nil {
			return err
		}
		capture = make([]byte, *width**height*4)
		config.Backend = metadata.BackendOpenGL
		config.CaptureBuffer = capture
		config.BackendConfig = &gl.Config{Context: glContext}
	case "vulkan":
		// The Vulkan backend has no frame capture; the run only exercises
		// the draw loop.
		config.Backend = metadata.BackendVulkan
	default:
		return fmt.Errorf("unknown backend %q", *backendName)
	}

	if capture != nil {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			return err
		}
	}

	ctx := engine.New()
	defer ctx.Destroy()

	if err := ctx.Configure(config); err != nil {
		return err
	}

	scn, err := scene.New(scene.Params{
		Root:     &pulse{speed: 1},
		Duration: float64(*frames) / 60,
	})
	if err != nil {
		return err
	}
	defer scn.Unref()

	if err := ctx.SetScene(scn); err != nil {
		return err
	}

	clock := core.NewClock()
	clock.Start()
	for frame := 0; frame < *frames; frame++ {
		t := float64(frame) / 60
		if err := ctx.Draw(t); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		if capture == nil {
			continue
		}
		if err := dumpFrame(*outDir, frame, capture, *width, *height); err != nil {
			return err
		}
	}
	clock.Update()
	core.LogInfo("rendered %d frames in %s", *frames, clock.Elapsed())
	return nil
}

func dumpFrame(dir string, frame int, capture []byte, width, height int) error {
	img := &image.RGBA{
		Pix:    capture,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.bmp", frame))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return bmp.Encode(f, img)
}

func main() {
	if err := run(); err != nil {
		core.LogFatal("testbed: %v", err)
		os.Exit(1)
	}
}
