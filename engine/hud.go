package engine

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/fzipp/bmfont"
	"github.com/spaghettifunk/vega/engine/core"
	vmath "github.com/spaghettifunk/vega/engine/math"
)

// The statistics overlay uses a fixed bitmap font shipped with the engine.
//
//go:embed hudfont.fnt
var hudFontData []byte

type hudGlyph struct {
	x, y          int
	width, height int
	xOffset       int
	yOffset       int
	xAdvance      int
}

// hudQuad is one laid out glyph: screen-space position/size plus the
// normalized atlas coordinates.
type hudQuad struct {
	X, Y, W, H     float32
	U0, V0, U1, V1 float32
}

// hud lays out the frame statistics overlay text. The overlay is drawn
// inside a dedicated load-existing render pass so the scene output
// underneath is kept, scissored to the bounds of the laid out glyphs.
type hud struct {
	lineHeight int
	scaleW     int
	scaleH     int
	glyphs     map[rune]hudGlyph
	kernings   map[[2]rune]int

	text string
}

func newHUD() (*hud, error) {
	desc, err := bmfont.ReadDescriptor(bytes.NewReader(hudFontData))
	if err != nil {
		return nil, fmt.Errorf("could not parse the overlay font: %w", err)
	}

	h := &hud{
		lineHeight: int(desc.Common.LineHeight),
		scaleW:     int(desc.Common.ScaleW),
		scaleH:     int(desc.Common.ScaleH),
		glyphs:     make(map[rune]hudGlyph, len(desc.Chars)),
		kernings:   make(map[[2]rune]int, len(desc.Kerning)),
	}
	for _, ch := range desc.Chars {
		h.glyphs[ch.ID] = hudGlyph{
			x:        int(ch.X),
			y:        int(ch.Y),
			width:    int(ch.Width),
			height:   int(ch.Height),
			xOffset:  int(ch.XOffset),
			yOffset:  int(ch.YOffset),
			xAdvance: int(ch.XAdvance),
		}
	}
	for pair, kerning := range desc.Kerning {
		h.kernings[[2]rune{pair.First, pair.Second}] = int(kerning.Amount)
	}
	return h, nil
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// update rebuilds the overlay text from the current frame metrics.
func (h *hud) update() {
	cpuUpdate, cpuDraw, gpuDraw := core.MetricsDrawTimes()
	h.text = fmt.Sprintf("fps %.0f / %.2f ms\ncpu-update %.2f ms\ncpu-draw %.2f ms\ngpu-draw %.2f ms",
		core.MetricsFPS(), core.MetricsFrameTime(), ms(cpuUpdate), ms(cpuDraw), ms(gpuDraw))
}

// layout turns text into glyph quads anchored at (originX, originY),
// top-left, in pixels. Runes without a glyph are skipped.
func (h *hud) layout(text string, originX, originY int) []hudQuad {
	quads := make([]hudQuad, 0, len(text))
	penX, penY := originX, originY
	previous := rune(-1)

	for _, r := range text {
		if r == '\n' {
			penX = originX
			penY += h.lineHeight
			previous = -1
			continue
		}
		glyph, ok := h.glyphs[r]
		if !ok {
			previous = -1
			continue
		}
		if previous >= 0 {
			penX += h.kernings[[2]rune{previous, r}]
		}
		if glyph.width > 0 && glyph.height > 0 {
			quads = append(quads, hudQuad{
				X:  float32(penX + glyph.xOffset),
				Y:  float32(penY + glyph.yOffset),
				W:  float32(glyph.width),
				H:  float32(glyph.height),
				U0: float32(glyph.x) / float32(h.scaleW),
				V0: float32(glyph.y) / float32(h.scaleH),
				U1: float32(glyph.x+glyph.width) / float32(h.scaleW),
				V1: float32(glyph.y+glyph.height) / float32(h.scaleH),
			})
		}
		penX += glyph.xAdvance
		previous = r
	}
	return quads
}

// overlayBounds returns the pixel-space bounding box of the laid out
// glyphs as x, y, width, height.
func overlayBounds(quads []hudQuad) (x, y, w, h int32) {
	if len(quads) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY := quads[0].X, quads[0].Y
	maxX, maxY := minX+quads[0].W, minY+quads[0].H
	for _, q := range quads[1:] {
		if q.X < minX {
			minX = q.X
		}
		if q.Y < minY {
			minY = q.Y
		}
		if q.X+q.W > maxX {
			maxX = q.X + q.W
		}
		if q.Y+q.H > maxY {
			maxY = q.Y + q.H
		}
	}
	return int32(minX), int32(minY), int32(maxX - minX), int32(maxY - minY)
}

// draw lays out the overlay against the current viewport and restricts the
// overlay draw to the text bounds. Must be called inside the overlay
// render pass.
func (h *hud) draw(c *Context) {
	viewport := c.gpu.Viewport()
	const padding = 8
	originX := vmath.Clamp(viewport[0]+padding, viewport[0], viewport[0]+viewport[2])
	originY := vmath.Clamp(viewport[1]+padding, viewport[1], viewport[1]+viewport[3])
	quads := h.layout(h.text, int(originX), int(originY))

	x, y, w, height := overlayBounds(quads)
	c.gpu.SetScissor([4]int32{
		x, y,
		vmath.Clamp(w, 0, viewport[2]),
		vmath.Clamp(height, 0, viewport[3]),
	})
}
