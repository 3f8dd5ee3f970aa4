// Package scene holds the scene root handle shared between the caller and
// the engine context, plus the live-control plumbing.
package scene

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/vega/engine/core"
	vmath "github.com/spaghettifunk/vega/engine/math"
	"github.com/spaghettifunk/vega/engine/renderer"
)

// Graphics is the per-frame drawing surface handed to nodes. It is
// implemented by the engine context and valid only inside Draw.
type Graphics interface {
	GPU() renderer.Context
	ModelViewMatrix() vmath.Mat4
	ProjectionMatrix() vmath.Mat4
}

// Node is a scene-graph node. Prepare is called once per frame before any
// pass begins; Draw is called inside the default render pass.
type Node interface {
	Label() string
	Prepare(t float64) error
	Draw(g Graphics)
}

// Container is implemented by nodes with children; the live-control walk
// traverses it.
type Container interface {
	Node
	Children() []Node
}

// Releaser is implemented by nodes holding native resources. It is called
// once, when the last scene reference goes away.
type Releaser interface {
	Release()
}

// Params describe a scene beyond its graph: timing and aspect metadata the
// engine exposes but does not interpret.
type Params struct {
	Root        Node
	Duration    float64
	Framerate   [2]int32
	AspectRatio [2]int32
}

// Scene is a reference-counted scene handle. The engine takes its own
// reference when the scene is attached and drops it on replace or reset;
// the node tree is released when the last reference goes away.
type Scene struct {
	params Params
	refs   atomic.Int64
}

// New wraps a node tree into a shared scene handle with one reference,
// owned by the caller.
func New(params Params) (*Scene, error) {
	if params.Root == nil {
		return nil, fmt.Errorf("scene root cannot be nil: %w", core.ErrInvalidArg)
	}
	if params.Framerate[0] <= 0 || params.Framerate[1] <= 0 {
		params.Framerate = [2]int32{60, 1}
	}
	s := &Scene{params: params}
	s.refs.Store(1)
	return s, nil
}

func (s *Scene) Root() Node          { return s.params.Root }
func (s *Scene) Duration() float64   { return s.params.Duration }
func (s *Scene) Framerate() [2]int32 { return s.params.Framerate }

// Ref takes an additional reference and returns s for chaining.
func (s *Scene) Ref() *Scene {
	if s.refs.Add(1) <= 1 {
		panic("reference on a released scene")
	}
	return s
}

// Unref drops one reference. The node tree is walked for Releaser nodes
// when the count reaches zero.
func (s *Scene) Unref() {
	refs := s.refs.Add(-1)
	if refs > 0 {
		return
	}
	if refs < 0 {
		panic("scene released twice")
	}
	releaseTree(s.params.Root, map[Node]bool{})
	s.params.Root = nil
}

func releaseTree(node Node, seen map[Node]bool) {
	if node == nil || seen[node] {
		return
	}
	seen[node] = true
	if container, ok := node.(Container); ok {
		for _, child := range container.Children() {
			releaseTree(child, seen)
		}
	}
	if releaser, ok := node.(Releaser); ok {
		releaser.Release()
	}
}
