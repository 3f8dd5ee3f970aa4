package scene

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/vega/engine/core"
)

// Controlled is implemented by nodes exposing a parameter that can be
// updated while the scene is attached.
type Controlled interface {
	Node
	Control() Control
	SetValue(value float64, text string) error
}

// Control is a snapshot of one live-updatable node parameter.
type Control struct {
	ID    uuid.UUID
	Label string
	Value float64
	Min   float64
	Max   float64
	Text  string

	// Node is the owning node, kept so updates can be routed back.
	Node Controlled
}

// Controls is the result of a live-control enumeration.
type Controls []Control

// Release drops the node references held by the enumeration. The slice
// must not be used afterwards.
func (c Controls) Release() {
	for i := range c {
		c[i].Node = nil
	}
}

// LiveControls walks the scene graph and snapshots every controlled node,
// in depth-first order. Shared nodes are reported once.
func LiveControls(root Node) Controls {
	var controls Controls
	collectControls(root, map[Node]bool{}, &controls)
	return controls
}

func collectControls(node Node, seen map[Node]bool, out *Controls) {
	if node == nil || seen[node] {
		return
	}
	seen[node] = true
	if controlled, ok := node.(Controlled); ok {
		control := controlled.Control()
		if control.ID == uuid.Nil {
			control.ID = uuid.New()
		}
		control.Node = controlled
		*out = append(*out, control)
	}
	if container, ok := node.(Container); ok {
		for _, child := range container.Children() {
			collectControls(child, seen, out)
		}
	}
}

// ApplyControl routes a value update to the control with the given label.
func (c Controls) ApplyControl(label string, value float64, text string) error {
	for i := range c {
		if c[i].Label != label {
			continue
		}
		if c[i].Node == nil {
			return fmt.Errorf("control %q has been released: %w", label, core.ErrInvalidUsage)
		}
		if c[i].Min != c[i].Max && (value < c[i].Min || value > c[i].Max) {
			return fmt.Errorf("value %g out of range [%g,%g] for control %q: %w",
				value, c[i].Min, c[i].Max, label, core.ErrInvalidArg)
		}
		return c[i].Node.SetValue(value, text)
	}
	return fmt.Errorf("no control labeled %q: %w", label, core.ErrInvalidArg)
}
