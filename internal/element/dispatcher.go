package element

import (
	"fmt"
	"image"
)

// Dispatcher routes clicks to every target whose area contains them. There
// is no top-most element: all containing targets are clicked, in order.
type Dispatcher struct {
	targets []Target
}

// NewDispatcher creates a dispatcher over targets in the given order.
func NewDispatcher(targets ...Target) *Dispatcher {
	return &Dispatcher{targets: targets}
}

// Dispatch clicks every target that contains p. A click error stops the
// dispatch and is returned; a point outside every target is a no-op.
func (d *Dispatcher) Dispatch(p image.Point) error {
	for i, t := range d.targets {
		if !t.InArea(p) {
			continue
		}
		if err := t.Click(p); err != nil {
			return fmt.Errorf("dispatch %v to element %d: %w", p, i, err)
		}
	}
	return nil
}

// Len returns the number of targets.
func (d *Dispatcher) Len() int {
	return len(d.targets)
}
