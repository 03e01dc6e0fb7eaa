// Package element provides the hit-testable, clickable and drawable parts of
// the drawing surface and the dispatcher that routes clicks to them.
package element

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/paint"
)

// HitTester reports whether a frame coordinate falls inside an element.
type HitTester interface {
	InArea(p image.Point) bool
}

// Clicker reacts to a click at a frame coordinate.
type Clicker interface {
	Click(p image.Point) error
}

// Drawable describes how an element is rendered.
type Drawable interface {
	Layer() Layer
}

// Target is an element the dispatcher can route clicks to.
type Target interface {
	HitTester
	Clicker
}

// Element is a target that is also rendered.
type Element interface {
	Target
	Drawable
}

// Layer is the render description of one element. It is either a Bitmap or
// a FilledRect.
type Layer interface {
	isLayer()
}

// Bitmap is a full-frame raster layer. Pixels that are zero in every channel
// are transparent. The Mat is owned by the element and must not be modified
// or closed by the renderer.
type Bitmap struct {
	Mat gocv.Mat
}

// FilledRect is an opaque rectangle. Bounds.Max is drawn inclusively.
type FilledRect struct {
	Bounds image.Rectangle
	Color  paint.Color
}

func (Bitmap) isLayer()     {}
func (FilledRect) isLayer() {}
