package element

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/paint"
)

// Canvas is the persistent raster surface brush stamps are drawn onto. It
// covers the whole frame.
type Canvas struct {
	bitmap gocv.Mat
	brush  *paint.Brush
}

// NewCanvas creates a blank width x height canvas that stamps with brush.
func NewCanvas(width, height int, brush *paint.Brush) *Canvas {
	return &Canvas{
		bitmap: gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3),
		brush:  brush,
	}
}

// InArea is always true: the canvas spans the frame.
func (c *Canvas) InArea(image.Point) bool {
	return true
}

// Click stamps a filled circle of the brush's current color and radius at
// p, overwriting the pixels under it.
func (c *Canvas) Click(p image.Point) error {
	gocv.Circle(&c.bitmap, p, c.brush.Radius(), c.brush.Color().RGBA(), -1)
	return nil
}

// Clear resets every pixel to zero.
func (c *Canvas) Clear() {
	c.bitmap.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

// Layer exposes the bitmap for compositing.
func (c *Canvas) Layer() Layer {
	return Bitmap{Mat: c.bitmap}
}

// Size returns the canvas dimensions as (width, height).
func (c *Canvas) Size() image.Point {
	return image.Point{X: c.bitmap.Cols(), Y: c.bitmap.Rows()}
}

// Close releases the bitmap.
func (c *Canvas) Close() error {
	return c.bitmap.Close()
}
