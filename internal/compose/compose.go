// Package compose renders the drawing surface and cursor onto camera frames.
package compose

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/element"
	"github.com/ayusman/airpaint/internal/gesture"
	"github.com/ayusman/airpaint/internal/paint"
)

// Cursor marker geometry.
const (
	DrawCursorRadius    = 10
	DrawCursorThickness = 3
	HoverCursorRadius   = 5
)

// CursorColor is the color of the cursor marker.
var CursorColor = paint.White

// ErrLayerSize is returned when a bitmap layer does not match the frame size.
var ErrLayerSize = errors.New("layer size does not match frame")

// Target is a letterbox bound for the composed frame.
type Target struct {
	Height int
	Width  int
}

// Compositor layers elements and the cursor onto frames.
type Compositor struct {
	target *Target
}

// New creates a compositor that does not resize.
func New() *Compositor {
	return &Compositor{}
}

// ResizeTo bounds composed frames to height x width, keeping the aspect ratio.
func (c *Compositor) ResizeTo(height, width int) {
	c.target = &Target{Height: height, Width: width}
}

// Target returns the configured resize bound, or nil.
func (c *Compositor) Target() *Target {
	return c.target
}

// Compose draws layers in order and then the cursor onto frame, in place,
// and returns the output frame. The output is always a new Mat owned by the
// caller: a resized copy when a resize applies, a clone otherwise.
func (c *Compositor) Compose(frame *gocv.Mat, layers []element.Drawable, st gesture.State) (gocv.Mat, error) {
	for i, d := range layers {
		if err := drawLayer(frame, d.Layer()); err != nil {
			return gocv.Mat{}, fmt.Errorf("layer %d: %w", i, err)
		}
	}

	drawCursor(frame, st)

	size, ok := c.FitSize(frame.Cols(), frame.Rows())
	if !ok {
		return frame.Clone(), nil
	}

	out := gocv.NewMat()
	gocv.Resize(*frame, &out, size, 0, 0, gocv.InterpolationArea)
	return out, nil
}

// FitSize returns the (width, height) a srcWidth x srcHeight frame is resized
// to, and false when it passes through unchanged. Frames are only ever
// enlarged: a target smaller than the source in either dimension disables
// the resize.
func (c *Compositor) FitSize(srcWidth, srcHeight int) (image.Point, bool) {
	if c.target == nil || srcWidth <= 0 || srcHeight <= 0 {
		return image.Point{}, false
	}

	w, h := c.target.Width, c.target.Height
	if w < srcWidth || h < srcHeight {
		return image.Point{}, false
	}

	fw, fh := float64(srcWidth), float64(srcHeight)
	aspect := fw / fh

	if float64(w)/float64(h) > aspect {
		return image.Point{X: int(fw * float64(h) / fh), Y: h}, true
	}
	return image.Point{X: w, Y: int(fh * (float64(w) / fw))}, true
}

func drawLayer(frame *gocv.Mat, layer element.Layer) error {
	switch l := layer.(type) {
	case element.Bitmap:
		return overlay(frame, l.Mat)
	case element.FilledRect:
		gocv.Rectangle(frame, l.Bounds, l.Color.RGBA(), -1)
		return nil
	default:
		return fmt.Errorf("unsupported layer %T", layer)
	}
}

// overlay copies every non-blank pixel of bitmap onto frame. Blank pixels
// (zero in all channels) leave the frame untouched.
func overlay(frame *gocv.Mat, bitmap gocv.Mat) error {
	if bitmap.Rows() != frame.Rows() || bitmap.Cols() != frame.Cols() {
		return fmt.Errorf("%w: layer %dx%d, frame %dx%d",
			ErrLayerSize, bitmap.Cols(), bitmap.Rows(), frame.Cols(), frame.Rows())
	}

	blank := gocv.NewMat()
	defer blank.Close()
	zero := gocv.NewScalar(0, 0, 0, 0)
	gocv.InRangeWithScalar(bitmap, zero, zero, &blank)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.BitwiseNot(blank, &mask)

	bitmap.CopyToWithMask(frame, mask)
	return nil
}

func drawCursor(frame *gocv.Mat, st gesture.State) {
	switch st.Mode {
	case gesture.Draw:
		gocv.Circle(frame, st.Position, DrawCursorRadius, CursorColor.RGBA(), DrawCursorThickness)
	case gesture.Hover:
		gocv.Circle(frame, st.Position, HoverCursorRadius, CursorColor.RGBA(), -1)
	}
}
