// Package paint holds the colors and brush shared by the drawing surface.
package paint

import (
	"errors"
	"fmt"
	"image/color"
)

// ErrInvalidRadius is returned when a brush is created with a radius <= 0.
var ErrInvalidRadius = errors.New("brush radius must be positive")

// Color is an RGB triple.
type Color struct {
	R, G, B uint8
}

// Common colors.
var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
	Red   = Color{R: 255}
	Green = Color{G: 255}
	Blue  = Color{B: 255}
)

// RGBA converts c to an opaque color.RGBA for the drawing primitives.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// BGR returns the channel values in OpenCV's in-memory order.
func (c Color) BGR() [3]uint8 {
	return [3]uint8{c.B, c.G, c.R}
}

// String formats c as "(r,g,b)".
func (c Color) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.R, c.G, c.B)
}

// Brush is the current stroke color and radius.
type Brush struct {
	color  Color
	radius int
}

// NewBrush creates a brush with the given color and radius.
func NewBrush(c Color, radius int) (*Brush, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRadius, radius)
	}
	return &Brush{color: c, radius: radius}, nil
}

// SetColor replaces the stroke color.
func (b *Brush) SetColor(c Color) {
	b.color = c
}

// Color returns the stroke color.
func (b *Brush) Color() Color {
	return b.color
}

// Radius returns the stamp radius in pixels.
func (b *Brush) Radius() int {
	return b.radius
}
