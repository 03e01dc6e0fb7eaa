// Package board lays out the drawing surface: one brush, the canvas, a row
// of paint buttons and the eraser, wired together through button
// subscriptions.
package board

import (
	"errors"
	"fmt"
	"image"

	"github.com/ayusman/airpaint/internal/element"
	"github.com/ayusman/airpaint/internal/paint"
)

// ErrLayout is returned when a board configuration cannot be laid out.
var ErrLayout = errors.New("invalid board layout")

// EraserName is the name given to the eraser button.
const EraserName = "eraser"

// EraserColor is the eraser's display color. Clearing ignores it.
var EraserColor = paint.White

// Swatch is one palette entry.
type Swatch struct {
	Name  string
	Color paint.Color
}

// Config describes the board independently of the frame size.
type Config struct {
	// Palette fixes the paint buttons and their left-to-right order.
	Palette      []Swatch
	ButtonWidth  int
	ButtonHeight int
	BrushColor   paint.Color
	BrushRadius  int
}

// Board owns the session's brush, canvas and buttons.
type Board struct {
	brush      *paint.Brush
	canvas     *element.Canvas
	buttons    []*element.Button
	elements   []element.Element
	dispatcher *element.Dispatcher
}

// New lays out a board for width x height frames. Paint buttons are placed
// left to right from the top-left corner without gaps, in palette order,
// followed by the eraser.
func New(width, height int, cfg Config) (*Board, error) {
	if len(cfg.Palette) == 0 {
		return nil, fmt.Errorf("%w: empty palette", ErrLayout)
	}
	if cfg.ButtonWidth <= 0 || cfg.ButtonHeight <= 0 {
		return nil, fmt.Errorf("%w: button size %dx%d", ErrLayout, cfg.ButtonWidth, cfg.ButtonHeight)
	}
	rowWidth := (len(cfg.Palette) + 1) * cfg.ButtonWidth
	if rowWidth > width || cfg.ButtonHeight > height {
		return nil, fmt.Errorf("%w: %d buttons of %dx%d do not fit a %dx%d frame",
			ErrLayout, len(cfg.Palette)+1, cfg.ButtonWidth, cfg.ButtonHeight, width, height)
	}

	brush, err := paint.NewBrush(cfg.BrushColor, cfg.BrushRadius)
	if err != nil {
		return nil, err
	}

	b := &Board{
		brush:  brush,
		canvas: element.NewCanvas(width, height, brush),
	}
	b.elements = append(b.elements, b.canvas)

	for i, swatch := range cfg.Palette {
		button := element.NewButton(i, swatch.Name, i*cfg.ButtonWidth, 0, cfg.ButtonWidth, cfg.ButtonHeight, swatch.Color)
		button.Attach(func(c paint.Color) error {
			brush.SetColor(c)
			return nil
		})
		b.add(button)
	}

	n := len(b.buttons)
	eraser := element.NewButton(n, EraserName, n*cfg.ButtonWidth, 0, cfg.ButtonWidth, cfg.ButtonHeight, EraserColor)
	eraser.Attach(func(paint.Color) error {
		b.canvas.Clear()
		return nil
	})
	b.add(eraser)

	targets := make([]element.Target, len(b.elements))
	for i, e := range b.elements {
		targets[i] = e
	}
	b.dispatcher = element.NewDispatcher(targets...)

	return b, nil
}

func (b *Board) add(button *element.Button) {
	b.buttons = append(b.buttons, button)
	b.elements = append(b.elements, button)
}

// Dispatch routes a click to the canvas and every button containing p.
func (b *Board) Dispatch(p image.Point) error {
	return b.dispatcher.Dispatch(p)
}

// Elements returns the canvas followed by the buttons in creation order.
func (b *Board) Elements() []element.Element {
	return b.elements
}

// Layers returns the render order for compositing.
func (b *Board) Layers() []element.Drawable {
	layers := make([]element.Drawable, len(b.elements))
	for i, e := range b.elements {
		layers[i] = e
	}
	return layers
}

// Brush returns the session brush.
func (b *Board) Brush() *paint.Brush {
	return b.brush
}

// Canvas returns the drawing canvas.
func (b *Board) Canvas() *element.Canvas {
	return b.canvas
}

// Buttons returns the paint buttons followed by the eraser.
func (b *Board) Buttons() []*element.Button {
	return b.buttons
}

// Eraser returns the eraser button.
func (b *Board) Eraser() *element.Button {
	return b.buttons[len(b.buttons)-1]
}

// Clear blanks the canvas.
func (b *Board) Clear() {
	b.canvas.Clear()
}

// Close releases the canvas bitmap.
func (b *Board) Close() error {
	return b.canvas.Close()
}
