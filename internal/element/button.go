package element

import (
	"image"

	"github.com/ayusman/airpaint/internal/observe"
	"github.com/ayusman/airpaint/internal/paint"
)

// Button is a fixed rectangle that notifies its subscribers with its color
// when clicked.
type Button struct {
	ID   int
	Name string

	bounds  image.Rectangle
	color   paint.Color
	subject observe.Subject[paint.Color]

	// pressed is recorded for visual feedback but nothing renders it yet.
	pressed bool
}

// NewButton creates a button with its top-left corner at (x0, y0).
func NewButton(id int, name string, x0, y0, width, height int, c paint.Color) *Button {
	return &Button{
		ID:     id,
		Name:   name,
		bounds: image.Rect(x0, y0, x0+width, y0+height),
		color:  c,
	}
}

// Bounds returns the button box. Both corners belong to the button.
func (b *Button) Bounds() image.Rectangle {
	return b.bounds
}

// Color returns the display color, which is also the notification payload.
func (b *Button) Color() paint.Color {
	return b.color
}

// InArea reports whether p lies inside the box, edges included.
func (b *Button) InArea(p image.Point) bool {
	return b.bounds.Min.X <= p.X && p.X <= b.bounds.Max.X &&
		b.bounds.Min.Y <= p.Y && p.Y <= b.bounds.Max.Y
}

// Click notifies the subscribers with the display color; p is ignored.
func (b *Button) Click(image.Point) error {
	return b.subject.Notify(b.color)
}

// Attach subscribes fn to the button's clicks.
func (b *Button) Attach(fn observe.Func[paint.Color]) observe.Handle {
	return b.subject.Attach(fn)
}

// Detach removes a subscription made with Attach.
func (b *Button) Detach(h observe.Handle) bool {
	return b.subject.Detach(h)
}

// SetPressed marks the button as pressed.
func (b *Button) SetPressed() {
	b.pressed = true
}

// SetReleased marks the button as released.
func (b *Button) SetReleased() {
	b.pressed = false
}

// Pressed reports the pressed flag.
func (b *Button) Pressed() bool {
	return b.pressed
}

// Layer renders the button as a solid rectangle in its display color.
func (b *Button) Layer() Layer {
	return FilledRect{Bounds: b.bounds, Color: b.color}
}
