package board

import (
	"errors"
	"image"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/element"
	"github.com/ayusman/airpaint/internal/paint"
)

func rgbConfig() Config {
	return Config{
		Palette: []Swatch{
			{Name: "red", Color: paint.Red},
			{Name: "green", Color: paint.Green},
			{Name: "blue", Color: paint.Blue},
		},
		ButtonWidth:  100,
		ButtonHeight: 40,
		BrushColor:   paint.Red,
		BrushRadius:  6,
	}
}

func newBoard(t *testing.T, cfg Config) *Board {
	t.Helper()
	b, err := New(640, 480, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func canvasPixel(b *Board, p image.Point) paint.Color {
	bm := b.Canvas().Layer().(element.Bitmap)
	v := bm.Mat.GetVecbAt(p.Y, p.X)
	return paint.Color{R: v[2], G: v[1], B: v[0]}
}

func canvasBlank(b *Board) bool {
	bm := b.Canvas().Layer().(element.Bitmap)
	for _, v := range bm.Mat.ToBytes() {
		if v != 0 {
			return false
		}
	}
	return true
}

func TestNew_Layout(t *testing.T) {
	b := newBoard(t, rgbConfig())

	want := []struct {
		name   string
		bounds image.Rectangle
		color  paint.Color
	}{
		{"red", image.Rect(0, 0, 100, 40), paint.Red},
		{"green", image.Rect(100, 0, 200, 40), paint.Green},
		{"blue", image.Rect(200, 0, 300, 40), paint.Blue},
		{EraserName, image.Rect(300, 0, 400, 40), paint.White},
	}

	buttons := b.Buttons()
	if len(buttons) != len(want) {
		t.Fatalf("len(Buttons()) = %d, want %d", len(buttons), len(want))
	}
	for i, w := range want {
		got := buttons[i]
		if got.Name != w.name || got.Bounds() != w.bounds || got.Color() != w.color || got.ID != i {
			t.Errorf("button %d = {%d %s %v %v}, want {%d %s %v %v}",
				i, got.ID, got.Name, got.Bounds(), got.Color(), i, w.name, w.bounds, w.color)
		}
	}

	if b.Eraser() != buttons[3] {
		t.Error("Eraser() should be the last button")
	}
}

func TestNew_ElementOrder(t *testing.T) {
	b := newBoard(t, rgbConfig())

	elements := b.Elements()
	if len(elements) != 5 {
		t.Fatalf("len(Elements()) = %d, want 5", len(elements))
	}
	if _, ok := elements[0].(*element.Canvas); !ok {
		t.Errorf("Elements()[0] = %T, want *element.Canvas", elements[0])
	}
	for i, e := range elements[1:] {
		if e != element.Element(b.Buttons()[i]) {
			t.Errorf("Elements()[%d] is not button %d", i+1, i)
		}
	}

	if got := len(b.Layers()); got != 5 {
		t.Errorf("len(Layers()) = %d, want 5", got)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "empty palette", mutate: func(c *Config) { c.Palette = nil }, wantErr: ErrLayout},
		{name: "zero button width", mutate: func(c *Config) { c.ButtonWidth = 0 }, wantErr: ErrLayout},
		{name: "negative button height", mutate: func(c *Config) { c.ButtonHeight = -1 }, wantErr: ErrLayout},
		{name: "row wider than frame", mutate: func(c *Config) { c.ButtonWidth = 200 }, wantErr: ErrLayout},
		{name: "button taller than frame", mutate: func(c *Config) { c.ButtonHeight = 481 }, wantErr: ErrLayout},
		{name: "zero brush radius", mutate: func(c *Config) { c.BrushRadius = 0 }, wantErr: paint.ErrInvalidRadius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := rgbConfig()
			tt.mutate(&cfg)

			b, err := New(640, 480, cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
			if b != nil {
				b.Close()
				t.Error("New() returned a board with an error")
			}
		})
	}
}

func TestDispatch_StampsBeforeColorChange(t *testing.T) {
	cfg := rgbConfig()
	cfg.BrushColor = paint.Blue
	b := newBoard(t, cfg)

	click := image.Pt(50, 20)

	if err := b.Dispatch(click); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got := canvasPixel(b, click); got != paint.Blue {
		t.Errorf("first stamp = %v, want previous brush color %v", got, paint.Blue)
	}
	if got := b.Brush().Color(); got != paint.Red {
		t.Errorf("brush after red button = %v, want %v", got, paint.Red)
	}

	if err := b.Dispatch(click); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got := canvasPixel(b, click); got != paint.Red {
		t.Errorf("second stamp = %v, want %v", got, paint.Red)
	}
}

func TestDispatch_CanvasOnly(t *testing.T) {
	b := newBoard(t, rgbConfig())

	p := image.Pt(320, 240)
	if err := b.Dispatch(p); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if got := canvasPixel(b, p); got != paint.Red {
		t.Errorf("stamp = %v, want %v", got, paint.Red)
	}
	if got := b.Brush().Color(); got != paint.Red {
		t.Errorf("brush = %v, want unchanged %v", got, paint.Red)
	}
}

func TestDispatch_SharedEdgeFiresBothButtons(t *testing.T) {
	b := newBoard(t, rgbConfig())

	var fired []string
	for _, button := range b.Buttons() {
		name := button.Name
		button.Attach(func(paint.Color) error {
			fired = append(fired, name)
			return nil
		})
	}

	b.Dispatch(image.Pt(100, 10))

	if len(fired) != 2 || fired[0] != "red" || fired[1] != "green" {
		t.Errorf("fired = %v, want [red green]", fired)
	}
	// Green subscribed after red, so it wins
	if got := b.Brush().Color(); got != paint.Green {
		t.Errorf("brush = %v, want %v", got, paint.Green)
	}
}

func TestDispatch_EraserClears(t *testing.T) {
	b := newBoard(t, rgbConfig())

	for _, p := range []image.Point{{320, 240}, {600, 400}, {50, 200}} {
		b.Dispatch(p)
	}
	if canvasBlank(b) {
		t.Fatal("canvas should have stamps before erasing")
	}

	if err := b.Dispatch(image.Pt(350, 20)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if !canvasBlank(b) {
		t.Error("canvas should be blank after an eraser click")
	}
	if got := b.Brush().Color(); got != paint.Red {
		t.Errorf("eraser changed the brush to %v", got)
	}
}

func TestDispatch_SubscriberErrorPropagates(t *testing.T) {
	b := newBoard(t, rgbConfig())
	errFail := errors.New("subscriber failed")

	green := b.Buttons()[1]
	green.Attach(func(paint.Color) error { return errFail })

	err := b.Dispatch(image.Pt(150, 20))
	if !errors.Is(err, errFail) {
		t.Fatalf("Dispatch() error = %v, want %v", err, errFail)
	}

	// The brush subscriber ran before the failing one
	if got := b.Brush().Color(); got != paint.Green {
		t.Errorf("brush = %v, want %v", got, paint.Green)
	}
}

func TestClear(t *testing.T) {
	b := newBoard(t, rgbConfig())
	b.Dispatch(image.Pt(320, 240))

	b.Clear()
	b.Clear()

	if !canvasBlank(b) {
		t.Error("canvas not blank after Clear")
	}
	size := b.Canvas().Size()
	mat := b.Canvas().Layer().(element.Bitmap).Mat
	if size != image.Pt(640, 480) || mat.Type() != gocv.MatTypeCV8UC3 {
		t.Errorf("canvas changed shape to %v type %v", size, mat.Type())
	}
}
