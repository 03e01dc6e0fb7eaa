package app

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/board"
	"github.com/ayusman/airpaint/internal/capture"
	"github.com/ayusman/airpaint/internal/config"
	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/element"
	"github.com/ayusman/airpaint/internal/gesture"
	"github.com/ayusman/airpaint/internal/paint"
	"github.com/ayusman/airpaint/internal/present"
)

// Frame sizes whose reciprocals are exact in binary, so normalized
// landmarks map back to the intended pixels.
const (
	frameWidth  = 640
	frameHeight = 512
)

var background = paint.Color{R: 40, G: 40, B: 40}

func newFrame(t *testing.T) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 40, 40, 0), frameHeight, frameWidth, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { m.Close() })
	return m
}

func pointingAt(p image.Point) []detector.HandLandmarks {
	return []detector.HandLandmarks{
		detector.PointingAt(float64(p.X)/frameWidth, float64(p.Y)/frameHeight),
	}
}

func pixel(m gocv.Mat, p image.Point) paint.Color {
	v := m.GetVecbAt(p.Y, p.X)
	return paint.Color{R: v[2], G: v[1], B: v[0]}
}

func canvasAt(a *App, p image.Point) paint.Color {
	return pixel(a.Board().Canvas().Layer().(element.Bitmap).Mat, p)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Resize.Enabled = false
	return cfg
}

// recordingSink keeps the pixel at probe of every shown frame.
type recordingSink struct {
	mu     sync.Mutex
	probe  image.Point
	pixels []paint.Color
	sizes  []image.Point
	err    error
	shown  chan paint.Color
}

func newRecordingSink(probe image.Point) *recordingSink {
	return &recordingSink{probe: probe, shown: make(chan paint.Color, 64)}
}

func (r *recordingSink) Show(frame gocv.Mat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := pixel(frame, r.probe)
	r.pixels = append(r.pixels, c)
	r.sizes = append(r.sizes, image.Pt(frame.Cols(), frame.Rows()))
	select {
	case r.shown <- c:
	default:
	}
	return r.err
}

func (r *recordingSink) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func newApp(t *testing.T, cfg config.Config, cam capture.Camera, det detector.Detector, sink present.Sink) *App {
	t.Helper()
	a, err := New(cfg, cam, det, sink)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNew_Validation(t *testing.T) {
	cam := capture.NewMockCamera(nil, false)
	det := detector.NewMockDetector()
	sink := newRecordingSink(image.Point{})

	bad := testConfig()
	bad.Palette = nil
	if _, err := New(bad, cam, det, sink); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("New() with empty palette error = %v, want ErrInvalid", err)
	}

	if _, err := New(testConfig(), nil, det, sink); err == nil {
		t.Error("New() without camera expected error")
	}

	a, err := New(testConfig(), cam, det, sink)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !a.IsEnabled() {
		t.Error("new session should start enabled")
	}
	if a.Board() != nil {
		t.Error("board should not exist before the first frame")
	}
}

func TestProcessFrame(t *testing.T) {
	center := image.Pt(320, 256)

	tests := []struct {
		name       string
		hands      []detector.HandLandmarks
		enabled    bool
		wantCanvas paint.Color
		wantMode   gesture.Mode
	}{
		{
			name:       "draw stamps the canvas",
			hands:      pointingAt(center),
			enabled:    true,
			wantCanvas: paint.Red,
			wantMode:   gesture.Draw,
		},
		{
			name:       "draw while paused does not stamp",
			hands:      pointingAt(center),
			enabled:    false,
			wantCanvas: paint.Black,
			wantMode:   gesture.Draw,
		},
		{
			name:       "hover never dispatches",
			hands:      []detector.HandLandmarks{detector.OpenPalmLandmarks()},
			enabled:    true,
			wantCanvas: paint.Black,
			wantMode:   gesture.Hover,
		},
		{
			name:       "no hand",
			enabled:    true,
			wantCanvas: paint.Black,
			wantMode:   gesture.NoHand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := newRecordingSink(center)
			a := newApp(t, testConfig(), capture.NewMockCamera(nil, false), detector.NewMockDetector(), sink)
			a.SetEnabled(tt.enabled)

			var snaps []Snapshot
			a.OnFrame(func(s Snapshot) error {
				snaps = append(snaps, s)
				return nil
			})

			frame := newFrame(t)
			if err := a.ProcessFrame(&frame, tt.hands); err != nil {
				t.Fatalf("ProcessFrame() error = %v", err)
			}

			if got := canvasAt(a, center); got != tt.wantCanvas {
				t.Errorf("canvas at %v = %v, want %v", center, got, tt.wantCanvas)
			}
			if len(snaps) != 1 || snaps[0].Gesture.Mode != tt.wantMode {
				t.Fatalf("snapshots = %+v, want one in mode %v", snaps, tt.wantMode)
			}
			if snaps[0].Enabled != tt.enabled {
				t.Errorf("snapshot enabled = %v, want %v", snaps[0].Enabled, tt.enabled)
			}
			if len(sink.pixels) != 1 {
				t.Errorf("sink shown %d frames, want 1", len(sink.pixels))
			}
		})
	}
}

func TestProcessFrame_ButtonThenStroke(t *testing.T) {
	// Brush starts red; the second button is green
	greenButton := image.Pt(150, 20)
	stroke := image.Pt(320, 256)

	sink := newRecordingSink(stroke)
	a := newApp(t, testConfig(), capture.NewMockCamera(nil, false), detector.NewMockDetector(), sink)

	var brushes []paint.Color
	a.OnFrame(func(s Snapshot) error {
		brushes = append(brushes, s.Brush)
		return nil
	})

	steps := []struct {
		at   image.Point
		want paint.Color
	}{
		{at: greenButton, want: paint.Green},
		{at: stroke, want: paint.Green},
	}
	for _, step := range steps {
		frame := newFrame(t)
		if err := a.ProcessFrame(&frame, pointingAt(step.at)); err != nil {
			t.Fatalf("ProcessFrame(%v) error = %v", step.at, err)
		}
	}

	if got := canvasAt(a, stroke); got != paint.Green {
		t.Errorf("stroke color = %v, want green", got)
	}
	// The first click stamped under the button with the old color
	if got := canvasAt(a, greenButton); got != paint.Red {
		t.Errorf("canvas under button = %v, want red", got)
	}
	for i, want := range []paint.Color{paint.Green, paint.Green} {
		if brushes[i] != want {
			t.Errorf("snapshot %d brush = %v, want %v", i, brushes[i], want)
		}
	}
}

func TestProcessFrame_Eraser(t *testing.T) {
	eraser := image.Pt(350, 20)
	stroke := image.Pt(320, 256)

	a := newApp(t, testConfig(), capture.NewMockCamera(nil, false), detector.NewMockDetector(), newRecordingSink(stroke))

	for _, p := range []image.Point{stroke, eraser} {
		frame := newFrame(t)
		if err := a.ProcessFrame(&frame, pointingAt(p)); err != nil {
			t.Fatalf("ProcessFrame(%v) error = %v", p, err)
		}
	}

	// The canvas stamp under the eraser happens before the clear
	for _, p := range []image.Point{stroke, eraser} {
		if got := canvasAt(a, p); got != paint.Black {
			t.Errorf("canvas at %v = %v, want cleared", p, got)
		}
	}
}

func TestProcessFrame_Resize(t *testing.T) {
	cfg := config.Default()
	sink := newRecordingSink(image.Point{})
	a := newApp(t, cfg, capture.NewMockCamera(nil, false), detector.NewMockDetector(), sink)

	frame := newFrame(t)
	if err := a.ProcessFrame(&frame, nil); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	if want := image.Pt(1200, 960); sink.sizes[0] != want {
		t.Errorf("presented size = %v, want %v", sink.sizes[0], want)
	}
}

func TestProcessFrame_LayoutError(t *testing.T) {
	a := newApp(t, testConfig(), capture.NewMockCamera(nil, false), detector.NewMockDetector(), newRecordingSink(image.Point{}))

	small := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 100, 200, gocv.MatTypeCV8UC3)
	defer small.Close()

	if err := a.ProcessFrame(&small, nil); !errors.Is(err, board.ErrLayout) {
		t.Errorf("ProcessFrame() error = %v, want ErrLayout", err)
	}
}

func TestProcessFrame_ObserverFailureIsLogged(t *testing.T) {
	sink := newRecordingSink(image.Point{})
	a := newApp(t, testConfig(), capture.NewMockCamera(nil, false), detector.NewMockDetector(), sink)

	h := a.OnFrame(func(Snapshot) error { return errors.New("observer down") })

	frame := newFrame(t)
	if err := a.ProcessFrame(&frame, nil); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}
	if len(sink.pixels) != 1 {
		t.Error("frame should still be presented")
	}
	if !a.RemoveFrameObserver(h) {
		t.Error("RemoveFrameObserver() = false")
	}
}

func TestOffer_LatestWins(t *testing.T) {
	ch := make(chan *sample, 1)

	first := &sample{hands: pointingAt(image.Pt(1, 1))}
	second := &sample{hands: pointingAt(image.Pt(2, 2))}

	if offer(ch, first) {
		t.Error("offer() into empty slot reported a drop")
	}
	if !offer(ch, second) {
		t.Error("offer() into full slot should drop the waiting sample")
	}

	if got := <-ch; got != second {
		t.Error("slot should hold the latest sample")
	}
	select {
	case <-ch:
		t.Error("slot should hold a single sample")
	default:
	}
}

func runApp(t *testing.T, a *App) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		done <- a.Run(ctx)
		close(finished)
	}()
	t.Cleanup(func() {
		cancel()
		<-finished
	})
	return cancel, done
}

func waitFor(t *testing.T, sink *recordingSink, want paint.Color) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case got := <-sink.shown:
			if got == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for a frame showing %v", want)
		}
	}
}

func TestRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping frame loop test in short mode")
	}

	center := image.Pt(320, 256)
	frame := newFrame(t)
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	det := detector.NewMockDetector()
	det.SetHands(pointingAt(center))
	sink := newRecordingSink(center)

	a := newApp(t, testConfig(), cam, det, sink)
	cancel, done := runApp(t, a)

	// The draw cursor is a ring, so the stamp shows through its center
	waitFor(t, sink, paint.Red)

	if err := a.Run(context.Background()); !errors.Is(err, ErrRunning) {
		t.Errorf("second Run() error = %v, want ErrRunning", err)
	}

	a.SetEnabled(false)
	a.Clear()
	waitFor(t, sink, background)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if cam.IsOpen() {
		t.Error("camera should be closed after Run returns")
	}
	if det.Calls() == 0 {
		t.Error("detector was never called")
	}
}

func TestRun_SinkClosed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping frame loop test in short mode")
	}

	frame := newFrame(t)
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	sink := newRecordingSink(image.Point{})
	sink.setErr(present.ErrClosed)

	a := newApp(t, testConfig(), cam, detector.NewMockDetector(), sink)
	_, done := runApp(t, a)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after the sink closed")
	}
}

func TestRun_DetectorErrorIsNoHand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping frame loop test in short mode")
	}

	frame := newFrame(t)
	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	det := detector.NewMockDetector()
	det.SetHands(pointingAt(image.Pt(320, 256)))
	det.SetError(errors.New("model crashed"))

	sink := newRecordingSink(image.Pt(320, 256))
	a := newApp(t, testConfig(), cam, det, sink)

	modes := make(chan gesture.Mode, 16)
	a.OnFrame(func(s Snapshot) error {
		select {
		case modes <- s.Gesture.Mode:
		default:
		}
		return nil
	})

	runApp(t, a)

	select {
	case m := <-modes:
		if m != gesture.NoHand {
			t.Errorf("mode = %v, want %v", m, gesture.NoHand)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no frame processed")
	}
}
