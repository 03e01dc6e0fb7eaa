// Package app runs the airpaint drawing session: it reads camera frames,
// turns hand landmarks into clicks on the board and presents the
// composited result.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/board"
	"github.com/ayusman/airpaint/internal/capture"
	"github.com/ayusman/airpaint/internal/compose"
	"github.com/ayusman/airpaint/internal/config"
	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/gesture"
	"github.com/ayusman/airpaint/internal/observe"
	"github.com/ayusman/airpaint/internal/paint"
	"github.com/ayusman/airpaint/internal/present"
)

// ReadRetryDelay is the pause after a failed camera read.
const ReadRetryDelay = 100 * time.Millisecond

// commandBuffer bounds pending commands from other goroutines.
const commandBuffer = 8

// ErrRunning is returned by Run when the session is already running.
var ErrRunning = errors.New("session already running")

// Snapshot is published after every composed frame.
type Snapshot struct {
	Gesture gesture.State
	Brush   paint.Color
	Radius  int
	Enabled bool
}

type command int

const (
	cmdClear command = iota
)

// sample is one camera frame with its detected hands.
type sample struct {
	frame *gocv.Mat
	hands []detector.HandLandmarks
}

func (s *sample) close() {
	if s.frame != nil {
		s.frame.Close()
	}
}

// App is a drawing session.
type App struct {
	boardCfg   board.Config
	camera     capture.Camera
	detector   detector.Detector
	sink       present.Sink
	compositor *compose.Compositor

	// board is created from the first frame and only touched by the
	// frame loop.
	board *board.Board

	enabled  atomic.Bool
	running  atomic.Bool
	commands chan command

	obsMu     sync.Mutex
	observers observe.Subject[Snapshot]
}

// New validates cfg and creates a session. Drawing starts enabled.
func New(cfg config.Config, camera capture.Camera, det detector.Detector, sink present.Sink) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if camera == nil || det == nil || sink == nil {
		return nil, errors.New("app: camera, detector and sink are required")
	}

	a := &App{
		boardCfg:   cfg.BoardConfig(),
		camera:     camera,
		detector:   det,
		sink:       sink,
		compositor: compose.New(),
		commands:   make(chan command, commandBuffer),
	}
	if cfg.Resize.Enabled {
		a.compositor.ResizeTo(cfg.Resize.Height, cfg.Resize.Width)
	}
	a.enabled.Store(true)

	return a, nil
}

// SetEnabled turns click dispatch on or off. The cursor is still drawn
// while disabled.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) == enabled {
		return
	}
	if enabled {
		log.Println("Drawing enabled")
	} else {
		log.Println("Drawing paused")
	}
}

// IsEnabled returns whether clicks are dispatched.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Clear asks the frame loop to blank the canvas before the next frame.
func (a *App) Clear() {
	select {
	case a.commands <- cmdClear:
	default:
		log.Println("Command queue full, dropping clear")
	}
}

// OnFrame subscribes fn to per-frame snapshots. fn runs on the frame loop.
func (a *App) OnFrame(fn observe.Func[Snapshot]) observe.Handle {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	return a.observers.Attach(fn)
}

// RemoveFrameObserver detaches a subscription made with OnFrame.
func (a *App) RemoveFrameObserver(h observe.Handle) bool {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()
	return a.observers.Detach(h)
}

// Board returns the session board, or nil before the first frame. It is
// only safe to use from the frame loop or after Run returns.
func (a *App) Board() *board.Board {
	return a.board
}

// Run opens the camera and processes frames until ctx is done or a sink
// reports present.ErrClosed. Both end the session without error.
func (a *App) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer a.running.Store(false)

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	samples := make(chan *sample, 1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.produce(ctx, samples)
	}()

	defer func() {
		cancel()
		wg.Wait()
		select {
		case s := <-samples:
			s.close()
		default:
		}
		if err := a.camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
		log.Println("Drawing session stopped")
	}()

	log.Println("Drawing session started")

	for {
		select {
		case <-ctx.Done():
			return nil

		case cmd := <-a.commands:
			a.handle(cmd)

		case s := <-samples:
			err := a.ProcessFrame(s.frame, s.hands)
			s.close()

			switch {
			case err == nil:
			case errors.Is(err, present.ErrClosed):
				log.Println("Presentation closed")
				return nil
			case errors.Is(err, board.ErrLayout):
				return err
			default:
				log.Printf("Error processing frame: %v", err)
			}
		}
	}
}

// ProcessFrame runs one interpret, dispatch, compose and present pass over
// frame, drawing onto it in place. It must not be called concurrently with
// Run.
func (a *App) ProcessFrame(frame *gocv.Mat, hands []detector.HandLandmarks) error {
	if a.board == nil {
		b, err := board.New(frame.Cols(), frame.Rows(), a.boardCfg)
		if err != nil {
			return err
		}
		a.board = b
	}

	st := gesture.Interpret(hands, frame.Cols(), frame.Rows())

	if st.Mode == gesture.Draw && a.enabled.Load() {
		if err := a.board.Dispatch(st.Position); err != nil {
			log.Printf("Dispatch failed: %v", err)
		}
	}

	out, err := a.compositor.Compose(frame, a.board.Layers(), st)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	defer out.Close()

	brush := a.board.Brush()
	a.notify(Snapshot{
		Gesture: st,
		Brush:   brush.Color(),
		Radius:  brush.Radius(),
		Enabled: a.enabled.Load(),
	})

	return a.sink.Show(out)
}

// Close releases the detector and the board. Call it after Run returns.
func (a *App) Close() error {
	var errs []error
	if err := a.detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close detector: %w", err))
	}
	if a.board != nil {
		if err := a.board.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close board: %w", err))
		}
		a.board = nil
	}
	return errors.Join(errs...)
}

func (a *App) handle(cmd command) {
	switch cmd {
	case cmdClear:
		if a.board != nil {
			a.board.Clear()
			log.Println("Canvas cleared")
		}
	}
}

func (a *App) notify(s Snapshot) {
	a.obsMu.Lock()
	defer a.obsMu.Unlock()

	if err := a.observers.Notify(s); err != nil {
		log.Printf("Frame observer failed: %v", err)
	}
}

// produce reads and detects frames until ctx is done, handing each sample
// to the frame loop. Detector failures are treated as frames without hands.
func (a *App) produce(ctx context.Context, out chan *sample) {
	for ctx.Err() == nil {
		frame, err := a.camera.ReadFrame()
		if err != nil {
			log.Printf("Error reading frame: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(ReadRetryDelay):
			}
			continue
		}

		hands, err := a.detector.Detect(frame)
		if err != nil {
			log.Printf("Error detecting hands: %v", err)
			hands = nil
		}

		offer(out, &sample{frame: frame, hands: hands})
	}
}

// offer puts s into the single-slot channel, replacing and releasing any
// sample still waiting there. It reports whether a sample was dropped. It
// assumes a single sender.
func offer(ch chan *sample, s *sample) bool {
	dropped := false
	for {
		select {
		case ch <- s:
			return dropped
		default:
		}

		select {
		case old := <-ch:
			old.close()
			dropped = true
		default:
		}
	}
}
