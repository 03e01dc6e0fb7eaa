package present

import (
	"sync"

	"gocv.io/x/gocv"
)

const keyEsc = 27

// Window shows frames in a native highgui window. Pressing q or Esc in the
// window closes it.
type Window struct {
	mu     sync.Mutex
	win    *gocv.Window
	closed bool
}

// NewWindow opens a window titled name.
func NewWindow(name string) *Window {
	return &Window{win: gocv.NewWindow(name)}
}

func (w *Window) Show(frame gocv.Mat) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	w.win.IMShow(frame)
	switch w.win.WaitKey(1) {
	case 'q', keyEsc:
		w.closed = true
		return ErrClosed
	}
	return nil
}

// Close destroys the window.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	return w.win.Close()
}
