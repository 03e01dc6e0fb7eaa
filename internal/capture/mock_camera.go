package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoMoreFrames ends playback of a non-looping MockCamera.
var ErrNoMoreFrames = errors.New("no more frames")

// MockCamera replays a fixed list of frames. Each read hands out a clone
// the caller must close.
type MockCamera struct {
	mu     sync.Mutex
	frames []*gocv.Mat
	loop   bool
	open   bool
	next   int
	reads  int
	fps    int
	props  Properties
}

func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{frames: frames, loop: loop, fps: DefaultFPS}
}

// Open starts playback from the first frame.
func (c *MockCamera) Open() error {
	c.mu.Lock()
	c.open, c.next = true, 0
	c.mu.Unlock()
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
	return nil
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !c.open:
		return nil, ErrCameraNotOpen
	case c.next >= len(c.frames) && (!c.loop || len(c.frames) == 0):
		return nil, ErrNoMoreFrames
	case c.next >= len(c.frames):
		c.next = 0
	}

	frame := c.frames[c.next].Clone()
	c.next++
	c.reads++
	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fps > 0 {
		c.fps = fps
	}
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) SetProperties(p Properties) error {
	c.mu.Lock()
	c.props = p
	c.mu.Unlock()
	return nil
}

// Properties reports what SetProperties last stored.
func (c *MockCamera) Properties() Properties {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.props
}

// Reads counts frames handed out since construction.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
