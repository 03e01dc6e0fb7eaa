// Package capture provides camera capture functionality using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrUnknownFlip is returned by ParseFlip for an unrecognized mode.
	ErrUnknownFlip = errors.New("unknown flip mode")
)

// FlipMode mirrors captured frames before they are handed out.
type FlipMode int

const (
	FlipNone FlipMode = iota
	FlipHorizontal
	FlipVertical
	FlipBoth
)

// ParseFlip converts "none", "horizontal", "vertical" or "both" to a FlipMode.
// The empty string is FlipNone.
func ParseFlip(s string) (FlipMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FlipNone, nil
	case "horizontal":
		return FlipHorizontal, nil
	case "vertical":
		return FlipVertical, nil
	case "both":
		return FlipBoth, nil
	}
	return FlipNone, fmt.Errorf("%w: %q", ErrUnknownFlip, s)
}

func (f FlipMode) String() string {
	switch f {
	case FlipNone:
		return "none"
	case FlipHorizontal:
		return "horizontal"
	case FlipVertical:
		return "vertical"
	case FlipBoth:
		return "both"
	}
	return "unknown"
}

// flipCode is the OpenCV flip code: 1 around the y axis, 0 around the x
// axis, -1 around both.
func (f FlipMode) flipCode() (int, bool) {
	switch f {
	case FlipHorizontal:
		return 1, true
	case FlipVertical:
		return 0, true
	case FlipBoth:
		return -1, true
	}
	return 0, false
}

// Properties are optional image adjustments passed to the capture device.
// Nil fields leave the device default untouched.
type Properties struct {
	Brightness *float64
	Contrast   *float64
	Saturation *float64
	Hue        *float64
}

// Config describes how a camera is opened.
type Config struct {
	DeviceID   int
	Width      int
	Height     int
	FPS        int
	Flip       FlipMode
	Properties Properties
}

// DefaultConfig returns device 0 at 640x480.
func DefaultConfig() Config {
	return Config{
		DeviceID: 0,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		FPS:      DefaultFPS,
	}
}

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
	SetProperties(p Properties) error
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	cfg     Config
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewCamera creates a Camera for cfg. Zero sizes and FPS fall back to the
// defaults.
func NewCamera(cfg Config) Camera {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	return &cameraImpl{cfg: cfg}
}

// Open opens the camera at the configured resolution and applies the
// configured properties.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.cfg.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.cfg.DeviceID, err)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(c.cfg.FPS))

	c.capture = capture
	c.running = true
	c.applyProperties()

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single BGR frame from the camera, flipped per the
// configured mode. The caller is responsible for closing the returned Mat.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	if code, ok := c.cfg.Flip.flipCode(); ok {
		gocv.Flip(mat, &mat, code)
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg.FPS = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cfg.FPS
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// SetProperties replaces the image adjustments. They are stored while the
// camera is closed and applied on the next Open.
func (c *cameraImpl) SetProperties(p Properties) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg.Properties = p
	if c.running {
		c.applyProperties()
	}
	return nil
}

// applyProperties must be called with mu held and the device open.
func (c *cameraImpl) applyProperties() {
	set := func(prop gocv.VideoCaptureProperties, v *float64) {
		if v != nil {
			c.capture.Set(prop, *v)
		}
	}
	p := c.cfg.Properties
	set(gocv.VideoCaptureBrightness, p.Brightness)
	set(gocv.VideoCaptureContrast, p.Contrast)
	set(gocv.VideoCaptureSaturation, p.Saturation)
	set(gocv.VideoCaptureHue, p.Hue)
}
