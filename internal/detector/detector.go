package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector turns a frame into zero or more hand skeletons.
type Detector interface {
	// Detect returns the hands visible in frame. No hands is an empty
	// result, not an error.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)
	Close() error
}

// Config tunes the landmark service.
type Config struct {
	MaxHands        int     `toml:"max_hands"`
	MinConfidence   float64 `toml:"min_confidence"`
	MinTrackingConf float64 `toml:"min_tracking_confidence"`

	// Python and Script override interpreter and script discovery.
	Python string `toml:"python,omitempty"`
	Script string `toml:"script,omitempty"`

	// Command replaces the whole service command line. The model flags
	// are still appended.
	Command []string `toml:"command,omitempty"`

	// Idle is how long the service may go unused before it is stopped.
	// Zero means IdleTimeout.
	Idle time.Duration `toml:"-"`
}

func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
