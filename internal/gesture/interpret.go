// Package gesture turns hand landmarks into a cursor position and drawing mode.
package gesture

import (
	"image"
	"math"

	"github.com/ayusman/airpaint/internal/detector"
)

// Mode is the drawing signal derived from a frame's hands.
type Mode int

const (
	// NoHand means no hand was detected in the frame.
	NoHand Mode = iota
	// Hover means a hand is present but not pointing.
	Hover
	// Draw means the hand is pointing and clicks should be dispatched.
	Draw
)

// String returns the lowercase name used in logs and the cursor feed.
func (m Mode) String() string {
	switch m {
	case NoHand:
		return "none"
	case Hover:
		return "hover"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// DrawRatio is how many times the index-to-middle fingertip distance must
// exceed both the middle-to-ring and ring-to-pinky distances for Draw.
const DrawRatio = 3

// State is the cursor for one frame. Position is only meaningful when Mode
// is not NoHand.
type State struct {
	Position image.Point
	Mode     Mode
}

// HasPosition reports whether the state carries a cursor position.
func (s State) HasPosition() bool {
	return s.Mode != NoHand
}

// Interpret computes the cursor state for a width x height frame. With
// several hands the last one in the slice decides the result.
func Interpret(hands []detector.HandLandmarks, width, height int) State {
	state := State{Mode: NoHand}

	for i := range hands {
		hand := &hands[i]

		index := hand.Pixel(detector.IndexTip, width, height)
		middle := hand.Pixel(detector.MiddleTip, width, height)
		ring := hand.Pixel(detector.RingTip, width, height)
		pinky := hand.Pixel(detector.PinkyTip, width, height)

		reach := distance(middle, index)
		state = State{Position: index, Mode: Hover}
		if reach > DrawRatio*distance(ring, middle) && reach > DrawRatio*distance(pinky, ring) {
			state.Mode = Draw
		}
	}

	return state
}

// distance is the Euclidean pixel distance between a and b, truncated to
// whole pixels.
func distance(a, b image.Point) int {
	return int(math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y)))
}
