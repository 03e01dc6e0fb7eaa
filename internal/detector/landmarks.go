// Package detector finds hand skeletons in camera frames.
package detector

import "image"

// Landmark indices in the MediaPipe hand model order. Each finger runs from
// its knuckle toward the tip.
const (
	Wrist = iota
	ThumbCMC
	ThumbMCP
	ThumbIP
	ThumbTip
	IndexMCP
	IndexPIP
	IndexDIP
	IndexTip
	MiddleMCP
	MiddlePIP
	MiddleDIP
	MiddleTip
	RingMCP
	RingPIP
	RingDIP
	RingTip
	PinkyMCP
	PinkyPIP
	PinkyDIP
	PinkyTip

	NumLandmarks
)

// Point3D is one landmark. X and Y are fractions of the frame width and
// height. Z is relative depth; drawing ignores it.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pixel scales p to a width x height frame, truncating toward zero.
func (p Point3D) Pixel(width, height int) image.Point {
	return image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
}

// HandLandmarks is a full skeleton for one hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"`
	Score      float64               `json:"score"`
}

// Pixel returns landmark i in pixel coordinates of a width x height frame.
func (h *HandLandmarks) Pixel(i, width, height int) image.Point {
	return h.Points[i].Pixel(width, height)
}
