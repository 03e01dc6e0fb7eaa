// Package testdata builds synthetic frames and hand poses for tests.
package testdata

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/airpaint/internal/detector"
	"github.com/ayusman/airpaint/internal/paint"
)

// Frame returns a width x height BGR frame filled with c. The caller closes
// it.
func Frame(width, height int, c paint.Color) gocv.Mat {
	bgr := c.BGR()
	return gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(bgr[0]), float64(bgr[1]), float64(bgr[2]), 0),
		height, width, gocv.MatTypeCV8UC3)
}

// Pointing returns a single drawing hand whose index tip lands on pixel p
// of a width x height frame.
func Pointing(p image.Point, width, height int) []detector.HandLandmarks {
	return []detector.HandLandmarks{
		detector.PointingAt(float64(p.X)/float64(width), float64(p.Y)/float64(height)),
	}
}

// Stroke returns steps+1 pointing poses moving from one pixel to another
// in a straight line.
func Stroke(from, to image.Point, steps, width, height int) [][]detector.HandLandmarks {
	if steps < 1 {
		steps = 1
	}
	poses := make([][]detector.HandLandmarks, 0, steps+1)
	for i := 0; i <= steps; i++ {
		p := image.Point{
			X: from.X + (to.X-from.X)*i/steps,
			Y: from.Y + (to.Y-from.Y)*i/steps,
		}
		poses = append(poses, Pointing(p, width, height))
	}
	return poses
}
