package detector

// pose lists x, y, z for every landmark in index order.
type pose [NumLandmarks][3]float64

var (
	// Index straight up, the other three fingers curled with their tips
	// bunched against the palm, thumb tucked.
	pointingPose = pose{
		{0.55, 0.85, 0},
		{0.50, 0.80, -0.01}, {0.47, 0.74, -0.02}, {0.49, 0.68, -0.03}, {0.52, 0.65, -0.03},
		{0.52, 0.62, 0}, {0.51, 0.50, 0}, {0.505, 0.40, 0}, {0.50, 0.30, 0},
		{0.55, 0.63, 0}, {0.55, 0.57, -0.04}, {0.55, 0.60, -0.05}, {0.55, 0.62, -0.04},
		{0.58, 0.65, 0}, {0.575, 0.59, -0.04}, {0.57, 0.61, -0.05}, {0.57, 0.63, -0.04},
		{0.61, 0.68, 0}, {0.60, 0.62, -0.03}, {0.595, 0.635, -0.04}, {0.59, 0.645, -0.03},
	}

	thumbsUpPose = pose{
		{0.5, 0.8, 0},
		{0.55, 0.75, 0}, {0.58, 0.65, 0}, {0.58, 0.50, 0}, {0.58, 0.35, 0},
		{0.55, 0.70, -0.02}, {0.55, 0.68, -0.05}, {0.52, 0.70, -0.04}, {0.50, 0.72, -0.02},
		{0.50, 0.68, -0.02}, {0.50, 0.66, -0.05}, {0.47, 0.68, -0.04}, {0.45, 0.70, -0.02},
		{0.45, 0.70, -0.02}, {0.45, 0.68, -0.05}, {0.42, 0.70, -0.04}, {0.40, 0.72, -0.02},
		{0.40, 0.72, -0.02}, {0.40, 0.70, -0.05}, {0.37, 0.72, -0.04}, {0.35, 0.74, -0.02},
	}

	// All five fingers extended and spread.
	openPalmPose = pose{
		{0.5, 0.8, 0},
		{0.55, 0.75, 0.02}, {0.62, 0.70, 0.03}, {0.68, 0.65, 0.03}, {0.73, 0.60, 0.03},
		{0.55, 0.68, 0}, {0.57, 0.55, 0}, {0.58, 0.45, 0}, {0.58, 0.35, 0},
		{0.50, 0.66, 0}, {0.50, 0.52, 0}, {0.50, 0.40, 0}, {0.50, 0.28, 0},
		{0.45, 0.68, 0}, {0.43, 0.55, 0}, {0.42, 0.45, 0}, {0.42, 0.35, 0},
		{0.40, 0.70, 0}, {0.37, 0.60, 0}, {0.35, 0.50, 0}, {0.34, 0.42, 0},
	}
)

func (p *pose) hand() HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	for i, v := range p {
		h.Points[i] = Point3D{X: v[0], Y: v[1], Z: v[2]}
	}
	return h
}

// PointingLandmarks is a right hand in the drawing pose.
func PointingLandmarks() HandLandmarks { return pointingPose.hand() }

// PointingAt is PointingLandmarks shifted so the index tip lands exactly on
// (x, y).
func PointingAt(x, y float64) HandLandmarks {
	h := PointingLandmarks()
	tip := h.Points[IndexTip]
	dx, dy := x-tip.X, y-tip.Y
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	h.Points[IndexTip].X, h.Points[IndexTip].Y = x, y
	return h
}

func ThumbsUpLandmarks() HandLandmarks { return thumbsUpPose.hand() }

// OpenPalmLandmarks is a right hand with every finger raised.
func OpenPalmLandmarks() HandLandmarks { return openPalmPose.hand() }
