package joystick

import "math"

// Canonical directions in match order. Lower magnitudes come first so an
// angle exactly between two buckets resolves towards 0.
var snapAngles = [...]float64{
	0,
	math.Pi / 4, -math.Pi / 4,
	math.Pi / 2, -math.Pi / 2,
	3 * math.Pi / 4, -3 * math.Pi / 4,
	math.Pi, -math.Pi,
}

const (
	snapTolerance = math.Pi / 8
	snapSlack     = 1e-9
)

// SnapAngle returns the first canonical angle within 22.5 degrees of theta,
// or theta when none matches.
func SnapAngle(theta float64) float64 {
	for _, a := range snapAngles {
		if math.Abs(theta-a) <= snapTolerance+snapSlack {
			return a
		}
	}
	return theta
}
