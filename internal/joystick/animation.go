package joystick

import (
	"math"
	"time"

	"github.com/golang/geo/r2"
)

// ReturnDuration is how long the knob takes to travel back to center.
const ReturnDuration = 250 * time.Millisecond

// Ease is the accelerate-decelerate curve applied to the return animation.
func Ease(f float64) float64 {
	return math.Cos((f+1)*math.Pi)/2 + 0.5
}

// Return interpolates the knob from a start point back to center. Every
// frame runs through the full clamp/snap computation.
type Return struct {
	p     *Positioner
	from  r2.Point
	delta r2.Point
}

// ReturnToCenter prepares a return animation starting at from (clamped).
func (p *Positioner) ReturnToCenter(from r2.Point) (*Return, error) {
	start, err := p.locate(from)
	if err != nil {
		return nil, err
	}
	return &Return{p: p, from: start.Knob, delta: p.center.Sub(start.Knob)}, nil
}

// At moves the knob to fraction f of the animation and returns the update.
// f is clamped to [0, 1]; f == 1 lands exactly on center.
func (r *Return) At(f float64) Update {
	if f >= 1 {
		r.p.knob = r.p.center
		return Update{Knob: r.p.center}
	}
	if f < 0 {
		f = 0
	}
	pt := r.from.Add(r.delta.Mul(Ease(f)))
	u, _ := r.p.PositionForTouch(pt.X, pt.Y)
	return u
}

// Frame returns the update for elapsed time into the animation and whether
// the animation has finished.
func (r *Return) Frame(elapsed time.Duration) (Update, bool) {
	f := float64(elapsed) / float64(ReturnDuration)
	return r.At(f), f >= 1
}
