package joystick

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"
	"github.com/san-kum/geostick/internal/motion"
)

// ErrNotSized is returned for touches before a positive travel radius exists.
var ErrNotSized = errors.New("joystick: travel radius not established")

// Update is one knob change: the clamped knob center and the matching
// direction vector.
type Update struct {
	Knob   r2.Point
	Vector motion.Vector2
}

// Positioner maps pointer coordinates onto a circular travel area.
type Positioner struct {
	center r2.Point
	radius float64
	knob   r2.Point
	knobW  float64
	knobH  float64
}

func NewPositioner() *Positioner {
	return &Positioner{}
}

// Resize establishes the view geometry and recenters the knob.
func (p *Positioner) Resize(width, height, knobWidth, knobHeight float64) Update {
	p.center = r2.Point{X: width / 2, Y: height / 2}
	p.radius = (math.Min(width, height) - math.Min(knobWidth, knobHeight)) / 2
	p.knobW = knobWidth
	p.knobH = knobHeight
	p.knob = p.center
	return Update{Knob: p.center}
}

func (p *Positioner) Center() r2.Point { return p.center }
func (p *Positioner) Radius() float64  { return p.radius }
func (p *Positioner) Knob() r2.Point   { return p.knob }

// Sized reports whether touches can be positioned.
func (p *Positioner) Sized() bool { return p.radius > 0 }

// KnobContains reports whether (x, y) lies inside the knob bounds.
func (p *Positioner) KnobContains(x, y float64) bool {
	left, top := p.knob.X-p.knobW/2, p.knob.Y-p.knobH/2
	return x >= left && x < left+p.knobW && y >= top && y < top+p.knobH
}

// PositionForTouch moves the knob towards (x, y), clamped to the travel
// radius and snapped to the nearest canonical direction.
func (p *Positioner) PositionForTouch(x, y float64) (Update, error) {
	u, err := p.locate(r2.Point{X: x, Y: y})
	if err != nil {
		return Update{}, err
	}
	p.knob = u.Knob
	return u, nil
}

func (p *Positioner) locate(pt r2.Point) (Update, error) {
	if !p.Sized() {
		return Update{}, ErrNotSized
	}

	d := pt.Sub(p.center)
	theta := SnapAngle(math.Atan2(d.Y, d.X))
	length := math.Min(d.Norm(), p.radius)

	dir := unit(theta)
	magnitude := length / p.radius

	return Update{
		Knob:   p.center.Add(dir.Mul(length)),
		Vector: motion.Vector2{X: magnitude * dir.X, Y: magnitude * dir.Y},
	}, nil
}

// unit returns the direction for theta with float noise on the axes removed,
// so snapped horizontal and vertical directions stay exact.
func unit(theta float64) r2.Point {
	x, y := math.Cos(theta), math.Sin(theta)
	if math.Abs(x) < 1e-12 {
		x = 0
	}
	if math.Abs(y) < 1e-12 {
		y = 0
	}
	return r2.Point{X: x, Y: y}
}
