package joystick

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r2"
)

const eps = 1e-9

func deg(d float64) float64 { return d * math.Pi / 180 }

func TestResizeRadius(t *testing.T) {
	tests := []struct {
		name         string
		w, h, kw, kh float64
		radius       float64
		cx, cy       float64
	}{
		{"square", 48, 48, 12, 12, 18, 24, 24},
		{"wide view", 100, 80, 20, 30, 30, 50, 40},
		{"knob fills view", 20, 20, 20, 20, 0, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPositioner()
			u := p.Resize(tt.w, tt.h, tt.kw, tt.kh)
			if p.Radius() != tt.radius {
				t.Errorf("radius = %v, want %v", p.Radius(), tt.radius)
			}
			if u.Knob.X != tt.cx || u.Knob.Y != tt.cy {
				t.Errorf("knob = %v, want centered", u.Knob)
			}
			if !u.Vector.IsZero() {
				t.Errorf("vector = %v, want zero", u.Vector)
			}
		})
	}
}

func TestSnapAngle(t *testing.T) {
	tests := []struct {
		name     string
		theta    float64
		expected float64
	}{
		{"zero", 0, 0},
		{"near zero", deg(10), 0},
		{"upper boundary of zero", math.Pi / 8, 0},
		{"lower boundary of zero", -math.Pi / 8, 0},
		{"near 45", deg(30), math.Pi / 4},
		{"boundary 45/90", 3 * math.Pi / 8, math.Pi / 4},
		{"boundary -45/-90", -3 * math.Pi / 8, -math.Pi / 4},
		{"near 90", deg(100), math.Pi / 2},
		{"boundary 135/180", 7 * math.Pi / 8, 3 * math.Pi / 4},
		{"boundary -135/-180", -7 * math.Pi / 8, -3 * math.Pi / 4},
		{"near 180", deg(170), math.Pi},
		{"near -180", deg(-170), -math.Pi},
		{"exactly pi", math.Pi, math.Pi},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SnapAngle(tt.theta); got != tt.expected {
				t.Errorf("SnapAngle(%.6f) = %.6f, want %.6f", tt.theta, got, tt.expected)
			}
		})
	}
}

func TestPositionForTouchNotSized(t *testing.T) {
	p := NewPositioner()
	if _, err := p.PositionForTouch(1, 1); !errors.Is(err, ErrNotSized) {
		t.Fatalf("expected ErrNotSized, got %v", err)
	}

	p.Resize(10, 10, 10, 10)
	if _, err := p.PositionForTouch(1, 1); !errors.Is(err, ErrNotSized) {
		t.Fatalf("expected ErrNotSized for zero radius, got %v", err)
	}
}

func TestPositionForTouchClamp(t *testing.T) {
	p := NewPositioner()
	p.Resize(48, 48, 12, 12)
	c := p.Center()
	r := p.Radius()

	for x := -20.0; x <= 68; x += 3.5 {
		for y := -20.0; y <= 68; y += 3.5 {
			u, err := p.PositionForTouch(x, y)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			d := u.Knob.Sub(c).Norm()
			if d > r+eps {
				t.Fatalf("touch (%v,%v): knob distance %v exceeds radius %v", x, y, d, r)
			}
			raw := math.Hypot(x-c.X, y-c.Y)
			if raw >= r && math.Abs(d-r) > eps {
				t.Fatalf("touch (%v,%v): knob distance %v, want radius %v", x, y, d, r)
			}
			if m := u.Vector.Magnitude(); m > 1+eps {
				t.Fatalf("touch (%v,%v): vector magnitude %v > 1", x, y, m)
			}
		}
	}
}

func TestPositionForTouchDirections(t *testing.T) {
	p := NewPositioner()
	p.Resize(48, 48, 12, 12)

	tests := []struct {
		name   string
		x, y   float64
		vx, vy float64
		knob   r2.Point
	}{
		{"center", 24, 24, 0, 0, r2.Point{X: 24, Y: 24}},
		{"full right", 60, 24, 1, 0, r2.Point{X: 42, Y: 24}},
		{"half up", 24, 15, 0, -0.5, r2.Point{X: 24, Y: 15}},
		{"full left", -5, 24, -1, 0, r2.Point{X: 6, Y: 24}},
		{"snapped down", 25, 40, 0, math.Sqrt(257) / 18, r2.Point{X: 24, Y: 24 + math.Sqrt(257)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := p.PositionForTouch(tt.x, tt.y)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(u.Vector.X-tt.vx) > 1e-2 || math.Abs(u.Vector.Y-tt.vy) > 1e-2 {
				t.Errorf("vector = %+v, want (%v, %v)", u.Vector, tt.vx, tt.vy)
			}
			if math.Abs(u.Knob.X-tt.knob.X) > 1e-2 || math.Abs(u.Knob.Y-tt.knob.Y) > 1e-2 {
				t.Errorf("knob = %v, want %v", u.Knob, tt.knob)
			}
			if p.Knob() != u.Knob {
				t.Error("positioner did not keep the knob position")
			}
		})
	}
}

func TestMagnitudeMonotonic(t *testing.T) {
	p := NewPositioner()
	p.Resize(48, 48, 12, 12)
	c := p.Center()
	dir := r2.Point{X: math.Cos(deg(30)), Y: math.Sin(deg(30))}

	prev := -1.0
	for l := 0.0; l <= 40; l += 0.5 {
		pt := c.Add(dir.Mul(l))
		u, _ := p.PositionForTouch(pt.X, pt.Y)
		m := u.Vector.Magnitude()
		if m+eps < prev {
			t.Fatalf("magnitude decreased at length %v: %v < %v", l, m, prev)
		}
		if l >= p.Radius() && math.Abs(m-1) > eps {
			t.Fatalf("magnitude at length %v = %v, want 1", l, m)
		}
		prev = m
	}
}

func TestReturnToCenter(t *testing.T) {
	p := NewPositioner()
	p.Resize(48, 48, 12, 12)

	r, err := p.ReturnToCenter(r2.Point{X: 60, Y: 24})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := r.At(0)
	if math.Abs(start.Vector.X-1) > eps {
		t.Errorf("first frame vector = %+v, want (1,0)", start.Vector)
	}

	mid := r.At(0.5)
	if math.Abs(mid.Knob.X-33) > 1e-6 || math.Abs(mid.Vector.X-0.5) > 1e-6 {
		t.Errorf("midpoint = %+v, want knob x 33 and vector 0.5", mid)
	}

	end, done := r.Frame(ReturnDuration)
	if !done {
		t.Error("expected animation to finish at ReturnDuration")
	}
	if end.Knob != p.Center() || !end.Vector.IsZero() {
		t.Errorf("final frame = %+v, want center with zero vector", end)
	}
}

func TestReturnToCenterIdempotent(t *testing.T) {
	p := NewPositioner()
	p.Resize(48, 48, 12, 12)

	for i := 0; i < 3; i++ {
		r, err := p.ReturnToCenter(p.Knob())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for f := 0.0; f <= 1.0; f += 0.125 {
			u := r.At(f)
			if u.Knob != p.Center() || !u.Vector.IsZero() {
				t.Fatalf("frame %v moved knob: %+v", f, u)
			}
		}
	}
}

func TestEase(t *testing.T) {
	if math.Abs(Ease(0)) > eps || math.Abs(Ease(1)-1) > eps || math.Abs(Ease(0.5)-0.5) > eps {
		t.Errorf("ease endpoints wrong: %v %v %v", Ease(0), Ease(0.5), Ease(1))
	}
}
