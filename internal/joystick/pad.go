package joystick

import (
	"math"
	"time"

	"github.com/golang/geo/r2"
)

type TouchState int

const (
	Idle TouchState = iota
	Dragging
	Returning
)

func (s TouchState) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Returning:
		return "returning"
	default:
		return "idle"
	}
}

type PadConfig struct {
	Width      float64 `yaml:"width" json:"width"`
	Height     float64 `yaml:"height" json:"height"`
	KnobWidth  float64 `yaml:"knob_width" json:"knob_width"`
	KnobHeight float64 `yaml:"knob_height" json:"knob_height"`

	// BackgroundRadius bounds where a press is accepted; zero means
	// half the smaller view side.
	BackgroundRadius float64 `yaml:"background_radius" json:"background_radius"`
	SnapBack         bool    `yaml:"snap_back" json:"snap_back"`
	MoveToTouch      bool    `yaml:"move_to_touch" json:"move_to_touch"`
}

func DefaultPadConfig() PadConfig {
	return PadConfig{
		Width:       48,
		Height:      48,
		KnobWidth:   12,
		KnobHeight:  12,
		SnapBack:    true,
		MoveToTouch: true,
	}
}

// Result describes the effect of one input on the pad. Handled is false
// when the event should fall through to whatever is behind the joystick.
type Result struct {
	Handled bool
	Moved   bool
	Update  Update
}

// Pad is the touch state machine around a Positioner.
type Pad struct {
	cfg      PadConfig
	pos      *Positioner
	state    TouchState
	captured bool
	tracking bool
	ret      *Return
	elapsed  time.Duration
	last     Update
}

func NewPad(cfg PadConfig) *Pad {
	p := &Pad{cfg: cfg, pos: NewPositioner()}
	p.last = p.pos.Resize(cfg.Width, cfg.Height, cfg.KnobWidth, cfg.KnobHeight)
	return p
}

// Resize re-establishes the view size; any gesture or animation is dropped.
func (p *Pad) Resize(width, height float64) Update {
	p.cfg.Width, p.cfg.Height = width, height
	p.state, p.captured, p.tracking, p.ret = Idle, false, false, nil
	p.last = p.pos.Resize(width, height, p.cfg.KnobWidth, p.cfg.KnobHeight)
	return p.last
}

func (p *Pad) State() TouchState { return p.state }
func (p *Pad) Knob() r2.Point    { return p.pos.Knob() }
func (p *Pad) Center() r2.Point  { return p.pos.Center() }
func (p *Pad) Radius() float64   { return p.pos.Radius() }
func (p *Pad) Last() Update      { return p.last }
func (p *Pad) Config() PadConfig { return p.cfg }
func (p *Pad) SnapBack() bool    { return p.cfg.SnapBack }
func (p *Pad) MoveToTouch() bool { return p.cfg.MoveToTouch }

func (p *Pad) SetMoveToTouch(on bool) { p.cfg.MoveToTouch = on }

func (p *Pad) BackgroundRadius() float64 {
	if p.cfg.BackgroundRadius > 0 {
		return p.cfg.BackgroundRadius
	}
	return math.Min(p.cfg.Width, p.cfg.Height) / 2
}

// Press starts a gesture. Presses outside the background circle are not
// handled. A tracking press also moves the knob on the same event.
func (p *Pad) Press(x, y float64) Result {
	c := p.pos.Center()
	if math.Hypot(x-c.X, y-c.Y) > p.BackgroundRadius() {
		return Result{}
	}

	p.captured = true
	p.tracking = p.cfg.MoveToTouch || p.pos.KnobContains(x, y)
	if !p.tracking {
		return Result{Handled: true}
	}

	p.ret = nil
	p.state = Dragging
	return p.follow(x, y)
}

// Move drags the knob while a tracking gesture is active.
func (p *Pad) Move(x, y float64) Result {
	if !p.captured {
		return Result{}
	}
	if p.state != Dragging {
		return Result{Handled: true}
	}
	return p.follow(x, y)
}

// Release ends the gesture; with snap-back on the knob starts returning
// to center from the release point.
func (p *Pad) Release(x, y float64) Result {
	if !p.captured {
		return Result{}
	}
	p.captured = false
	p.tracking = false
	if p.state != Dragging {
		return Result{Handled: true}
	}

	if p.cfg.SnapBack {
		if r := p.startReturn(r2.Point{X: x, Y: y}); r.Moved {
			return r
		}
	}
	p.state = Idle
	return Result{Handled: true}
}

func (p *Pad) Cancel(x, y float64) Result { return p.Release(x, y) }

// Advance moves the return animation forward by dt.
func (p *Pad) Advance(dt time.Duration) Result {
	if p.state != Returning || p.ret == nil {
		return Result{}
	}
	p.elapsed += dt
	u, done := p.ret.Frame(p.elapsed)
	if done {
		p.state = Idle
		p.ret = nil
	}
	p.last = u
	return Result{Handled: true, Moved: true, Update: u}
}

// SetSnapBack toggles snap-back. Turning it on while the knob is off
// center starts a return immediately, whatever the touch state.
func (p *Pad) SetSnapBack(on bool) Result {
	p.cfg.SnapBack = on
	if !on || p.pos.Knob() == p.pos.Center() {
		return Result{}
	}
	p.tracking = false
	return p.startReturn(p.pos.Knob())
}

func (p *Pad) startReturn(from r2.Point) Result {
	r, err := p.pos.ReturnToCenter(from)
	if err != nil {
		return Result{}
	}
	p.ret = r
	p.elapsed = 0
	p.state = Returning
	p.last = r.At(0)
	return Result{Handled: true, Moved: true, Update: p.last}
}

func (p *Pad) follow(x, y float64) Result {
	u, err := p.pos.PositionForTouch(x, y)
	if err != nil {
		return Result{Handled: true}
	}
	p.last = u
	return Result{Handled: true, Moved: true, Update: u}
}
