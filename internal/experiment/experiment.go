package experiment

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/golang/geo/r2"

	"github.com/san-kum/geostick/internal/config"
	"github.com/san-kum/geostick/internal/joystick"
	"github.com/san-kum/geostick/internal/motion"
	"github.com/san-kum/geostick/internal/sim"
)

// DefaultFrameInterval is the animation step used while the knob returns
// to center.
const DefaultFrameInterval = 16 * time.Millisecond

type Config struct {
	Name     string
	Start    motion.LatLon
	Duration time.Duration
	Script   []config.Gesture
	Sim      sim.Config
	Pad      joystick.PadConfig
	Seed     int64
	// Epoch is the wall time of virtual time zero. Zero means now.
	Epoch         time.Time
	FrameInterval time.Duration
}

// KnobSample is one knob change at a virtual time offset.
type KnobSample struct {
	At     time.Duration
	Knob   r2.Point
	Vector motion.Vector2
}

type Result struct {
	Name    string
	Seed    int64
	Start   motion.LatLon
	Fixes   []motion.GeoSample
	Network []motion.GeoSample
	Camera  []motion.GeoSample
	Knob    []KnobSample
	Metrics map[string]float64
	Ticks   int
}

// Experiment replays a gesture script against a pad and simulator on a
// virtual clock. The same seed always yields the same result.
type Experiment struct {
	cfg        Config
	simulator  *sim.Simulator
	randSource *rand.Rand
}

func New(cfg Config) *Experiment {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.Epoch.IsZero() {
		cfg.Epoch = time.Now().UTC().Truncate(time.Second)
	}
	return &Experiment{
		cfg:        cfg,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (e *Experiment) Setup(metrics []sim.Metric) error {
	if e.cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", e.cfg.Duration)
	}
	e.simulator = sim.New(e.cfg.Sim)
	e.simulator.SetRand(e.randSource)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

// GetSimulator returns the underlying simulator for adding sinks and
// observers.
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

type touch struct {
	at      time.Duration
	release bool
	pt      r2.Point
}

func (e *Experiment) touches(pad *joystick.Pad) []touch {
	c, r := pad.Center(), pad.Radius()
	var out []touch
	cursor := time.Duration(0)
	for _, g := range e.cfg.Script {
		pt := c.Add(r2.Point{X: g.X, Y: g.Y}.Mul(r))
		out = append(out, touch{at: cursor, pt: pt})
		cursor += g.Hold
		out = append(out, touch{at: cursor, pt: pt, release: true})
		cursor += g.Pause
	}
	return out
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	res := &Result{Name: e.cfg.Name, Seed: e.cfg.Seed, Start: e.cfg.Start}
	var now time.Duration
	e.simulator.SetClock(func() time.Time { return e.cfg.Epoch.Add(now) })
	e.simulator.SetCamera(motion.SinkFunc(func(_ context.Context, s motion.GeoSample) error {
		res.Camera = append(res.Camera, s)
		return nil
	}))
	e.simulator.AddSink("result", motion.SinkFunc(func(_ context.Context, s motion.GeoSample) error {
		if s.Provider == motion.ProviderNetwork {
			res.Network = append(res.Network, s)
		} else {
			res.Fixes = append(res.Fixes, s)
		}
		return nil
	}))

	if err := e.simulator.Start(e.cfg.Start); err != nil {
		return nil, err
	}

	pad := joystick.NewPad(e.cfg.Pad)
	script := e.touches(pad)
	apply := func(r joystick.Result) {
		if !r.Moved {
			return
		}
		e.simulator.SetVector(r.Update.Vector)
		res.Knob = append(res.Knob, KnobSample{At: now, Knob: r.Update.Knob, Vector: r.Update.Vector})
	}

	nextTick := time.Duration(0)
	nextFrame := time.Duration(-1)
	for {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		// Touches and frames due at the same instant as a tick run first so
		// the tick sees the newest vector.
		next := nextTick
		if len(script) > 0 && script[0].at <= next {
			next = script[0].at
		}
		if nextFrame >= 0 && nextFrame <= next {
			next = nextFrame
		}
		if next > e.cfg.Duration {
			break
		}
		now = next

		switch {
		case len(script) > 0 && script[0].at == now:
			t := script[0]
			script = script[1:]
			if t.release {
				apply(pad.Release(t.pt.X, t.pt.Y))
			} else {
				apply(pad.Press(t.pt.X, t.pt.Y))
			}
			if pad.State() == joystick.Returning {
				nextFrame = now + e.cfg.FrameInterval
			}

		case nextFrame == now:
			apply(pad.Advance(e.cfg.FrameInterval))
			nextFrame = -1
			if pad.State() == joystick.Returning {
				nextFrame = now + e.cfg.FrameInterval
			}

		default:
			out, err := e.simulator.Step(ctx)
			if err != nil {
				return res, err
			}
			nextTick = now + out.Delay
		}
	}

	res.Ticks = e.simulator.Ticks()
	res.Metrics = e.simulator.Metrics()
	if err := e.simulator.Stop(ctx); err != nil {
		return res, err
	}
	return res, nil
}
