// Package session drives a pad and a simulator in real time from a single
// goroutine.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/san-kum/geostick/internal/joystick"
	"github.com/san-kum/geostick/internal/motion"
	"github.com/san-kum/geostick/internal/sim"
)

// FrameInterval is the return animation step.
const FrameInterval = 16 * time.Millisecond

var ErrClosed = errors.New("session: not running")

type EventKind int

const (
	Press EventKind = iota
	Move
	Release
	Cancel
	SetSnapBack
	SetMoveToTouch
	Resize
	Reseed
)

// Event is one input for the session goroutine. X and Y carry pointer
// coordinates for touches and the new size for Resize; On carries toggles.
type Event struct {
	Kind EventKind
	X, Y float64
	On   bool
	Seed motion.LatLon
}

// KnobEvent is published whenever the knob moves.
type KnobEvent struct {
	Update joystick.Update
	State  joystick.TouchState
}

// Resolver supplies the starting position.
type Resolver interface {
	Resolve(ctx context.Context) (motion.LatLon, error)
}

// Snapshot is a copy of session state safe to read from other goroutines.
type Snapshot struct {
	Running  bool
	Position motion.LatLon
	Fix      motion.GeoSample
	Ticks    int
	Knob     joystick.Update
	State    joystick.TouchState
	Pad      joystick.PadConfig
}

type Session struct {
	sim    *sim.Simulator
	pad    *joystick.Pad
	seeds  Resolver
	events chan Event

	mu     sync.RWMutex
	snap   Snapshot
	onKnob []func(KnobEvent)
}

func New(s *sim.Simulator, pad *joystick.Pad, seeds Resolver) *Session {
	return &Session{
		sim:    s,
		pad:    pad,
		seeds:  seeds,
		events: make(chan Event, 64),
		snap:   Snapshot{Pad: pad.Config(), Knob: pad.Last()},
	}
}

// OnKnob registers a listener. Listeners run on the session goroutine and
// must not block.
func (s *Session) OnKnob(fn func(KnobEvent)) {
	s.mu.Lock()
	s.onKnob = append(s.onKnob, fn)
	s.mu.Unlock()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// PadConfig returns the pad geometry clients should lay out against.
func (s *Session) PadConfig() joystick.PadConfig {
	return s.Snapshot().Pad
}

// Send queues an event for the session goroutine.
func (s *Session) Send(ctx context.Context, ev Event) error {
	select {
	case s.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run resolves a seed and ticks until ctx is cancelled. It returns
// motion.ErrNoSeed (joined with the resolver's reasons) when no starting
// position exists. On cancellation the final position is persisted and
// Run returns nil.
func (s *Session) Run(ctx context.Context) error {
	seed, err := s.seeds.Resolve(ctx)
	if err != nil {
		return err
	}
	if err := s.sim.Start(seed); err != nil {
		return err
	}
	s.publish(func(sn *Snapshot) {
		sn.Running = true
		sn.Position = seed
	})

	// The timer is the single pending tick; stopping it revokes the tick.
	tick := time.NewTimer(0)
	defer tick.Stop()

	var frames *time.Ticker
	var frameC <-chan time.Time
	lastFrame := time.Now()
	stopFrames := func() {
		if frames != nil {
			frames.Stop()
			frames, frameC = nil, nil
		}
	}
	defer stopFrames()

	for {
		select {
		case <-ctx.Done():
			tick.Stop()
			return s.stop()

		case ev := <-s.events:
			if ev.Kind == Reseed {
				if err := s.reseed(ctx, ev.Seed); err != nil {
					log.Warn().Err(err).Msg("reseed rejected")
					continue
				}
				if !tick.Stop() {
					select {
					case <-tick.C:
					default:
					}
				}
				tick.Reset(0)
				continue
			}
			s.apply(s.handle(ev))
			cfg, state := s.pad.Config(), s.pad.State()
			s.publish(func(sn *Snapshot) {
				sn.Pad = cfg
				sn.State = state
			})
			if s.pad.State() == joystick.Returning && frames == nil {
				frames = time.NewTicker(FrameInterval)
				frameC = frames.C
				lastFrame = time.Now()
			}

		case now := <-frameC:
			s.apply(s.pad.Advance(now.Sub(lastFrame)))
			lastFrame = now
			if s.pad.State() != joystick.Returning {
				stopFrames()
			}

		case <-tick.C:
			// Both channels may be ready; cancellation wins.
			if ctx.Err() != nil {
				return s.stop()
			}
			out, err := s.sim.Step(ctx)
			if err != nil {
				return err
			}
			st := s.sim.State()
			s.publish(func(sn *Snapshot) {
				sn.Position = st.Position
				sn.Fix = out.GPS()
				sn.Ticks = s.sim.Ticks()
			})
			tick.Reset(out.Delay)
		}
	}
}

func (s *Session) handle(ev Event) joystick.Result {
	switch ev.Kind {
	case Press:
		return s.pad.Press(ev.X, ev.Y)
	case Move:
		return s.pad.Move(ev.X, ev.Y)
	case Release:
		return s.pad.Release(ev.X, ev.Y)
	case Cancel:
		return s.pad.Cancel(ev.X, ev.Y)
	case SetSnapBack:
		return s.pad.SetSnapBack(ev.On)
	case SetMoveToTouch:
		s.pad.SetMoveToTouch(ev.On)
	case Resize:
		u := s.pad.Resize(ev.X, ev.Y)
		return joystick.Result{Handled: true, Moved: true, Update: u}
	}
	return joystick.Result{}
}

func (s *Session) apply(r joystick.Result) {
	if !r.Moved {
		return
	}
	s.sim.SetVector(r.Update.Vector)
	ke := KnobEvent{Update: r.Update, State: s.pad.State()}

	s.mu.Lock()
	s.snap.Knob = r.Update
	s.snap.State = ke.State
	listeners := s.onKnob
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ke)
	}
}

// reseed ends the current session and starts a new one at pos, carrying
// the current knob vector over.
func (s *Session) reseed(ctx context.Context, pos motion.LatLon) error {
	if !pos.Valid() {
		return motion.ErrInvalidSeed
	}
	if err := s.sim.Stop(ctx); err != nil {
		log.Warn().Err(err).Msg("persist before reseed")
	}
	if err := s.sim.Start(pos); err != nil {
		return err
	}
	s.sim.SetVector(s.pad.Last().Vector)
	s.publish(func(sn *Snapshot) {
		sn.Position = pos
		sn.Ticks = 0
	})
	return nil
}

func (s *Session) stop() error {
	s.publish(func(sn *Snapshot) { sn.Running = false })
	// The run context is already cancelled; persisting gets its own.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.sim.Stop(ctx)
}

func (s *Session) publish(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	s.mu.Unlock()
}
