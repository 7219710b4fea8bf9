package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/san-kum/geostick/internal/motion"
)

// Transition advances st by one tick. It is pure apart from the draws it
// takes from rng.
func Transition(cfg Config, st State, rng *rand.Rand, now time.Time) (State, Tick) {
	previous := st.Position
	out := Tick{Delay: cfg.StationaryInterval}

	if st.Moving() {
		st.Position.Lat += st.LatSpeed
		st.Position.Lon += st.LonSpeed
		out.Moving = true
		out.Delay = cfg.MovingInterval
		out.Camera = &motion.GeoSample{
			Provider:  motion.ProviderGPS,
			Latitude:  st.Position.Lat,
			Longitude: st.Position.Lon,
			Accuracy:  st.LastAccuracy,
			Time:      now,
		}
	}

	// Jitter goes on the reported fix only; the integrated position stays
	// smooth.
	delta := cfg.MaxSpeedFactor
	lat := st.Position.Lat + rng.Float64()*delta - delta/2
	lon := st.Position.Lon + rng.Float64()*delta - delta/2

	bearing := 0.0
	if st.Ticked {
		bearing = motion.Bearing(previous, st.Position)
	}
	if out.Camera != nil {
		out.Camera.Bearing = bearing
	}

	if cfg.ResampleOdds > 0 && rng.Intn(cfg.ResampleOdds) == 0 {
		st.LastAccuracy = cfg.BaseAccuracy
	}

	out.Fixes = []motion.GeoSample{
		{
			Provider:  motion.ProviderNetwork,
			Latitude:  lat,
			Longitude: lon,
			Bearing:   bearing,
			Accuracy:  cfg.NetworkAccuracy,
			Time:      now,
		},
		{
			Provider:  motion.ProviderGPS,
			Latitude:  lat,
			Longitude: lon,
			Bearing:   bearing,
			Accuracy:  st.LastAccuracy,
			Time:      now,
		},
	}
	st.Ticked = true
	return st, out
}

type namedSink struct {
	name string
	sink motion.Sink
}

// Simulator owns one session of simulated movement. It is not safe for
// concurrent use; drivers call it from a single goroutine.
type Simulator struct {
	cfg   Config
	rng   *rand.Rand
	clock func() time.Time

	state      State
	started    bool
	stopped    bool
	cameraSeen bool
	ticks      int

	camera    motion.Sink
	sinks     []namedSink
	persister motion.Persister
	observers []motion.Observer
	metrics   []Metric
	errObs    []ErrorObserver
	sinkErrs  int
}

func New(cfg Config) *Simulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		clock:     time.Now,
		sinks:     make([]namedSink, 0),
		observers: make([]motion.Observer, 0),
		metrics:   make([]Metric, 0),
	}
}

func (s *Simulator) SetRand(r *rand.Rand)             { s.rng = r }
func (s *Simulator) SetClock(now func() time.Time)    { s.clock = now }
func (s *Simulator) SetCamera(sink motion.Sink)       { s.camera = sink }
func (s *Simulator) SetPersister(p motion.Persister)  { s.persister = p }
func (s *Simulator) AddObserver(o motion.Observer)    { s.observers = append(s.observers, o) }
func (s *Simulator) AddMetric(m Metric)               { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddErrorObserver(o ErrorObserver) { s.errObs = append(s.errObs, o) }

func (s *Simulator) AddSink(name string, k motion.Sink) {
	s.sinks = append(s.sinks, namedSink{name: name, sink: k})
}

func (s *Simulator) Config() Config  { return s.cfg }
func (s *Simulator) State() State    { return s.state }
func (s *Simulator) Running() bool   { return s.started && !s.stopped }
func (s *Simulator) Ticks() int      { return s.ticks }
func (s *Simulator) SinkErrors() int { return s.sinkErrs }

// Start seeds a new session. Anything left from a previous session is
// discarded, including the previous position used for bearings.
func (s *Simulator) Start(seed motion.LatLon) error {
	if !seed.Valid() {
		return fmt.Errorf("%w: %s", motion.ErrInvalidSeed, seed)
	}
	s.state = State{Position: seed, LastAccuracy: s.cfg.BaseAccuracy}
	s.started = true
	s.stopped = false
	s.cameraSeen = false
	s.ticks = 0
	for _, m := range s.metrics {
		m.Reset()
	}
	log.Info().Float64("lat", seed.Lat).Float64("lon", seed.Lon).Msg("session started")
	return nil
}

// SetVector applies a joystick vector to the speeds read by the next tick.
// Vectors arriving outside a running session are ignored.
func (s *Simulator) SetVector(v motion.Vector2) {
	if !s.Running() {
		return
	}
	if v.IsZero() {
		s.state.LatSpeed, s.state.LonSpeed = 0, 0
		return
	}
	theta := math.Atan2(-v.Y, v.X)
	magnitude := v.Magnitude() * s.cfg.MaxSpeedFactor
	s.state.LatSpeed = magnitude * math.Sin(theta)
	s.state.LonSpeed = magnitude * math.Cos(theta)
}

// Tick runs one transition without dispatching anything.
func (s *Simulator) Tick() (Tick, error) {
	if !s.started {
		return Tick{}, motion.ErrNoSeed
	}
	if s.stopped {
		return Tick{}, motion.ErrStopped
	}
	var out Tick
	s.state, out = Transition(s.cfg, s.state, s.rng, s.clock())
	if out.Camera != nil && !s.cameraSeen {
		out.Camera.Jump = true
		s.cameraSeen = true
	}
	s.ticks++
	return out, nil
}

// Step runs one tick and hands its samples to the configured sinks,
// observers and metrics. Sink failures are logged and counted.
func (s *Simulator) Step(ctx context.Context) (Tick, error) {
	out, err := s.Tick()
	if err != nil {
		return out, err
	}

	if out.Camera != nil && s.camera != nil {
		if err := s.camera.Push(ctx, *out.Camera); err != nil {
			s.sinkFailed("camera", err)
		}
	}
	for _, fix := range out.Fixes {
		for _, k := range s.sinks {
			if err := k.sink.Push(ctx, fix); err != nil {
				s.sinkFailed(k.name, err)
			}
		}
	}

	gps := out.GPS()
	for _, m := range s.metrics {
		m.Observe(gps, out.Moving)
	}
	for _, o := range s.observers {
		o.OnTick(gps, out.Moving)
	}

	log.Debug().
		Float64("lat", gps.Latitude).
		Float64("lon", gps.Longitude).
		Float64("bearing", gps.Bearing).
		Dur("next", out.Delay).
		Msg("tick")
	return out, nil
}

// Stop ends the session and reports the final position to the persister.
func (s *Simulator) Stop(ctx context.Context) error {
	if !s.Running() {
		return nil
	}
	s.stopped = true
	pos := s.state.Position
	log.Info().Float64("lat", pos.Lat).Float64("lon", pos.Lon).Int("ticks", s.ticks).Msg("session stopped")
	if s.persister == nil {
		return nil
	}
	if err := s.persister.SaveLastKnown(ctx, pos); err != nil {
		return fmt.Errorf("save last known position: %w", err)
	}
	return nil
}

// Metrics returns the current value of every registered metric.
func (s *Simulator) Metrics() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s *Simulator) sinkFailed(name string, err error) {
	s.sinkErrs++
	log.Warn().Err(err).Str("sink", name).Msg("sink push failed")
	for _, o := range s.errObs {
		o.OnSinkError(name, err)
	}
}
