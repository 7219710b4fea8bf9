package metrics

import (
	"github.com/san-kum/geostick/internal/motion"
	"github.com/san-kum/geostick/internal/sim"
)

// Distance sums the great-circle distance between consecutive fixes, in
// meters.
type Distance struct {
	last   motion.LatLon
	seen   bool
	meters float64
}

func NewDistance() *Distance {
	return &Distance{}
}

func (d *Distance) Name() string { return "distance_m" }

func (d *Distance) Observe(fix motion.GeoSample, moving bool) {
	pos := fix.Position()
	if d.seen {
		d.meters += motion.Distance(d.last, pos)
	}
	d.last = pos
	d.seen = true
}

func (d *Distance) Value() float64 { return d.meters }

func (d *Distance) Reset() {
	d.seen = false
	d.meters = 0
}

// Displacement is the straight-line distance from the first to the latest
// fix, in meters.
type Displacement struct {
	first  motion.LatLon
	latest motion.LatLon
	seen   bool
}

func NewDisplacement() *Displacement {
	return &Displacement{}
}

func (d *Displacement) Name() string { return "displacement_m" }

func (d *Displacement) Observe(fix motion.GeoSample, moving bool) {
	if !d.seen {
		d.first = fix.Position()
		d.seen = true
	}
	d.latest = fix.Position()
}

func (d *Displacement) Value() float64 {
	if !d.seen {
		return 0
	}
	return motion.Distance(d.first, d.latest)
}

func (d *Displacement) Reset() { d.seen = false }

// MovingRatio is the share of ticks on which the position was integrated.
type MovingRatio struct {
	moving  int
	samples int
}

func NewMovingRatio() *MovingRatio {
	return &MovingRatio{}
}

func (m *MovingRatio) Name() string { return "moving_ratio" }

func (m *MovingRatio) Observe(fix motion.GeoSample, moving bool) {
	m.samples++
	if moving {
		m.moving++
	}
}

func (m *MovingRatio) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.moving) / float64(m.samples)
}

func (m *MovingRatio) Reset() {
	m.moving = 0
	m.samples = 0
}

// AverageSpeed is travelled distance over elapsed fix time, in m/s.
type AverageSpeed struct {
	dist  Distance
	first motion.GeoSample
	last  motion.GeoSample
	n     int
}

func NewAverageSpeed() *AverageSpeed {
	return &AverageSpeed{}
}

func (a *AverageSpeed) Name() string { return "avg_speed_mps" }

func (a *AverageSpeed) Observe(fix motion.GeoSample, moving bool) {
	if a.n == 0 {
		a.first = fix
	}
	a.last = fix
	a.n++
	a.dist.Observe(fix, moving)
}

func (a *AverageSpeed) Value() float64 {
	elapsed := a.last.Time.Sub(a.first.Time).Seconds()
	if a.n < 2 || elapsed <= 0 {
		return 0
	}
	return a.dist.Value() / elapsed
}

func (a *AverageSpeed) Reset() {
	a.n = 0
	a.dist.Reset()
}

// Default returns the metrics attached to every run.
func Default() []sim.Metric {
	return []sim.Metric{
		NewDistance(),
		NewDisplacement(),
		NewMovingRatio(),
		NewAverageSpeed(),
	}
}
