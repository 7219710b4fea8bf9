package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/san-kum/geostick/internal/motion"
)

// Collector exports session activity as prometheus metrics. It is a
// motion.Sink for fixes, a motion.Observer for ticks and a
// sim.ErrorObserver for sink failures.
type Collector struct {
	Ticks      *prometheus.CounterVec
	Fixes      *prometheus.CounterVec
	SinkErrors *prometheus.CounterVec
	Touches    *prometheus.CounterVec
	Latitude   prometheus.Gauge
	Longitude  prometheus.Gauge
	Bearing    prometheus.Gauge
	Accuracy   prometheus.Gauge
}

// NewCollector registers the geostick collectors on reg. A nil reg uses
// the default registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collector{
		Ticks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geostick_ticks_total",
			Help: "Simulation ticks by motion state",
		}, []string{"state"}),
		Fixes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geostick_fixes_total",
			Help: "Mock fixes emitted per provider",
		}, []string{"provider"}),
		SinkErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geostick_sink_errors_total",
			Help: "Failed pushes per sink",
		}, []string{"sink"}),
		Touches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geostick_touch_events_total",
			Help: "Joystick touch events by action",
		}, []string{"action"}),
		Latitude: f.NewGauge(prometheus.GaugeOpts{
			Name: "geostick_latitude_degrees",
			Help: "Latitude of the latest gps fix",
		}),
		Longitude: f.NewGauge(prometheus.GaugeOpts{
			Name: "geostick_longitude_degrees",
			Help: "Longitude of the latest gps fix",
		}),
		Bearing: f.NewGauge(prometheus.GaugeOpts{
			Name: "geostick_bearing_degrees",
			Help: "Bearing of the latest gps fix",
		}),
		Accuracy: f.NewGauge(prometheus.GaugeOpts{
			Name: "geostick_accuracy_meters",
			Help: "Reported accuracy of the latest gps fix",
		}),
	}
}

func (c *Collector) Push(_ context.Context, s motion.GeoSample) error {
	c.Fixes.WithLabelValues(s.Provider).Inc()
	return nil
}

func (c *Collector) OnTick(fix motion.GeoSample, moving bool) {
	state := "stationary"
	if moving {
		state = "moving"
	}
	c.Ticks.WithLabelValues(state).Inc()
	c.Latitude.Set(fix.Latitude)
	c.Longitude.Set(fix.Longitude)
	c.Bearing.Set(fix.Bearing)
	c.Accuracy.Set(fix.Accuracy)
}

func (c *Collector) OnSinkError(sink string, _ error) {
	c.SinkErrors.WithLabelValues(sink).Inc()
}

func (c *Collector) OnTouch(action string) {
	c.Touches.WithLabelValues(action).Inc()
}
