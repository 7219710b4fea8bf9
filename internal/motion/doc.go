// Package motion provides the value types shared by the joystick and the
// position simulator.
//
// The joystick produces [Vector2] values, the simulator consumes them and
// emits [GeoSample] values to sinks:
//
//   - [Vector2]: normalized joystick displacement, screen-space (y down)
//   - [LatLon]: a geographic coordinate in degrees
//   - [GeoSample]: one emitted location fix for a provider
//   - [Sink]: receiver of emitted samples (map camera, mock providers)
//   - [Persister]: receiver of the final position of a session
//
// # Example
//
//	pad := joystick.NewPad(joystick.DefaultPadConfig())
//	s := sim.New(sim.DefaultConfig(), sim.Options{Mock: pub})
//	_ = s.Start(motion.LatLon{Lat: 37.7749, Lon: -122.4194})
//	if u, ok := pad.Press(x, y); ok {
//		s.SetVector(u.Vector)
//	}
//
// # Thread Safety
//
// None of the types that consume these values are safe for concurrent use.
// A driver (session, experiment, tui) owns them from a single goroutine.
package motion
