package main

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/san-kum/geostick/internal/config"
	"github.com/san-kum/geostick/internal/prefs"
	"github.com/san-kum/geostick/internal/publish"
	"github.com/san-kum/geostick/internal/seed"
	"github.com/san-kum/geostick/internal/sim"
)

// cleanup collects closers to run in reverse order.
type cleanup []func()

func (c *cleanup) add(fn func()) { *c = append(*c, fn) }

func (c cleanup) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func closeQuietly(name string, cl io.Closer) func() {
	return func() {
		if err := cl.Close(); err != nil {
			log.Warn().Err(err).Str("what", name).Msg("close")
		}
	}
}

// openLastKnown opens the prefs store holding the last known position.
func openLastKnown(ctx context.Context, cfg *config.Config, done *cleanup) (*prefs.LastKnown, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}
	store, err := prefs.Open(ctx, cfg.Prefs, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	done.add(closeQuietly("prefs", store))
	return prefs.NewLastKnown(store), nil
}

// seedResolver tries, in order, the static seed, a live NMEA receiver, a
// recorded NMEA log and the position a previous session ended at.
func seedResolver(cfg *config.Config, last *prefs.LastKnown) *seed.Resolver {
	r := seed.NewResolver()
	sc := cfg.Seed
	if sc.Static != nil {
		r.Add(seed.Static(*sc.Static))
	}
	if sc.NMEADevice != "" {
		r.Add(seed.NMEASerial(sc.NMEADevice, sc.Baud, sc.Wait))
	}
	if sc.NMEAFile != "" {
		r.Add(seed.NMEAFile(sc.NMEAFile, sc.Wait))
	}
	if last != nil {
		r.Add(seed.Persisted{Loader: last})
	}
	return r
}

// addPublishers attaches the configured mock-location outputs.
func addPublishers(s *sim.Simulator, cfg config.PublishConfig, done *cleanup) error {
	if cfg.NMEAFile != "" {
		f, err := os.OpenFile(cfg.NMEAFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		done.add(closeQuietly("nmea file", f))
		s.AddSink("nmea-file", publish.NewNMEAWriter(f))
	}
	if cfg.Serial.Port != "" {
		port, err := publish.OpenSerial(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			return err
		}
		done.add(closeQuietly("serial", port))
		s.AddSink("nmea-serial", publish.NewNMEAWriter(port))
	}
	if cfg.MQTT.Broker != "" {
		m, client, err := publish.DialMQTT(cfg.MQTT)
		if err != nil {
			return err
		}
		done.add(func() { client.Disconnect(250) })
		s.AddSink("mqtt", m)
	}
	return nil
}
