package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/geostick/internal/config"
	"github.com/san-kum/geostick/internal/joystick"
	"github.com/san-kum/geostick/internal/metrics"
	"github.com/san-kum/geostick/internal/server"
	"github.com/san-kum/geostick/internal/session"
	"github.com/san-kum/geostick/internal/sim"
	"github.com/san-kum/geostick/internal/tui"
)

var (
	serveAddr string
	serveLive bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the joystick over websocket and publish fixes",
		RunE:  serve,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", config.DefaultServerAddr, "listen address")
	cmd.Flags().BoolVar(&serveLive, "live", false, "draw the track on stdout")
	return cmd
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") || cfg.Server.Addr == "" {
		cfg.Server.Addr = serveAddr
	}
	if err := setupLogging(cfg.LogLevel, os.Stderr); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var done cleanup
	defer done.run()

	last, err := openLastKnown(ctx, cfg, &done)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)
	hub := server.NewHub()

	s := sim.New(cfg.Sim)
	s.SetPersister(last)
	s.AddSink("ws", hub)
	s.AddSink("prometheus", collector)
	s.AddObserver(collector)
	s.AddErrorObserver(collector)
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}
	if err := addPublishers(s, cfg.Publish, &done); err != nil {
		return err
	}
	if serveLive {
		r := tui.NewLiveRenderer(os.Stdout, 10)
		r.Start()
		defer r.Stop()
		s.AddObserver(r)
	}

	sess := session.New(s, joystick.NewPad(cfg.Joystick), seedResolver(cfg, last))
	sess.OnKnob(hub.Knob)
	srv := server.New(sess, hub, reg, collector)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sess.Run(ctx) })
	g.Go(func() error { return srv.ListenAndServe(ctx, cfg.Server.Addr) })
	if configFile != "" {
		w := config.NewWatcher(configFile, func(next *config.Config) {
			applyPadSettings(ctx, sess, next.Joystick)
		})
		g.Go(func() error {
			if err := w.Watch(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	err = g.Wait()
	log.Info().Interface("metrics", s.Metrics()).Int("sink_errors", s.SinkErrors()).Msg("session summary")
	return err
}

// applyPadSettings forwards the toggles of a reloaded config. Pad size
// changes need a restart since clients lay out against it.
func applyPadSettings(ctx context.Context, sess *session.Session, pad joystick.PadConfig) {
	cur := sess.PadConfig()
	if pad.MoveToTouch != cur.MoveToTouch {
		_ = sess.Send(ctx, session.Event{Kind: session.SetMoveToTouch, On: pad.MoveToTouch})
	}
	if pad.SnapBack != cur.SnapBack {
		_ = sess.Send(ctx, session.Event{Kind: session.SetSnapBack, On: pad.SnapBack})
	}
	log.Info().Bool("snap_back", pad.SnapBack).Bool("move_to_touch", pad.MoveToTouch).Msg("joystick settings reloaded")
}
