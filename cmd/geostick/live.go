package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/geostick/internal/metrics"
	"github.com/san-kum/geostick/internal/sim"
	"github.com/san-kum/geostick/internal/tui"
)

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logFile, err := logToFile(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var done cleanup
	defer done.run()

	last, err := openLastKnown(ctx, cfg, &done)
	if err != nil {
		return err
	}
	pos, err := seedResolver(cfg, last).Resolve(ctx)
	if err != nil {
		return fmt.Errorf("%w (pass --lat/--lon or configure seed)", err)
	}

	s := sim.New(cfg.Sim)
	s.SetPersister(last)
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}
	if err := addPublishers(s, cfg.Publish, &done); err != nil {
		return err
	}
	return tui.Run(ctx, s, cfg.Joystick, pos)
}
