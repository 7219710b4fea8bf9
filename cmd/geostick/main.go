package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/geostick/internal/config"
	"github.com/san-kum/geostick/internal/motion"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	randSeed   int64
	lat        float64
	lon        float64
)

// main runs the live joystick when no subcommand is given. It exits with
// status 1 when a command fails.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "geostick",
		Short:        "joystick-driven simulated GPS positions",
		SilenceUsage: true,
		RunE:         runLive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int64Var(&randSeed, "seed", 0, "random seed (0 picks one from the clock)")
	rootCmd.PersistentFlags().Float64Var(&lat, "lat", 0, "starting latitude")
	rootCmd.PersistentFlags().Float64Var(&lon, "lon", 0, "starting longitude")

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
		&cobra.Command{
			Use:   "list",
			Short: "list stored runs",
			RunE:  listRuns,
		},
		&cobra.Command{
			Use:   "plot [run_id]",
			Short: "plot a stored run",
			Args:  cobra.ExactArgs(1),
			RunE:  plotRun,
		},
		newExportCSVCmd(),
		newExportSVGCmd(),
		&cobra.Command{
			Use:   "export-json [run_id]",
			Short: "export a stored run as JSON",
			Args:  cobra.ExactArgs(1),
			RunE:  exportJSON,
		},
		&cobra.Command{
			Use:   "presets",
			Short: "list gesture presets",
			RunE:  listPresets,
		},
		&cobra.Command{
			Use:   "init-config [path]",
			Short: "write the default config",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return config.Save(args[0], config.DefaultConfig())
			},
		},
	)
	return rootCmd
}

// loadConfig reads --config if given and applies flags that were set
// explicitly on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("seed") {
		cfg.Sim.Seed = randSeed
	}
	if flags.Changed("lat") || flags.Changed("lon") {
		pos := motion.LatLon{Lat: lat, Lon: lon}
		if !pos.Valid() {
			return nil, fmt.Errorf("--lat/--lon: %w", motion.ErrInvalidSeed)
		}
		cfg.Seed.Static = &pos
	}
	return cfg, cfg.Validate()
}

// setupLogging points the global logger at w. Console output is used
// for terminals and files alike.
func setupLogging(level string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: w != os.Stderr}).
		With().Timestamp().Logger()
	return nil
}

// logToFile sends logs to <data>/geostick.log so they do not draw over
// the terminal UI.
func logToFile(cfg *config.Config) (io.Closer, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(cfg.DataDir, "geostick.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return f, setupLogging(cfg.LogLevel, f)
}

func runsDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "runs")
}
