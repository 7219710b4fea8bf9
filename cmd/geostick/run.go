package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/geostick/internal/config"
	"github.com/san-kum/geostick/internal/experiment"
	"github.com/san-kum/geostick/internal/metrics"
	"github.com/san-kum/geostick/internal/motion"
	"github.com/san-kum/geostick/internal/publish"
	"github.com/san-kum/geostick/internal/storage"
	"github.com/san-kum/geostick/internal/viz"
)

var (
	numRuns  int
	duration time.Duration
	nmeaOut  string
	noSave   bool
	csvOut   string
	svgOut   string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [preset|script.yaml]",
		Short: "replay a gesture preset on a virtual clock",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreset,
	}
	cmd.Flags().IntVar(&numRuns, "runs", 1, "number of runs with consecutive seeds")
	cmd.Flags().DurationVar(&duration, "duration", 0, "override the preset duration")
	cmd.Flags().StringVar(&nmeaOut, "nmea", "", "also write the gps fixes as NMEA to this file")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	return cmd
}

func newExportCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	cmd.Flags().StringVarP(&csvOut, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newExportSVGCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the gps track of a stored run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	cmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")
	return cmd
}

func runPreset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.LogLevel, os.Stderr); err != nil {
		return err
	}

	expCfg, err := experiment.FromPreset(args[0], cfg)
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, config.ListPresets())
	}
	if duration > 0 {
		expCfg.Duration = duration
	}
	if cfg.Seed.Static != nil {
		expCfg.Start = *cfg.Seed.Static
	}
	if expCfg.Seed == 0 {
		expCfg.Seed = time.Now().UnixNano()
	}

	ctx := context.Background()
	fmt.Printf("running %s (%d run(s), %v)...\n", expCfg.Name, numRuns, expCfg.Duration)
	start := time.Now()

	var results []*experiment.Result
	if numRuns > 1 {
		results, err = experiment.NewEnsemble(expCfg, numRuns, expCfg.Seed).Run(ctx)
	} else {
		exp := experiment.New(expCfg)
		if err = exp.Setup(metrics.Default()); err == nil {
			var res *experiment.Result
			res, err = exp.Run(ctx)
			results = append(results, res)
		}
	}
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n", time.Since(start))

	if nmeaOut != "" {
		if err := writeNMEA(ctx, nmeaOut, results[0]); err != nil {
			return err
		}
		fmt.Printf("nmea: %s\n", nmeaOut)
	}

	st := storage.New(runsDir(cfg))
	if !noSave {
		if err := st.Init(); err != nil {
			return err
		}
	}
	for _, res := range results {
		fmt.Printf("\nseed %d: %d ticks, %d fixes\n", res.Seed, res.Ticks, len(res.Fixes))
		if !noSave {
			runID, err := st.Save(res, expCfg.Duration)
			if err != nil {
				return err
			}
			fmt.Printf("run id: %s\n", runID)
		}
		printMetrics(res.Metrics)
	}
	return nil
}

func writeNMEA(ctx context.Context, path string, res *experiment.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := publish.NewNMEAWriter(f)
	for _, fix := range res.Fixes {
		if err := w.Push(ctx, fix); err != nil {
			return err
		}
	}
	return f.Close()
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := storage.New(runsDir(cfg)).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tTICKS\tDISTANCE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0fs\t%d\t%.1fm\n",
			run.ID,
			run.Name,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Ticks,
			run.Metrics["distance_m"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	data, err := storage.New(runsDir(cfg)).Export(args[0])
	if err != nil {
		return err
	}
	if len(data.Samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", data.Run.ID)
	fmt.Printf("preset: %s\n", data.Run.Name)
	fmt.Printf("samples: %d\n\n", len(data.Samples))

	plots := []struct {
		caption string
		value   func(storage.Sample) float64
	}{
		{"latitude", func(s storage.Sample) float64 { return s.Latitude }},
		{"longitude", func(s storage.Sample) float64 { return s.Longitude }},
		{"bearing (deg)", func(s storage.Sample) float64 { return s.Bearing }},
		{"accuracy (m)", func(s storage.Sample) float64 { return s.Accuracy }},
	}
	for _, p := range plots {
		series := storage.Series(data.Samples, p.value)
		if len(series) == 0 {
			continue
		}
		fmt.Println(asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Precision(6),
			asciigraph.Caption(p.caption),
		))
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	samples, err := storage.New(runsDir(cfg)).LoadSamples(args[0])
	if err != nil {
		return err
	}

	if csvOut == "" {
		return storage.WriteCSV(os.Stdout, samples)
	}
	f, err := os.Create(csvOut)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := storage.WriteCSV(f, samples); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported %d samples to %s\n", len(samples), csvOut)
	return f.Close()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	samples, err := storage.New(runsDir(cfg)).LoadSamples(args[0])
	if err != nil {
		return err
	}
	track := make([]motion.LatLon, 0, len(samples))
	for _, s := range samples {
		if s.Stream == storage.StreamGPS {
			track = append(track, s.Position())
		}
	}

	out := os.Stdout
	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return viz.WriteTrackSVG(out, track, 800, 600, "#00ff88")
}

func exportJSON(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	data, err := storage.New(runsDir(cfg)).Export(args[0])
	if err != nil {
		return err
	}
	return storage.WriteJSON(os.Stdout, data)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSTART\tDURATION\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", name, p.Start, p.Duration, p.Description)
	}
	return w.Flush()
}
