package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"github.com/san-kum/flicker/internal/automation"
	"github.com/san-kum/flicker/internal/config"
	"github.com/san-kum/flicker/internal/export"
	"github.com/san-kum/flicker/internal/flicker"
	"github.com/san-kum/flicker/internal/metrics"
	"github.com/san-kum/flicker/internal/scene"
	"github.com/san-kum/flicker/internal/storage"
	"github.com/san-kum/flicker/internal/term"
	"github.com/san-kum/flicker/internal/tui"
	"github.com/spf13/cobra"
)

func runLive(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := setupLogger(true)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := tui.NewModel(cfg, logger)
	if err != nil {
		return err
	}
	m.SetTheme(theme)
	logger.Info("starting live view", "seed", cfg.Seed, "layers", len(cfg.Layers))
	return tui.Run(cmd.Context(), m)
}

func runTerm(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := setupLogger(true)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Scale = 1
	s, err := scene.Build(cfg, config.NewRand(cfg.Seed), flicker.WithLogger(logger))
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	logger.Info("starting tcell view", "seed", cfg.Seed)
	return term.Run(cmd.Context(), screen, s, cfg.FPS, logger)
}

// headless builds a scene at the requested logical size.
func headless(cmd *cobra.Command, logger *log.Logger) (*config.Config, *scene.Scene, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	s, err := scene.Build(cfg, config.NewRand(cfg.Seed), flicker.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	s.Resize(width, height)
	return cfg, s, nil
}

func topLayer(s *scene.Scene, name string) (*scene.Layer, error) {
	if name != "" {
		if l := s.Layer(name); l != nil {
			return l, nil
		}
		return nil, fmt.Errorf("%w: %s", export.ErrNoLayer, name)
	}
	layers := s.Layers()
	if len(layers) == 0 {
		return nil, export.ErrNoLayer
	}
	return layers[len(layers)-1], nil
}

func runRender(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := setupLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	if len(args) == 0 && !save {
		return errors.New("an output path or --save is required")
	}

	fmtFlag := export.Format(format)
	if fmtFlag == "" {
		if len(args) == 0 {
			fmtFlag = export.FormatAPNG
		} else if fmtFlag, err = export.FormatFor(strings.ToLower(filepath.Ext(args[0]))); err != nil {
			return err
		}
	}

	cfg, s, err := headless(cmd, logger)
	if err != nil {
		return err
	}
	top, err := topLayer(s, "")
	if err != nil {
		return err
	}

	n, _ := cmd.Flags().GetInt("frames")
	logger.Info("rendering", "frames", n, "fps", cfg.FPS, "seed", cfg.Seed, "format", fmtFlag)
	rec, series, err := export.RecordSampled(cmd.Context(), s, top.Name, n, cfg.FPS, metrics.Default())
	if err != nil {
		return err
	}
	logger.Debug("recorded", "frames", len(rec.Frames), "metrics", export.Means(series))

	write := func(path string) error { return export.WriteFile(path, fmtFlag, rec, s) }
	if len(args) > 0 {
		if err := write(args[0]); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", args[0])
	}
	if !save {
		return nil
	}

	name, _ := cmd.Flags().GetString("preset")
	if configFile != "" {
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}
	st := storage.New(dataDir)
	runID, err := st.Save(storage.RunMetadata{
		Preset:  name,
		Seed:    cfg.Seed,
		FPS:     cfg.FPS,
		Frames:  len(rec.Frames),
		Width:   width,
		Height:  height,
		Format:  string(fmtFlag),
		Metrics: export.Means(series),
	}, write)
	if err != nil {
		return err
	}
	if err := st.SaveSeries(runID, series); err != nil {
		return err
	}
	fmt.Printf("run saved: %s\n", runID)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := setupLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, s, err := headless(cmd, logger)
	if err != nil {
		return err
	}
	top, err := topLayer(s, layerName)
	if err != nil {
		return err
	}

	n, _ := cmd.Flags().GetInt("frames")
	series, err := export.Sample(cmd.Context(), s, top.Name, n, cfg.FPS, metrics.Default())
	if err != nil {
		return err
	}

	g := top.Sim.Grid()
	fmt.Printf("layer: %s\n", top.Name)
	fmt.Printf("grid: %dx%d cells\n", g.Cols, g.Rows)
	fmt.Printf("frames: %d at %d fps\n\n", n, cfg.FPS)
	fmt.Print(export.Plot(series, 80, 10))
	fmt.Print(export.Summary(series))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLAYERS\tBACKGROUND\tFPS")
	for _, name := range config.ListPresets() {
		cfg, _ := config.GetPreset(name)
		names := make([]string, len(cfg.Layers))
		for i, l := range cfg.Layers {
			names[i] = l.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", name, strings.Join(names, ","), cfg.Background, cfg.FPS)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("preset")
	cfg, err := config.GetPreset(name)
	if err != nil {
		return fmt.Errorf("%w: %s", err, name)
	}
	if _, err := os.Stat(args[0]); err == nil {
		return fmt.Errorf("%s already exists", args[0])
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tFRAMES\tSIZE\tFORMAT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0fx%.0f\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Width, run.Height,
			run.Format,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}
	fmt.Printf("artefact: %s\n", st.ArtefactPath(meta))

	series, err := st.LoadSeries(meta.ID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	fmt.Println()
	fmt.Print(export.Plot(series, 80, 8))
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := setupLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	results, err := automation.RunScenario(cmd.Context(), scenario, logger)
	for _, r := range results {
		fmt.Printf("step %d: %s (%d frames, seed %d, mean opacity %.4f)\n",
			r.Step, r.Output, r.Frames, r.Seed, r.Metrics["mean_opacity"])
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := setupLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	n, _ := cmd.Flags().GetInt("frames")
	results, err := automation.RunSweep(cmd.Context(), &automation.Sweep{
		Config: cfg,
		Layer:  layerName,
		Param:  automation.Param(sweepParam),
		Min:    sweepMin,
		Max:    sweepMax,
		Steps:  sweepSteps,
		Frames: n,
		Width:  width,
		Height: height,
	}, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMEAN\tPEAK\tRESAMPLE/S\n", strings.ToUpper(sweepParam))
	means := make([]float64, len(results))
	for i, r := range results {
		means[i] = r.Metrics["mean_opacity"]
		fmt.Fprintf(w, "%.4f\t%.4f\t%.4f\t%.4f\n",
			r.Value, r.Metrics["mean_opacity"], r.Metrics["peak_opacity"], r.Metrics["resample_rate"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(means) > 1 {
		fmt.Println()
		fmt.Print(export.Plot([]export.Series{{Name: "mean opacity by " + sweepParam, Values: means}}, 60, 8))
	}
	return nil
}
