package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	seed       uint64
	fps        int
	scale      float64
	background string
	logLevel   string
	logFile    string
	theme      string
	// render and stats
	frames    int
	width     float64
	height    float64
	format    string
	save      bool
	layerName string
	// sweep
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "flicker",
		Short:        "flickering grid banners for terminals and images",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".flicker", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file")

	sceneFlags := func(cmd *cobra.Command, defaultPreset string) {
		cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
		cmd.Flags().StringVar(&preset, "preset", defaultPreset, "preset name")
		cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 picks one)")
		cmd.Flags().IntVar(&fps, "fps", 60, "frame rate")
		cmd.Flags().Float64Var(&scale, "scale", 1, "device pixels per logical pixel")
		cmd.Flags().StringVar(&background, "background", "", "background colour")
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "animate in the terminal (bubble tea)",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	sceneFlags(liveCmd, "terminal")
	liveCmd.Flags().StringVar(&theme, "theme", "mono", "panel theme")

	termCmd := &cobra.Command{
		Use:   "term",
		Short: "animate in the terminal (tcell)",
		Args:  cobra.NoArgs,
		RunE:  runTerm,
	}
	sceneFlags(termCmd, "terminal")

	renderCmd := &cobra.Command{
		Use:   "render [output]",
		Short: "render frames headlessly to apng, gif, png or svg",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRender,
	}
	sceneFlags(renderCmd, "hero")
	renderCmd.Flags().IntVar(&frames, "frames", 120, "number of frames")
	renderCmd.Flags().Float64Var(&width, "width", 480, "logical width")
	renderCmd.Flags().Float64Var(&height, "height", 270, "logical height")
	renderCmd.Flags().StringVar(&format, "format", "", "output format (default from extension)")
	renderCmd.Flags().BoolVar(&save, "save", false, "store the render as a run in the data directory")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "plot per-frame grid metrics",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
	sceneFlags(statsCmd, "hero")
	statsCmd.Flags().IntVar(&frames, "frames", 300, "number of frames")
	statsCmd.Flags().Float64Var(&width, "width", 480, "logical width")
	statsCmd.Flags().Float64Var(&height, "height", 270, "logical height")
	statsCmd.Flags().StringVar(&layerName, "layer", "", "layer to measure (default top layer)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage config files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file from a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	configInitCmd.Flags().StringVar(&preset, "preset", "default", "preset name")
	configCmd.AddCommand(configInitCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved renders",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a saved render",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	batchCmd := &cobra.Command{
		Use:   "batch [scenario]",
		Short: "run the renders listed in a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "measure a layer while one option varies",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sceneFlags(sweepCmd, "hero")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "flicker_chance", "option to vary (flicker_chance, max_opacity, square_size, grid_gap)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&frames, "frames", 120, "frames per value")
	sweepCmd.Flags().Float64Var(&width, "width", 480, "logical width")
	sweepCmd.Flags().Float64Var(&height, "height", 270, "logical height")
	sweepCmd.Flags().StringVar(&layerName, "layer", "", "layer to vary (default top layer)")

	rootCmd.AddCommand(liveCmd, termCmd, renderCmd, statsCmd, presetsCmd, configCmd, listCmd, showCmd, batchCmd, sweepCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
