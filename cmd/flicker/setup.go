package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/san-kum/flicker/internal/config"
	"github.com/spf13/cobra"
)

// setupLogger installs the default logger. Full-screen views discard
// logs unless a log file is given.
func setupLogger(interactive bool) (*log.Logger, func(), error) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	var w io.Writer = os.Stderr
	closer := func() {}
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		w, closer = f, func() { f.Close() }
	case interactive:
		w = io.Discard
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "flicker",
		ReportTimestamp: true,
	})
	log.SetDefault(logger)
	return logger, closer, nil
}

// loadConfig starts from the preset, replaces it with the config file when
// one is given, then applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	// Flags share variables across commands; read this command's value.
	name, _ := cmd.Flags().GetString("preset")
	cfg, err := config.GetPreset(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (available: %v)", err, name, config.ListPresets())
	}

	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("fps") {
		cfg.FPS = fps
	}
	if cmd.Flags().Changed("scale") {
		cfg.Scale = scale
	}
	if cmd.Flags().Changed("background") {
		cfg.Background = background
	}
	cfg.Seed = config.ResolveSeed(cfg.Seed)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
