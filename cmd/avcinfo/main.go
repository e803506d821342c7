package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/beetlebugorg/avc/internal/config"
)

// app carries the loaded configuration to the subcommands.
type app struct {
	cfg     *config.Config
	cfgFile string

	encoding   string
	epsilon    float64
	keepUniv   bool
	validate   bool
	logLevel   string
	logFormat  string
	noProgress bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "avcinfo",
		Short: "Inspect and convert Arc/Info vector coverages",
		Long: `avcinfo reads Arc/Info vector coverages stored as AVCBin directories
or uncompressed E00 export files.

It lists layers, fields and projections, dumps features as WKT or GeoJSON,
and exports coverages to a SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is avcinfo.yaml in home or pwd)")
	flags.StringVar(&a.encoding, "encoding", "", "text encoding of INFO items (latin1, cp1252, utf8)")
	flags.Float64Var(&a.epsilon, "ring-epsilon", 0, "node matching distance for polygon rings")
	flags.BoolVar(&a.keepUniv, "keep-universe", false, "include the universe polygon in PAL")
	flags.BoolVar(&a.validate, "validate", false, "validate assembled geometries")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (text, json)")
	flags.BoolVar(&a.noProgress, "no-progress", false, "disable progress bar")

	root.AddCommand(newInfoCmd(a), newDumpCmd(a), newExportCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("encoding") {
		cfg.Encoding = a.encoding
	}
	if flags.Changed("ring-epsilon") {
		cfg.RingEpsilon = a.epsilon
	}
	if flags.Changed("keep-universe") {
		cfg.KeepUniversePolygon = a.keepUniv
	}
	if flags.Changed("validate") {
		cfg.ValidateGeometry = a.validate
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if strings.ToLower(cfg.LogFormat) == "json" {
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{
			Level: level,
		})
	}
	slog.SetDefault(slog.New(handler))

	slog.Debug("Configuration",
		"encoding", cfg.Encoding,
		"ring_epsilon", cfg.RingEpsilon,
		"keep_universe_polygon", cfg.KeepUniversePolygon,
		"validate_geometry", cfg.ValidateGeometry,
		"database", cfg.Database,
		"format", cfg.Format,
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
