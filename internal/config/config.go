package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/beetlebugorg/avc/pkg/avc"
)

// Config holds the avcinfo settings. Values come from defaults, then the
// config file, then command line flags applied by the caller.
type Config struct {
	LogLevel            string  `mapstructure:"log_level"`
	LogFormat           string  `mapstructure:"log_format"`
	Encoding            string  `mapstructure:"encoding"`
	RingEpsilon         float64 `mapstructure:"ring_epsilon"`
	KeepUniversePolygon bool    `mapstructure:"keep_universe_polygon"`
	ValidateGeometry    bool    `mapstructure:"validate_geometry"`
	Database            string  `mapstructure:"database"`
	Format              string  `mapstructure:"format"`
	Workers             int     `mapstructure:"workers"`
}

// Load reads configuration from cfgFile, or from avcinfo.yaml in the home
// or current directory when cfgFile is empty. A missing default file is not
// an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("encoding", "latin1")
	v.SetDefault("ring_epsilon", 1e-3)
	v.SetDefault("keep_universe_polygon", false)
	v.SetDefault("validate_geometry", false)
	v.SetDefault("database", "coverages.db")
	v.SetDefault("format", "wkt")
	v.SetDefault("workers", 0)

	v.SetEnvPrefix("AVCINFO")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName("avcinfo")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (debug, info, warn, error)", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (text, json)", c.LogFormat)
	}
	switch strings.ToLower(c.Format) {
	case "wkt", "geojson":
	default:
		return fmt.Errorf("invalid format %q (wkt, geojson)", c.Format)
	}
	if _, err := avc.EncodingByName(c.Encoding); err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}
	if c.RingEpsilon < 0 {
		return fmt.Errorf("ring_epsilon must not be negative, got %g", c.RingEpsilon)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// OpenOptions converts the decoding settings to coverage open options.
func (c *Config) OpenOptions() ([]avc.Option, error) {
	enc, err := avc.EncodingByName(c.Encoding)
	if err != nil {
		return nil, err
	}
	opts := []avc.Option{
		avc.WithEncoding(enc),
		avc.WithKeepUniversePolygon(c.KeepUniversePolygon),
		avc.WithValidateGeometry(c.ValidateGeometry),
	}
	if c.RingEpsilon > 0 {
		opts = append(opts, avc.WithRingEpsilon(c.RingEpsilon))
	}
	return opts, nil
}
