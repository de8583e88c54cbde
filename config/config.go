// Package config holds the run parameters of the background estimator and
// their validation. Parameters come from command-line flags, optionally
// seeded from a YAML file, with a couple of environment overrides for
// deployment convenience.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default parameter pair selected by the --default flag.
const (
	DefaultSamples     = 19
	DefaultGranularity = 3
)

// Config is the full parameter set for one run.
type Config struct {
	// Input is the path to the input sequence: a video file or a
	// directory of numbered frames.
	Input string `yaml:"input"`
	// Output is the folder the background image is written into.
	Output string `yaml:"output"`
	// Samples is the S parameter: per-region history bound.
	Samples int `yaml:"samples"`
	// Granularity is the N parameter driving the smoothing kernel size.
	Granularity int `yaml:"granularity"`
	// UseDefaults selects the fixed default pair S=19, N=3, ignoring any
	// explicit Samples/Granularity values.
	UseDefaults bool `yaml:"defaults"`
	// Visualization enables the interactive preview windows. No effect on
	// the numeric result.
	Visualization bool `yaml:"visualization"`
	// Scale downscales every frame by this integer factor before
	// processing; 0 or 1 disables it.
	Scale int `yaml:"scale"`
	// Parallel shards per-region work across goroutines.
	Parallel bool `yaml:"parallel"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Load reads a YAML config file and applies environment overrides. Flag
// values layered on top by the caller win over both.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %q", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parse %q", path)
	}
	cfg.ApplyEnvOverrides()
	return &cfg, nil
}

// ApplyEnvOverrides lets the environment override deploy-specific knobs.
func (c *Config) ApplyEnvOverrides() {
	if out := os.Getenv("BACKGEN_OUTPUT"); out != "" {
		c.Output = out
	}
	if level := os.Getenv("BACKGEN_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if scale := os.Getenv("BACKGEN_SCALE"); scale != "" {
		if s, err := strconv.Atoi(scale); err == nil {
			c.Scale = s
		}
	}
}

// Resolve applies the default parameter pair when selected.
func (c *Config) Resolve() {
	if c.UseDefaults {
		c.Samples = DefaultSamples
		c.Granularity = DefaultGranularity
	}
}

// Validate enforces the configuration contract: both paths are required,
// and unless the default pair is selected, S and N must be supplied and
// positive. Returns the first violation found.
func (c *Config) Validate() error {
	if c.Input == "" {
		return errors.New("config: input sequence path is required")
	}
	if c.Output == "" {
		return errors.New("config: output folder path is required")
	}
	if !c.UseDefaults {
		if c.Samples < 1 {
			return errors.Errorf("config: the S parameter must be positive, got %d", c.Samples)
		}
		if c.Granularity < 1 {
			return errors.Errorf("config: the N parameter must be positive, got %d", c.Granularity)
		}
	}
	if c.Scale < 0 {
		return errors.Errorf("config: scale factor must not be negative, got %d", c.Scale)
	}
	return nil
}

// OutputFile returns the conventional artifact name for this run inside the
// output folder: output_<S>_<N>.png.
func (c *Config) OutputFile() string {
	return fmt.Sprintf("output_%d_%d.png", c.Samples, c.Granularity)
}
