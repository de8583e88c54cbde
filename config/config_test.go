package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{Input: "seq.mp4", Output: "out", Samples: 19, Granularity: 3}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid explicit pair", func(c *Config) {}, false},
		{"missing input", func(c *Config) { c.Input = "" }, true},
		{"missing output", func(c *Config) { c.Output = "" }, true},
		{"zero samples", func(c *Config) { c.Samples = 0 }, true},
		{"negative samples", func(c *Config) { c.Samples = -5 }, true},
		{"zero granularity", func(c *Config) { c.Granularity = 0 }, true},
		{"defaults override bad pair", func(c *Config) { c.Samples = 0; c.Granularity = 0; c.UseDefaults = true }, false},
		{"negative scale", func(c *Config) { c.Scale = -1 }, true},
		{"scale one", func(c *Config) { c.Scale = 1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestResolveAppliesDefaultPair(t *testing.T) {
	cfg := Config{Input: "a", Output: "b", UseDefaults: true, Samples: 7, Granularity: 2}
	cfg.Resolve()
	require.Equal(t, DefaultSamples, cfg.Samples)
	require.Equal(t, DefaultGranularity, cfg.Granularity)

	explicit := Config{Input: "a", Output: "b", Samples: 7, Granularity: 2}
	explicit.Resolve()
	require.Equal(t, 7, explicit.Samples)
	require.Equal(t, 2, explicit.Granularity)
}

func TestOutputFileEmbedsParameters(t *testing.T) {
	cfg := Config{Samples: 19, Granularity: 3}
	require.Equal(t, "output_19_3.png", cfg.OutputFile())
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"input: clips/hall.mp4\noutput: results\nsamples: 9\ngranularity: 4\nvisualization: true\n"), 0o644))

	t.Setenv("BACKGEN_OUTPUT", "/mnt/results")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "clips/hall.mp4", cfg.Input)
	require.Equal(t, "/mnt/results", cfg.Output)
	require.Equal(t, 9, cfg.Samples)
	require.Equal(t, 4, cfg.Granularity)
	require.True(t, cfg.Visualization)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
