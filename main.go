// Command backgen estimates the stationary background of a video sequence.
//
// Frames are scored for motion by differencing against the previous frame,
// the scores are smoothed spatially, and every pixel keeps a small history
// of the samples least affected by motion seen across the whole sequence.
// The background is the per-channel median of those histories, written as
// output_<S>_<N>.png into the output folder.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/backgen/backgen/config"
	"github.com/backgen/backgen/estimator"
	"github.com/backgen/backgen/images"
	"github.com/backgen/backgen/logger"
	"github.com/backgen/backgen/video"
	"github.com/rs/zerolog"
)

func main() {
	var (
		configPath    string
		input         string
		output        string
		samples       int
		granularity   int
		useDefaults   bool
		visualization bool
		scale         int
		parallel      bool
		logLevel      string
	)
	flag.StringVar(&configPath, "config", "", "Optional YAML config file; flags override its values")
	flag.StringVar(&input, "input", "", "Path to the input sequence (video file or directory of frames)")
	flag.StringVar(&output, "output", "", "Path to the output folder")
	flag.IntVar(&samples, "s", 0, "Value of the S parameter (per-pixel history size)")
	flag.IntVar(&granularity, "n", 0, "Value of the N parameter (smoothing kernel granularity)")
	flag.BoolVar(&useDefaults, "default", false, "Use the default set of parameters (S=19, N=3)")
	flag.BoolVar(&visualization, "visualization", false, "Enable visualization windows")
	flag.IntVar(&scale, "scale", 0, "Downscale frames by this integer factor before processing")
	flag.BoolVar(&parallel, "parallel", false, "Shard per-pixel work across goroutines")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg.ApplyEnvOverrides()
	}

	// Explicitly supplied flags win over the file and the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = input
		case "output":
			cfg.Output = output
		case "s":
			cfg.Samples = samples
		case "n":
			cfg.Granularity = granularity
		case "default":
			cfg.UseDefaults = useDefaults
		case "visualization":
			cfg.Visualization = visualization
		case "scale":
			cfg.Scale = scale
		case "parallel":
			cfg.Parallel = parallel
		case "log-level":
			cfg.LogLevel = logLevel
		}
	})
	cfg.Resolve()

	logger.Init(cfg.LogLevel)
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Str("input", cfg.Input).
		Str("output", cfg.Output).
		Int("s", cfg.Samples).
		Int("n", cfg.Granularity).
		Bool("visualization", cfg.Visualization).
		Msg("backgen starting")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

func run(cfg *config.Config, log *zerolog.Logger) error {
	seq, err := video.Open(cfg.Input)
	if err != nil {
		return err
	}
	defer seq.Close()

	log.Info().Int("height", seq.Height()).Int("width", seq.Width()).Msg("sequence opened")

	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return err
	}

	var preview *video.Preview
	if cfg.Visualization {
		preview = video.NewPreview()
		defer preview.Close()
	}

	var (
		est        *estimator.Estimator
		background *images.Frame
		start      = time.Now()
	)
	for {
		frame, ok, err := seq.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		if cfg.Scale > 1 {
			frame, err = images.Downscale(frame, cfg.Scale)
			if err != nil {
				return err
			}
		}

		// The estimator's shape comes from the first decoded frame rather
		// than container metadata, which some demuxers misreport.
		if est == nil {
			est, err = estimator.New(estimator.Config{
				Height:      frame.Height,
				Width:       frame.Width,
				Channels:    frame.Channels,
				Samples:     cfg.Samples,
				Granularity: cfg.Granularity,
				Parallel:    cfg.Parallel,
			})
			if err != nil {
				return err
			}
			background, err = images.NewFrame(frame.Height, frame.Width, frame.Channels)
			if err != nil {
				return err
			}
			log.Info().Int("kernel", est.KernelSize()).Msg("smoothing kernel sized")
		}

		if err := est.Process(frame); err != nil {
			return err
		}
		if est.Processed()%100 == 0 {
			log.Debug().Int("frames", est.Processed()).Msg("processing")
		}

		if preview != nil {
			if err := preview.ShowFrame("Input video", frame); err != nil {
				return err
			}
			if est.Admitted() > 0 {
				if err := preview.ShowMap("Probability map", est.RawMap()); err != nil {
					return err
				}
				if err := preview.ShowMap("Filtered probability map", est.FilteredMap()); err != nil {
					return err
				}
				if err := est.Background(background); err != nil {
					return err
				}
				if err := preview.ShowFrame("Estimated background", background); err != nil {
					return err
				}
			}
			preview.Wait(1)
		}
	}

	if est == nil {
		return fmt.Errorf("no frames read from %q", cfg.Input)
	}
	log.Info().
		Int("frames", est.Processed()).
		Dur("elapsed", time.Since(start)).
		Msg("sequence processed")

	if err := est.Background(background); err != nil {
		return err
	}

	outputFile := filepath.Join(cfg.Output, cfg.OutputFile())
	if err := video.WriteImage(outputFile, background); err != nil {
		return err
	}
	log.Info().Str("path", outputFile).Msg("background written")

	if preview != nil {
		log.Info().Msg("press any key to quit")
		preview.Wait(0)
	}
	return nil
}
