package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/notargets/ReduceBench/bench"
	"github.com/notargets/ReduceBench/config"
	"github.com/notargets/ReduceBench/dataset"
	"github.com/notargets/ReduceBench/reduce"
	"github.com/notargets/ReduceBench/report"
	"github.com/notargets/ReduceBench/runner"
	"github.com/notargets/ReduceBench/runner/builder"
	"github.com/notargets/ReduceBench/strategy"
	"github.com/notargets/ReduceBench/utils"
	"github.com/rs/zerolog"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML configuration file")
		outDir     = flag.String("out", "", "directory for CSV results")
		trials     = flag.Int("trials", 0, "trials per cell")
		maxExp     = flag.Int("max-exp", -1, "largest size exponent")
		strategies = flag.String("strategies", "", "comma separated strategy names (default: all)")
		quiet      = flag.Bool("quiet", false, "no progress bar, warnings only")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	switch {
	case *quiet:
		level = zerolog.WarnLevel
	case *verbose:
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal().Err(err).Msg("config")
		}
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *trials > 0 {
		cfg.Trials = *trials
	}
	if *maxExp >= 0 {
		cfg.MaxExponent = *maxExp
	}
	if *strategies != "" {
		cfg.Strategies = strings.Split(*strategies, ",")
	}
	if *quiet {
		cfg.Progress = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	selected, err := strategy.Select(cfg.Strategies)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	device, err := utils.CreateDevice(cfg.DeviceModes)
	if err != nil {
		log.Fatal().Err(err).Msg("device")
	}
	defer device.Free()
	log.Info().Str("mode", device.Mode()).
		Int("group_size", cfg.GroupSize).
		Int("group_count", cfg.GroupCount).
		Ints("sizes", cfg.Sizes()).
		Strs("strategies", strategy.Names(selected)).
		Msg("device ready")

	kr := runner.NewRunner(device, builder.Config{GroupSize: cfg.GroupSize, GroupCount: cfg.GroupCount})
	defer kr.Free()
	kr.SetLogger(log.With().Str("component", "runner").Logger())

	orchestrator := reduce.NewOrchestrator(kr, log.With().Str("component", "reduce").Logger())
	gen := dataset.NewTimeSeededGenerator(cfg.DatasetOptions())
	br := bench.NewRunner(cfg, selected, orchestrator, gen, log.With().Str("component", "bench").Logger())

	matrices, err := br.RunAll(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("benchmark aborted")
	}

	for _, m := range matrices {
		if err = report.PrintSummary(os.Stdout, m); err != nil {
			log.Fatal().Err(err).Msg("summary")
		}
	}

	paths, err := report.WriteFiles(cfg.OutputDir, matrices)
	if err != nil {
		log.Fatal().Err(err).Msg("results")
	}
	fmt.Printf("\nResults written to: %s\n", strings.Join(paths, ", "))
}
