package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-eval/config"
	"github.com/nvr-ai/go-eval/dataset"
	"github.com/nvr-ai/go-eval/evaluation"
	"github.com/nvr-ai/go-eval/inference"
	"github.com/nvr-ai/go-eval/inference/detectors"
	"github.com/nvr-ai/go-eval/inference/providers"
	"github.com/nvr-ai/go-eval/logging"
	"github.com/nvr-ai/go-eval/store"
)

const (
	flagConfig     = "config"
	flagEnvFile    = "env-file"
	flagModel      = "model"
	flagData       = "data"
	flagOutput     = "output"
	flagSeed       = "seed"
	flagSampleSize = "sample-size"
	flagDevice     = "device"
	flagBackend    = "backend"
	flagHistory    = "history"
	flagVariant    = "variant"
	flagLimit      = "limit"
	flagQuiet      = "quiet"
	flagLogLevel   = "log-level"
)

func newApp() *cli.App {
	return &cli.App{
		Name:            "evaluate",
		Usage:           "evaluate an object detector on clear and foggy street scenes",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  flagEnvFile,
				Value: ".env",
				Usage: "load EVAL_* variables from `FILE` when it exists",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log level: debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "sample, predict, render and score each dataset variant",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagModel, Usage: "model checkpoint `PATH`"},
					&cli.StringFlag{Name: flagData, Usage: "Cityscapes root `DIR`"},
					&cli.StringFlag{Name: flagOutput, Usage: "output `DIR`"},
					&cli.Uint64Flag{Name: flagSeed, Usage: "sampling seed, 0 seeds from the clock"},
					&cli.IntFlag{Name: flagSampleSize, Usage: "images per variant"},
					&cli.StringFlag{Name: flagDevice, Usage: "auto, cpu, cuda, coreml or openvino"},
					&cli.StringFlag{Name: flagBackend, Usage: "onnx or opencv"},
					&cli.StringFlag{Name: flagHistory, Usage: "record the run in the SQLite `FILE`"},
					&cli.BoolFlag{Name: flagQuiet, Aliases: []string{"q"}, Usage: "hide progress bars"},
				},
				Action: runAction,
			},
			{
				Name:  "history",
				Usage: "list recorded runs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagHistory, Usage: "SQLite history `FILE`"},
					&cli.StringFlag{Name: flagVariant, Usage: "only list runs of this variant"},
					&cli.IntFlag{Name: flagLimit, Value: 20, Usage: "maximum number of runs"},
				},
				Action: historyAction,
			},
			{
				Name:  "config",
				Usage: "print the resolved configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagModel, Usage: "model checkpoint `PATH`"},
					&cli.StringFlag{Name: flagData, Usage: "Cityscapes root `DIR`"},
					&cli.StringFlag{Name: flagOutput, Usage: "output `DIR`"},
					&cli.Uint64Flag{Name: flagSeed, Usage: "sampling seed"},
					&cli.IntFlag{Name: flagSampleSize, Usage: "images per variant"},
					&cli.StringFlag{Name: flagDevice, Usage: "auto, cpu, cuda, coreml or openvino"},
					&cli.StringFlag{Name: flagBackend, Usage: "onnx or opencv"},
				},
				Action: configAction,
			},
		},
	}
}

// resolveConfig layers defaults, the config file, EVAL_* variables and flags,
// in that order, and validates the result.
func resolveConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	config.LoadDotEnv(c.String(flagEnvFile))
	if err := config.FromEnv(&cfg); err != nil {
		return cfg, err
	}

	if c.IsSet(flagLogLevel) {
		cfg.LogLevel = c.String(flagLogLevel)
	}
	if c.IsSet(flagModel) {
		cfg.Model.Path = c.String(flagModel)
	}
	if c.IsSet(flagData) {
		cfg.Data.Root = c.String(flagData)
	}
	if c.IsSet(flagOutput) {
		cfg.OutputDir = c.String(flagOutput)
	}
	if c.IsSet(flagSeed) {
		cfg.Seed = c.Uint64(flagSeed)
	}
	if c.IsSet(flagSampleSize) {
		cfg.SampleSize = c.Int(flagSampleSize)
	}
	if c.IsSet(flagHistory) {
		cfg.HistoryPath = c.String(flagHistory)
	}
	if c.IsSet(flagQuiet) {
		cfg.Progress = !c.Bool(flagQuiet)
	}
	if c.IsSet(flagDevice) {
		d, err := providers.ParseDevice(c.String(flagDevice))
		if err != nil {
			return cfg, errors.Wrap(config.ErrInvalidConfig, err.Error())
		}
		cfg.Detector.Provider.Device = d
	}
	if c.IsSet(flagBackend) {
		b, err := detectors.ParseBackend(c.String(flagBackend))
		if err != nil {
			return cfg, errors.Wrap(config.ErrInvalidConfig, err.Error())
		}
		cfg.Detector.Backend = b
	}

	return cfg, cfg.Validate()
}

func configAction(c *cli.Context) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	_, err = c.App.Writer.Write(out)
	return err
}

func runAction(c *cli.Context) (err error) {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger("evaluate", cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	classes, err := cfg.ClassSet()
	if err != nil {
		return err
	}
	datasets, err := cfg.Datasets(classes)
	if err != nil {
		return err
	}

	engine, err := inference.NewEngineBuilder().
		WithProvider(cfg.Detector.Provider).
		WithModel(cfg.Model).
		WithDetector(cfg.DetectorConfig()).
		Build()
	if err != nil {
		return errors.Wrap(err, "load model")
	}
	defer func() { err = multierr.Append(err, engine.Close()) }()

	info := engine.Info()
	logger.Infow("model loaded", "model", info.Model, "path", info.Path, "backend", info.Backend, "device", info.Device)

	sampler := dataset.NewSampler(cfg.Seed)
	ev := &evaluation.Evaluator{
		Engine:   engine,
		Datasets: datasets,
		Sampler:  sampler,
		Config:   cfg.EvaluationConfig(classes),
		Logger:   logger,
	}
	if cfg.Progress {
		ev.Progress = os.Stderr
	}
	if cfg.HistoryPath != "" {
		history, openErr := store.Open(cfg.HistoryPath)
		if openErr != nil {
			return openErr
		}
		defer func() { err = multierr.Append(err, history.Close()) }()
		ev.Store = history
	}

	logger.Infow("sampling", "seed", sampler.Seed(), "sample_size", cfg.SampleSize)

	summaries, err := ev.Run(c.Context)
	if err != nil {
		return err
	}
	printSummaries(c, summaries)
	return nil
}

func printSummaries(c *cli.Context, summaries []evaluation.Summary) {
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tIMAGES\tAVERAGE IOU\tDETECTIONS\tFPS")
	for _, s := range summaries {
		avg := "-"
		if s.HasMetrics {
			avg = fmt.Sprintf("%.4f", s.Average)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%.2f\n", s.Variant, s.Images, avg, s.Detections, s.FramesPerSecond)
	}
	_ = w.Flush()
}

func historyAction(c *cli.Context) error {
	path := c.String(flagHistory)
	if path == "" {
		cfg, err := resolveConfig(c)
		if err != nil {
			return err
		}
		path = cfg.HistoryPath
	}
	if path == "" {
		return errors.Wrap(config.ErrInvalidConfig, "no history file: set --history or EVAL_HISTORY_PATH")
	}

	history, err := store.Open(path)
	if err != nil {
		return err
	}
	defer history.Close()

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	runs, err := history.Runs(ctx, store.Filter{Variant: c.String(flagVariant), Limit: c.Int(flagLimit)})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tVARIANT\tMODEL\tDEVICE\tSEED\tIMAGES\tAVERAGE IOU\tFPS")
	for _, r := range runs {
		avg := "-"
		if r.HasMetrics {
			avg = fmt.Sprintf("%.4f", r.Average)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%.2f\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Variant, r.Model, r.Device, r.Seed, r.Images, avg, r.FPS)
	}
	return w.Flush()
}
