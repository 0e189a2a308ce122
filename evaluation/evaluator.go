package evaluation

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/nvr-ai/go-eval/dataset"
	"github.com/nvr-ai/go-eval/inference"
	"github.com/nvr-ai/go-eval/logging"
	"github.com/nvr-ai/go-eval/models/postprocess"
	"github.com/nvr-ai/go-eval/profiler"
	"github.com/nvr-ai/go-eval/report"
	"github.com/nvr-ai/go-eval/store"
	"github.com/nvr-ai/go-eval/visualize"
)

// Config holds the evaluation parameters.
type Config struct {
	// SampleSize is the number of images drawn from each variant.
	SampleSize int `json:"sample_size" yaml:"sample_size"`
	// ScoreThreshold keeps detections whose score is strictly above it.
	ScoreThreshold float32 `json:"score_threshold" yaml:"score_threshold"`
	// IoUThreshold is the strict IoU above which a pair counts as a match.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// OutputDir receives one subdirectory per variant.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	// Render controls the drawn boxes. Its ScoreThreshold is replaced by the
	// one above.
	Render visualize.Options `json:"-" yaml:"-"`
}

// DefaultConfig returns 50 images per variant, 0.5 thresholds and "outputs".
func DefaultConfig() Config {
	return Config{
		SampleSize:     50,
		ScoreThreshold: 0.5,
		IoUThreshold:   0.5,
		OutputDir:      "outputs",
		Render:         visualize.DefaultOptions(),
	}
}

// Summary describes one evaluated variant.
type Summary struct {
	Variant string `json:"variant"`
	Images  int    `json:"images"`
	// Average is the mean match ratio; only meaningful when HasMetrics.
	Average    float64 `json:"average"`
	HasMetrics bool    `json:"has_metrics"`
	// Detections counts the accepted detections over all images.
	Detections        int           `json:"detections"`
	InferenceDuration time.Duration `json:"inference_duration"`
	FramesPerSecond   float64       `json:"frames_per_second"`
	// Stages holds the timing of each step of the per-image loop.
	Stages        []profiler.OperationStats `json:"stages"`
	PeakHeapBytes uint64                    `json:"peak_heap_bytes"`
	// Files lists the written outputs, images first.
	Files []string `json:"files"`
	// RunID is the history id, 0 when no store is configured.
	RunID int64 `json:"run_id"`
}

// Recorder persists completed runs.
type Recorder interface {
	RecordRun(ctx context.Context, run *store.Run, images []store.RunImage) (int64, error)
}

// Evaluator runs an engine over sampled images of each dataset.
type Evaluator struct {
	Engine inference.Engine
	// Datasets are evaluated in order.
	Datasets []dataset.Dataset
	// Sampler draws the image indices. Defaults to a clock-seeded sampler.
	Sampler *dataset.Sampler
	Config  Config
	// Logger defaults to a no-op logger.
	Logger *zap.SugaredLogger
	// Store records each variant when set.
	Store Recorder
	// Progress receives a progress bar per variant when set.
	Progress io.Writer
}

// Run evaluates every dataset in order and stops at the first error.
//
// Arguments:
//   - ctx: Cancellation is checked between images.
//
// Returns:
//   - []Summary: One summary per completed dataset.
//   - error: The first error.
func (e *Evaluator) Run(ctx context.Context) ([]Summary, error) {
	if e.Engine == nil {
		return nil, errors.New("evaluator: no engine")
	}
	if e.Logger == nil {
		e.Logger = logging.Nop()
	}
	if e.Sampler == nil {
		e.Sampler = dataset.NewSampler(0)
	}

	summaries := make([]Summary, 0, len(e.Datasets))
	for _, ds := range e.Datasets {
		summary, err := e.evaluate(ctx, ds)
		if err != nil {
			return summaries, errors.Wrapf(err, "evaluate %s", ds.Name())
		}
		summaries = append(summaries, *summary)
	}

	return summaries, nil
}

func (e *Evaluator) evaluate(ctx context.Context, ds dataset.Dataset) (*Summary, error) {
	variant := ds.Name()
	e.Logger.Infow("evaluating", "variant", variant, "images", ds.Len(), "sample_size", e.Config.SampleSize)

	indices, err := e.Sampler.Sample(ds.Len(), e.Config.SampleSize)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(e.Config.OutputDir, variant)
	opts := e.Config.Render
	opts.ScoreThreshold = e.Config.ScoreThreshold

	bar := e.progressBar(variant, len(indices))

	summary := &Summary{Variant: variant, HasMetrics: ds.Annotated()}
	prof := profiler.New()
	var agg Aggregator
	runImages := make([]store.RunImage, 0, len(indices))

	for n, idx := range indices {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "cancelled")
		}

		done := prof.StartOperation("load")
		sample, err := ds.Get(idx)
		done()
		if err != nil {
			return nil, err
		}

		done = prof.StartOperation("predict")
		dets, err := e.Engine.Predict(ctx, sample.Image)
		done()
		if err != nil {
			return nil, errors.Wrapf(err, "predict %s", sample.ID)
		}

		accepted := postprocess.FilterByScore(dets, e.Config.ScoreThreshold)
		summary.Detections += len(accepted)

		done = prof.StartOperation("render")
		rendered := visualize.Render(sample.Image, accepted, opts)
		done()

		done = prof.StartOperation("write")
		path, err := visualize.Save(dir, fmt.Sprintf("%s_%d", variant, n+1), rendered)
		done()
		if err != nil {
			return nil, err
		}
		summary.Files = append(summary.Files, path)

		img := store.RunImage{Image: fmt.Sprintf("img_%d", n+1), SourceID: sample.ID, Detections: len(accepted)}
		if ds.Annotated() {
			iou := MatchRatio(sample.Annotation.Rects(), postprocess.Boxes(accepted), e.Config.IoUThreshold)
			agg.Add(Record{Image: img.Image, IoU: iou})
			img.IoU = &iou
		}
		runImages = append(runImages, img)
		prof.SampleMemory()

		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	summary.Images = len(indices)
	summary.InferenceDuration = prof.Total("predict")
	summary.Stages = prof.Operations()
	summary.PeakHeapBytes = prof.PeakHeapBytes()
	if secs := summary.InferenceDuration.Seconds(); secs > 0 {
		summary.FramesPerSecond = float64(summary.Images) / secs
	}

	if ds.Annotated() {
		rep := agg.Report(variant)
		summary.Average = rep.Average
		files, err := report.Save(dir, rep)
		if err != nil {
			return nil, err
		}
		summary.Files = append(summary.Files, files...)
		e.Logger.Infof("Average IoU on %s set: %.4f", report.Title(variant), rep.Average)
	} else {
		e.Logger.Warnf("Skipping IoU: annotations not available for %s set.", variant)
	}

	e.Logger.Infow("variant complete",
		"variant", variant,
		"images", summary.Images,
		"detections", summary.Detections,
		"inference", summary.InferenceDuration,
		"fps", summary.FramesPerSecond,
		"peak_heap", profiler.FormatBytes(summary.PeakHeapBytes),
	)
	for _, st := range summary.Stages {
		e.Logger.Debugw("stage timing", "variant", variant, "stage", st.Name,
			"count", st.Count, "mean", st.Mean, "p95", st.P95, "max", st.Max)
	}

	if e.Store != nil {
		info := e.Engine.Info()
		run := &store.Run{
			Variant:    variant,
			Model:      info.Path,
			Backend:    string(info.Backend),
			Device:     string(info.Device),
			Seed:       e.Sampler.Seed(),
			Images:     summary.Images,
			HasMetrics: summary.HasMetrics,
			Average:    summary.Average,
			Detections: summary.Detections,
			FPS:        summary.FramesPerSecond,
		}
		id, err := e.Store.RecordRun(ctx, run, runImages)
		if err != nil {
			return nil, errors.Wrap(err, "record run")
		}
		summary.RunID = id
	}

	return summary, nil
}

func (e *Evaluator) progressBar(variant string, total int) *progressbar.ProgressBar {
	if e.Progress == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(e.Progress),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(variant),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
