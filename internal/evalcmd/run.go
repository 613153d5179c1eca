package evalcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/passport-extractor/passport-extractor/internal/eval/dataset"
	"github.com/passport-extractor/passport-extractor/internal/eval/metrics"
	"github.com/passport-extractor/passport-extractor/internal/eval/results"
	"github.com/passport-extractor/passport-extractor/internal/pipeline"
)

// Runner processes one image path
type Runner interface {
	Run(ctx context.Context, path string) (*pipeline.Result, error)
}

// Env is what an evaluation run needs from the application wiring
type Env struct {
	Runner      Runner
	Provider    string
	Model       string
	OCREngine   string
	Temperature float64
	MaxTokens   int
	Close       func()
}

// Setup builds the Env once per command invocation
type Setup func(ctx context.Context) (*Env, error)

// RunOptions controls a batch evaluation
type RunOptions struct {
	DatasetPath string
	SampleSize  int
	Concurrency int
	OutputDir   string
	OutputJSON  string
	Report      string
}

func executeRun(ctx context.Context, env *Env, opts RunOptions, out io.Writer) (*metrics.AggregateResults, error) {
	slog.Info("Starting evaluation run",
		"dataset", opts.DatasetPath,
		"sample_size", opts.SampleSize,
		"provider", env.Provider,
		"model", env.Model,
		"ocr_engine", env.OCREngine)

	samples, err := dataset.NewLoader(opts.DatasetPath).LoadSample(opts.SampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	slog.Info("Dataset loaded", "samples", len(samples))

	evaluated := evaluateSamples(ctx, env.Runner, samples, opts.Concurrency)

	agg := metrics.AggregateEvaluationResults(evaluated, env.Provider, env.Model, env.OCREngine)
	agg.PrintSummary(out)

	if opts.OutputJSON != "" {
		if err := agg.SaveToJSON(opts.OutputJSON); err != nil {
			slog.Warn("Failed to save JSON results", "err", err)
		}
	}
	if opts.Report != "" {
		if err := agg.SaveDetailedReport(opts.Report); err != nil {
			slog.Warn("Failed to save detailed report", "err", err)
		}
	}

	path, err := results.SaveToYAML(opts.OutputDir, results.EvalConfig{
		Provider:    env.Provider,
		Model:       env.Model,
		OCREngine:   env.OCREngine,
		Temperature: env.Temperature,
		MaxTokens:   env.MaxTokens,
		DatasetPath: opts.DatasetPath,
		SampleSize:  len(samples),
	}, evaluated)
	if err != nil {
		return agg, fmt.Errorf("failed to save results: %w", err)
	}
	fmt.Fprintf(out, "\nEvaluation results saved to: %s\n", path)

	return agg, nil
}

// evaluateSamples runs the pipeline over samples with at most concurrency
// images in flight. Results keep dataset order.
func evaluateSamples(ctx context.Context, runner Runner, samples []dataset.Sample, concurrency int) []metrics.EvaluationResult {
	if concurrency < 1 {
		concurrency = 1
	}

	evaluated := make([]metrics.EvaluationResult, len(samples))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i, sample := range samples {
		wg.Add(1)
		go func(idx int, sample dataset.Sample) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Info("Processing sample", "id", sample.ID, "progress", fmt.Sprintf("%d/%d", idx+1, len(samples)))
			evaluated[idx] = evaluateSample(ctx, runner, sample)
		}(i, sample)
	}

	wg.Wait()
	return evaluated
}

func evaluateSample(ctx context.Context, runner Runner, sample dataset.Sample) metrics.EvaluationResult {
	start := time.Now()
	result := metrics.EvaluationResult{
		SampleID: sample.ID,
		Image:    sample.Image,
	}

	if sample.Image == "" {
		result.Error = "no image for sample"
		return result
	}

	if err := ctx.Err(); err != nil {
		result.Error = err.Error()
		return result
	}

	out, err := runner.Run(ctx, sample.Image)
	result.ProcessingTime = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		slog.Warn("Sample failed", "id", sample.ID, "err", err)
		return result
	}

	result.GeneratedJSON = out.Extraction.Raw
	result.Completeness = out.Extraction.Metrics
	result.Issues = out.Extraction.Issues
	result.Comparison = metrics.ComparePassport(sample.Labels(), out.Extraction.Record)

	slog.Info("Comparison complete",
		"id", sample.ID,
		"overall_score", result.Comparison.OverallScore,
		"fields_matched", result.Comparison.FieldsMatched,
		"fields_missing", result.Comparison.FieldsMissing,
		"completeness", result.Completeness.AccuracyPercent)

	return result
}
