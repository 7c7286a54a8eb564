// Package main provides CMA-ES optimization of the learning rates, motor
// gain and precision adaptation that maximise interception catch rate.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/intercept/config"
	"github.com/pthm-cable/intercept/results"
)

// failedFitness is returned to CMA-ES when an evaluation cannot complete.
const failedFitness = 1e9

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// evalLog writes one row per evaluation. Columns follow the parameter set.
type evalLog struct {
	f *os.File
	w *csv.Writer
}

func newEvalLog(path string, params *ParamVector) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	header := []string{"eval", "fitness", "catch_rate", "mean_distance", "trials"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return &evalLog{f: f, w: w}, nil
}

func (l *evalLog) write(n int, res Result, values []float64) error {
	row := []string{
		strconv.Itoa(n),
		strconv.FormatFloat(res.Fitness, 'f', 6, 64),
		strconv.FormatFloat(res.CatchRate, 'f', 4, 64),
		strconv.FormatFloat(res.MeanDistance, 'f', 4, 64),
		strconv.Itoa(res.Trials),
	}
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *evalLog) Close() error {
	l.w.Flush()
	return l.f.Close()
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 30000, "Simulation ticks per seed")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	resultsDB := flag.String("results-db", "", "SQLite file to record evaluations in (empty = disabled)")
	study := flag.String("study", "default", "Study name stored with each evaluation")
	flag.Parse()

	// Simulation runs log at info; keep optimizer output readable
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if *outputDir == "" {
		fmt.Fprintln(os.Stderr, "--output is required")
		os.Exit(2)
	}
	if err := run(*configPath, *outputDir, *resultsDB, *study, int32(*maxTicks), *seeds, *maxEvals, *population); err != nil {
		slog.Error("optimization failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, outputDir, resultsDB, study string, maxTicks int32, seeds, maxEvals, population int) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var store *results.Store
	if resultsDB != "" {
		store, err = results.Open(resultsDB)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	params := NewParamVector()

	evalSeeds := make([]int64, seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, maxTicks, evalSeeds, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	popSize := population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	logFile, err := newEvalLog(filepath.Join(outputDir, "optimize_log.csv"), params)
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	evalCount := 0
	bestFitness := failedFitness
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			res, err := evaluator.Evaluate(ctx, clamped)
			evalCount++
			if err != nil {
				slog.Warn("evaluation failed", "eval", evalCount, "error", err)
				res = Result{Fitness: failedFitness}
			}

			if res.Fitness < bestFitness {
				bestFitness = res.Fitness
				bestParams = clamped
			}
			if err := logFile.write(evalCount, res, clamped); err != nil {
				slog.Warn("writing eval log", "error", err)
			}
			if store != nil && err == nil {
				_, serr := store.InsertEvaluation(results.Evaluation{
					Study:        study,
					Fitness:      res.Fitness,
					CatchRate:    res.CatchRate,
					MeanDistance: res.MeanDistance,
					Params:       params.AsMap(clamped),
				})
				if serr != nil {
					slog.Warn("storing evaluation", "error", serr)
				}
			}

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(maxEvals-evalCount) * avgPerEval
			fmt.Printf("Eval %d/%d: catch=%.1f%% dist=%.2fm trials=%d (best=%.4f) | elapsed: %s, ETA: %s\n",
				evalCount, maxEvals, 100*res.CatchRate, res.MeanDistance, res.Trials, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return res.Fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // seeds already run in parallel
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, maxEvals)
	fmt.Printf("Seeds per evaluation: %d, ticks per run: %d\n", seeds, maxTicks)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.4f\n", bestFitness)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s (%s): %.6f\n", spec.Name, spec.Path, bestParams[i])
	}

	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, bestParams)
	configOutPath := filepath.Join(outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	return nil
}
