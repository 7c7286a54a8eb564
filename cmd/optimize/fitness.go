package main

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/intercept/config"
	"github.com/pthm-cable/intercept/game"
	"github.com/pthm-cable/intercept/telemetry"
)

// distanceWeight scales mean closest approach (metres) into the fitness so
// it only separates configs with equal catch rates.
const distanceWeight = 1e-3

// Result summarizes one evaluation across seeds.
type Result struct {
	Fitness      float64
	CatchRate    float64
	MeanDistance float64
	Trials       int
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []int64
	baseConfig *config.Config

	mu   sync.Mutex
	last Result
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// Last returns the result of the most recent evaluation.
func (fe *FitnessEvaluator) Last() Result {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// seedResult holds the outcome of one seed.
type seedResult struct {
	trials  int
	catches int
	distSum float64
}

// Evaluate runs every seed in parallel with the raw parameter values and
// returns the combined result. Lower fitness is better:
//
//	fitness = -catchRate + distanceWeight * meanDistance
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, raw []float64) (Result, error) {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, raw)
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("candidate config: %w", err)
	}

	results := make([]seedResult, len(fe.seeds))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, seed := range fe.seeds {
		eg.Go(func() error {
			r, err := fe.runSimulation(egCtx, cfg, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	var total seedResult
	for _, r := range results {
		total.trials += r.trials
		total.catches += r.catches
		total.distSum += r.distSum
	}

	res := Result{Trials: total.trials}
	if total.trials > 0 {
		res.CatchRate = float64(total.catches) / float64(total.trials)
		res.MeanDistance = total.distSum / float64(total.trials)
		res.Fitness = -res.CatchRate + distanceWeight*res.MeanDistance
	} else {
		res.Fitness = math.Inf(1)
	}

	fe.mu.Lock()
	fe.last = res
	fe.mu.Unlock()

	return res, nil
}

// runSimulation executes a single headless simulation run.
func (fe *FitnessEvaluator) runSimulation(ctx context.Context, cfg *config.Config, seed int64) (seedResult, error) {
	var r seedResult
	g, err := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		Headless:       true,
		StepsPerUpdate: 100,
		Config:         cfg,
		TrialCallback: func(rec telemetry.TrialRecord) {
			r.trials++
			if rec.Caught() {
				r.catches++
			}
			r.distSum += rec.MinDistance
		},
	})
	if err != nil {
		return r, err
	}
	defer g.Unload()

	for g.Tick() < fe.maxTicks {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		g.UpdateHeadless()
	}
	return r, nil
}
