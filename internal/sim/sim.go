// Package sim runs repeated attack resolutions and aggregates their outcomes.
package sim

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/combatsim/internal/game/buff"
	"github.com/cory-johannsen/combatsim/internal/game/combat"
	"github.com/cory-johannsen/combatsim/internal/game/dice"
)

// Scenario is everything needed to simulate one action.
type Scenario struct {
	Action   *combat.ActionDef
	Attacker combat.Combatant
	Target   combat.Combatant
	// Stats is shared by every iteration and must be safe for concurrent use.
	Stats combat.StatAggregator
	// Buffs may be nil. Each iteration works on its own clone.
	Buffs *buff.ActiveSet
	// Registry may be nil, meaning buff.DefaultRegistry().
	Registry *buff.Registry
	Strategy combat.Strategy
	// Seed is the base seed; iteration i uses Seed+i. Zero draws a fresh seed.
	Seed                uint64
	Iterations          int
	AttacksPerIteration int
	// Observer may be nil. It is called from multiple goroutines.
	Observer combat.Observer
}

// Validate checks that the scenario can be run.
func (s Scenario) Validate() error {
	var errs []string
	if s.Action == nil {
		errs = append(errs, "action must not be nil")
	} else if !s.Action.IsHarmful() {
		errs = append(errs, fmt.Sprintf("action %q is harmless and produces no outcomes", s.Action.ID))
	}
	if s.Stats == nil {
		errs = append(errs, "stats must not be nil")
	}
	if s.Iterations < 1 {
		errs = append(errs, fmt.Sprintf("iterations must be >= 1, got %d", s.Iterations))
	}
	if s.AttacksPerIteration < 1 {
		errs = append(errs, fmt.Sprintf("attacks per iteration must be >= 1, got %d", s.AttacksPerIteration))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid scenario: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Simulator runs scenarios on a bounded number of concurrent workers.
type Simulator struct {
	workers int
	logger  *zap.Logger
}

// NewSimulator creates a Simulator.
//
// Precondition: workers >= 1; logger must be non-nil.
func NewSimulator(workers int, logger *zap.Logger) *Simulator {
	if workers < 1 {
		panic(fmt.Sprintf("sim: NewSimulator called with workers=%d", workers))
	}
	return &Simulator{workers: workers, logger: logger}
}

// Run executes sc.Iterations independent iterations and merges their counts
// in iteration order.
//
// Postcondition: for a fixed non-zero seed the returned counts do not depend
// on the worker count. Returns ctx's error if ctx is cancelled before every
// iteration completes.
func (s *Simulator) Run(ctx context.Context, sc Scenario) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if sc.Seed == 0 {
		sc.Seed = dice.NewSeed()
	}

	report := &Report{
		ID:                  uuid.New(),
		Action:              sc.Action.ID,
		Strategy:            sc.Strategy,
		Seed:                sc.Seed,
		Iterations:          sc.Iterations,
		AttacksPerIteration: sc.AttacksPerIteration,
	}
	probe := s.newAttack(sc, sc.Seed, nil, sc.Buffs)
	report.Table, report.Chances = probe.Table()
	report.Haste = probe.Haste()
	report.ExecuteTime = probe.ExecuteTime()

	logger := s.logger.With(zap.Stringer("run_id", report.ID), zap.String("action", sc.Action.ID))
	logger.Info("simulation started",
		zap.Uint64("seed", sc.Seed),
		zap.Stringer("strategy", sc.Strategy),
		zap.Int("iterations", sc.Iterations),
		zap.Int("attacks_per_iteration", sc.AttacksPerIteration),
		zap.Int("workers", s.workers),
		zap.Stringer("table", report.Table),
	)

	start := time.Now()
	tallies := make([]tally, sc.Iterations)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := 0; i < sc.Iterations; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return s.iterate(gctx, sc, i, &tallies[i], logger)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn("simulation aborted", zap.Error(err))
		return nil, fmt.Errorf("running simulation: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("running simulation: %w", err)
	}

	for i := range tallies {
		report.merge(&tallies[i])
	}
	report.Elapsed = time.Since(start)
	report.CreatedAt = time.Now().UTC()

	logger.Info("simulation finished",
		zap.Int64("attempts", report.Attempts),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (s *Simulator) iterate(ctx context.Context, sc Scenario, i int, t *tally, logger *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	seed := sc.Seed + uint64(i)
	var buffs *buff.ActiveSet
	if sc.Buffs != nil {
		buffs = sc.Buffs.Clone()
	}

	var iterLogger *zap.Logger
	if logger.Core().Enabled(zapcore.DebugLevel) {
		iterLogger = logger.With(zap.Int("iteration", i))
	}
	a := s.newAttack(sc, seed, iterLogger, buffs)
	for _, o := range combat.Outcomes {
		a.OnResult(o, func(_ *combat.Attack, result combat.Outcome) {
			t.counts[result]++
		})
	}

	for n := 0; n < sc.AttacksPerIteration; n++ {
		if _, ok := a.Execute(); ok {
			t.attempts++
		}
	}
	return nil
}

// newAttack builds an Attack for sc with streams seeded from seed. Trials are
// logged when logger is non-nil.
func (s *Simulator) newAttack(sc Scenario, seed uint64, logger *zap.Logger, buffs *buff.ActiveSet) *combat.Attack {
	set := combat.NewStreamSet(seed)
	var src combat.Source
	if logger != nil {
		src = combat.NewLoggedSource(dice.NewLoggedSet(set, combat.OutcomeName, logger))
	} else {
		src = combat.NewSource(set)
	}

	attacker := sc.Attacker
	target := sc.Target
	env := combat.Env{
		Attacker: &attacker,
		Target:   &target,
		Stats:    sc.Stats,
		Registry: sc.Registry,
		Resolver: combat.NewResolver(sc.Strategy, src),
		Observer: sc.Observer,
	}
	// A nil *ActiveSet must not become a non-nil buff.State.
	if buffs != nil {
		env.Buffs = buffs
	}
	return combat.NewAttack(sc.Action, env)
}
