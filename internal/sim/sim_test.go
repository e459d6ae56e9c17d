package sim_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/combatsim/internal/game/buff"
	"github.com/cory-johannsen/combatsim/internal/game/combat"
	"github.com/cory-johannsen/combatsim/internal/game/stats"
	"github.com/cory-johannsen/combatsim/internal/sim"
)

func boolPtr(b bool) *bool { return &b }

// scenario is the equal-level attack with hit 0.05 and crit 0.25 whose table
// is dodge 0.05, crit 0.25, hit 0.70.
func scenario(strategy combat.Strategy, seed uint64) sim.Scenario {
	def := &combat.ActionDef{
		ID:   "auto_attack",
		Name: "Auto Attack",
		Capabilities: combat.CapabilityOverrides{
			Parry:  boolPtr(false),
			Glance: boolPtr(false),
			Block:  boolPtr(false),
		},
	}
	return sim.Scenario{
		Action:              def,
		Attacker:            combat.Combatant{ID: "a", Level: 80},
		Target:              combat.Combatant{ID: "t", Level: 80},
		Stats:               stats.Static{Level: 80, Hit: 0.05, Crit: 0.25, Haste: 1},
		Strategy:            strategy,
		Seed:                seed,
		Iterations:          40,
		AttacksPerIteration: 2500,
	}
}

func TestRun_FrequenciesMatchTable(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	for _, strategy := range []combat.Strategy{combat.StrategyDirect, combat.StrategyDecomposed} {
		t.Run(strategy.String(), func(t *testing.T) {
			r, err := sim.NewSimulator(4, zaptest.NewLogger(t)).Run(context.Background(), scenario(strategy, 99))
			require.NoError(t, err)

			assert.Equal(t, int64(100_000), r.Attempts)
			assert.InDelta(t, 0.05, r.Frequency(combat.OutcomeDodge), 0.01)
			assert.InDelta(t, 0.25, r.Frequency(combat.OutcomeCrit), 0.01)
			assert.InDelta(t, 0.70, r.Frequency(combat.OutcomeHit), 0.01)
			assert.Zero(t, r.Count(combat.OutcomeMiss))
			assert.Zero(t, r.Count(combat.OutcomeParry))
			assert.Zero(t, r.Count(combat.OutcomeResist))
		})
	}
}

func TestRun_ReportMetadata(t *testing.T) {
	sc := scenario(combat.StrategyDirect, 5)
	sc.Iterations = 3
	sc.AttacksPerIteration = 10
	r, err := sim.NewSimulator(2, zaptest.NewLogger(t)).Run(context.Background(), sc)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.Equal(t, "auto_attack", r.Action)
	assert.Equal(t, uint64(5), r.Seed)
	assert.Equal(t, combat.StrategyDirect, r.Strategy)
	assert.Equal(t, 3, r.Iterations)
	assert.Equal(t, 10, r.AttacksPerIteration)
	assert.Equal(t, int64(30), r.Attempts)
	assert.Equal(t, "dodge<=0.050 crit<=0.300 hit<=1.000", r.Table.String())
	assert.InDelta(t, 0.05, r.Chances.Dodge, 1e-12)
	assert.InDelta(t, 1.0, r.Haste, 1e-12)
	assert.False(t, r.CreatedAt.IsZero())

	var sum float64
	for _, f := range r.Frequencies() {
		sum += f
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRun_ZeroSeedDrawsFreshSeed(t *testing.T) {
	sc := scenario(combat.StrategyDirect, 0)
	sc.Iterations = 1
	sc.AttacksPerIteration = 1
	r, err := sim.NewSimulator(1, zap.NewNop()).Run(context.Background(), sc)
	require.NoError(t, err)
	assert.NotZero(t, r.Seed)
}

func TestRun_IndependentOfWorkerCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint64Min(1).Draw(t, "seed")
		workers := rapid.IntRange(2, 8).Draw(t, "workers")
		strategy := rapid.SampledFrom([]combat.Strategy{combat.StrategyDirect, combat.StrategyDecomposed}).Draw(t, "strategy")

		sc := scenario(strategy, seed)
		sc.Iterations = 12
		sc.AttacksPerIteration = 50

		serial, err := sim.NewSimulator(1, zap.NewNop()).Run(context.Background(), sc)
		if err != nil {
			t.Fatal(err)
		}
		parallel, err := sim.NewSimulator(workers, zap.NewNop()).Run(context.Background(), sc)
		if err != nil {
			t.Fatal(err)
		}
		if serial.Counts != parallel.Counts {
			t.Fatalf("counts differ: serial=%v parallel=%v", serial.Counts, parallel.Counts)
		}
	})
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sim.NewSimulator(2, zap.NewNop()).Run(ctx, scenario(combat.StrategyDirect, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

type countingObserver struct{ n atomic.Int64 }

func (c *countingObserver) Observe(combat.Record) { c.n.Add(1) }

func TestRun_ObserverSeesEveryResolution(t *testing.T) {
	obs := &countingObserver{}
	sc := scenario(combat.StrategyDecomposed, 3)
	sc.Iterations = 5
	sc.AttacksPerIteration = 20
	sc.Observer = obs
	_, err := sim.NewSimulator(3, zap.NewNop()).Run(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, int64(100), obs.n.Load())
}

func TestRun_DebugLogsTrials(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	sc := scenario(combat.StrategyDirect, 11)
	sc.Iterations = 2
	sc.AttacksPerIteration = 3
	_, err := sim.NewSimulator(1, zap.New(core)).Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, 6, logs.FilterMessage("dice uniform").Len())
	assert.Equal(t, 1, logs.FilterMessage("simulation started").Len())
	assert.Equal(t, 1, logs.FilterMessage("simulation finished").Len())
}

func TestRun_BuffsAffectHaste(t *testing.T) {
	sc := scenario(combat.StrategyDirect, 1)
	sc.Action.ExecuteTime = 2_000_000_000
	sc.Iterations = 1
	sc.AttacksPerIteration = 1
	sc.Buffs = buff.NewActiveSet()
	sc.Buffs.Apply("bloodlust", 1)

	r, err := sim.NewSimulator(1, zap.NewNop()).Run(context.Background(), sc)
	require.NoError(t, err)
	assert.InDelta(t, 1/1.3, r.Haste, 1e-12)
	assert.InDelta(t, 2e9/1.3, float64(r.ExecuteTime), 2)
	assert.True(t, sc.Buffs.Active("bloodlust"), "scenario buffs are not mutated")
}

func TestScenario_Validate(t *testing.T) {
	sc := scenario(combat.StrategyDirect, 1)
	assert.NoError(t, sc.Validate())

	sc.Iterations = 0
	sc.AttacksPerIteration = 0
	err := sc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iterations must be >= 1")
	assert.Contains(t, err.Error(), "attacks per iteration must be >= 1")

	sc = scenario(combat.StrategyDirect, 1)
	sc.Action.Harmful = boolPtr(false)
	assert.ErrorContains(t, sc.Validate(), "harmless")

	_, err = sim.NewSimulator(1, zap.NewNop()).Run(context.Background(), sim.Scenario{})
	assert.Error(t, err)
}

func TestNewSimulator_PanicsOnZeroWorkers(t *testing.T) {
	assert.Panics(t, func() { sim.NewSimulator(0, zap.NewNop()) })
}
