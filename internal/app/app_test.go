package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/combatsim/internal/app"
	"github.com/cory-johannsen/combatsim/internal/config"
	"github.com/cory-johannsen/combatsim/internal/game/buff"
	"github.com/cory-johannsen/combatsim/internal/game/combat"
	"github.com/cory-johannsen/combatsim/internal/game/stats"
	"github.com/cory-johannsen/combatsim/internal/sim"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	root := wd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatalf("could not find repo root from %s", wd)
		}
		root = parent
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := repoRoot(t)
	cfg, err := config.LoadFromViper(config.NewViper(""))
	require.NoError(t, err)
	cfg.Content = config.ContentConfig{
		Actions: filepath.Join(root, "content", "actions"),
		Buffs:   filepath.Join(root, "content", "buffs"),
		Scripts: filepath.Join(root, "content", "scripts"),
	}
	cfg.Simulation.Seed = 17
	cfg.Simulation.Iterations = 4
	cfg.Simulation.AttacksPerIteration = 250
	cfg.Attacker.Hit = 0.05
	cfg.Attacker.Crit = 0.25
	return cfg
}

func TestLoad_ContentAndScenario(t *testing.T) {
	cfg := testConfig(t)
	cfg.Buffs = []config.BuffConfig{{ID: "bloodlust"}, {ID: "windfury_totem", Magnitude: 0.2}}

	a, err := app.Load(cfg, zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel)))
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, stats.Static{}, a.Stats)
	assert.Equal(t, []string{"bloodlust", "windfury_totem"}, a.Active.IDs())
	assert.Equal(t, combat.PositionBack, a.Attacker.Position)
	assert.Equal(t, 83, a.Target.Level)

	sc, err := a.Scenario("auto_attack")
	require.NoError(t, err)
	assert.Equal(t, "auto_attack", sc.Action.ID)
	assert.Equal(t, uint64(17), sc.Seed)
	assert.Nil(t, sc.Observer, "observer only attached at debug level")

	r, err := sim.NewSimulator(2, zap.NewNop()).Run(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), r.Attempts)
	assert.InDelta(t, 1/1.3/1.2, r.Haste, 1e-12)
}

func TestLoad_ScriptedAttacker(t *testing.T) {
	cfg := testConfig(t)
	cfg.Attacker.Script = "rogue.lua"

	a, err := app.Load(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.Stats.(*stats.Scripted)
	require.True(t, ok)
	assert.Greater(t, a.Stats.AttackHitOffset(), cfg.Attacker.Hit)
}

func TestLoad_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Buffs = []config.BuffConfig{{ID: "heroism_typo"}}
	_, err := app.Load(cfg, zap.NewNop())
	assert.ErrorIs(t, err, app.ErrUnknownBuff)

	cfg = testConfig(t)
	cfg.Attacker.Script = "absent.lua"
	_, err = app.Load(cfg, zap.NewNop())
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Content.Actions = filepath.Join(t.TempDir(), "missing")
	_, err = app.Load(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestScenario_UnknownAction(t *testing.T) {
	a, err := app.Load(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Scenario("fireball")
	assert.ErrorIs(t, err, combat.ErrUnknownAction)
	_, err = a.Attack("fireball")
	assert.ErrorIs(t, err, combat.ErrUnknownAction)
}

func TestScenario_DebugAttachesObserver(t *testing.T) {
	a, err := app.Load(testConfig(t), zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel)))
	require.NoError(t, err)
	defer a.Close()

	sc, err := a.Scenario("auto_attack")
	require.NoError(t, err)
	assert.NotNil(t, sc.Observer)
}

func TestContent_BuffsMatchBuiltins(t *testing.T) {
	reg, err := buff.LoadDirectory(filepath.Join(repoRoot(t), "content", "buffs"))
	require.NoError(t, err)
	builtin := buff.DefaultRegistry().All()
	loaded := reg.All()
	require.Len(t, loaded, len(builtin))
	for i := range builtin {
		assert.Equal(t, builtin[i].ID, loaded[i].ID)
		assert.Equal(t, builtin[i].HasteBonus, loaded[i].HasteBonus, builtin[i].ID)
		assert.Equal(t, builtin[i].Group, loaded[i].Group, builtin[i].ID)
		assert.Equal(t, builtin[i].MeleeOnly, loaded[i].MeleeOnly, builtin[i].ID)
		assert.Equal(t, builtin[i].Variable, loaded[i].Variable, builtin[i].ID)
	}
}

func TestContent_EveryActionResolves(t *testing.T) {
	a, err := app.Load(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	for _, def := range a.Actions.All() {
		atk, err := a.Attack(def.ID)
		require.NoError(t, err, def.ID)
		result, ok := atk.Execute()
		if !def.IsHarmful() {
			assert.False(t, ok, def.ID)
			continue
		}
		assert.True(t, ok, def.ID)
		assert.NotEqual(t, combat.OutcomeNone, result, def.ID)
	}
}

func TestWriteReport(t *testing.T) {
	a, err := app.Load(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	sc, err := a.Scenario("auto_attack")
	require.NoError(t, err)
	r, err := sim.NewSimulator(1, zap.NewNop()).Run(context.Background(), sc)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, app.WriteReport(&buf, r))
	out := buf.String()
	assert.Contains(t, out, r.ID.String())
	assert.Contains(t, out, "auto_attack")
	assert.Contains(t, out, "OUTCOME")
	assert.Contains(t, out, "FREQUENCY")
	assert.Contains(t, out, "1000 (4 x 250)")
	assert.Regexp(t, `hit\s*│\s*\d+\s*│\s*0\.\d{4}`, out)
	assert.NotContains(t, out, "resist", "outcomes with no count are not listed")
}

func TestWriteTable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Target.Shield = true
	cfg.Attacker.Position = "front"
	a, err := app.Load(cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	atk, err := a.Attack("shield_slam")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, app.WriteTable(&buf, atk))
	out := buf.String()
	assert.Contains(t, out, "Shield Slam (special)")
	assert.Contains(t, out, "crit (second roll)")
	assert.Contains(t, out, "THRESHOLD")
	assert.Regexp(t, `block\s*│\s*0\.\d{4}`, out)
	assert.Regexp(t, `hit\s*│\s*1\.0000`, out)
	assert.NotContains(t, out, "resist (second roll)")

	atk, err = a.Attack("frost_bolt")
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, app.WriteTable(&buf, atk))
	assert.Regexp(t, `resist \(second roll\)\s*│\s*0\.0400`, buf.String())
}
