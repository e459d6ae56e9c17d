// Package app wires configuration and content into runnable simulation scenarios.
package app

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cory-johannsen/combatsim/internal/config"
	"github.com/cory-johannsen/combatsim/internal/game/buff"
	"github.com/cory-johannsen/combatsim/internal/game/combat"
	"github.com/cory-johannsen/combatsim/internal/game/stats"
	"github.com/cory-johannsen/combatsim/internal/observability"
	"github.com/cory-johannsen/combatsim/internal/scripting"
	"github.com/cory-johannsen/combatsim/internal/sim"
)

// ErrUnknownBuff is returned when the configuration activates a buff the registry does not define.
var ErrUnknownBuff = errors.New("unknown buff")

// App holds the loaded content for one configuration.
type App struct {
	Config   config.Config
	Actions  *combat.ActionRegistry
	Buffs    *buff.Registry
	Active   *buff.ActiveSet
	Stats    combat.StatAggregator
	Attacker combat.Combatant
	Target   combat.Combatant
	Strategy combat.Strategy

	scripts *scripting.Manager
	logger  *zap.Logger
}

// Load reads the action, buff and script content named by cfg.
//
// Precondition: cfg passed Validate; logger must be non-nil.
// Postcondition: Returns a ready App or a non-nil error. Callers must Close the App.
func Load(cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}

	var err error
	if a.Actions, err = combat.LoadActions(cfg.Content.Actions); err != nil {
		return nil, fmt.Errorf("loading actions: %w", err)
	}

	a.Buffs = buff.DefaultRegistry()
	if cfg.Content.Buffs != "" {
		if a.Buffs, err = buff.LoadDirectory(cfg.Content.Buffs); err != nil {
			return nil, fmt.Errorf("loading buffs: %w", err)
		}
	}
	a.Active = buff.NewActiveSet()
	for _, b := range cfg.Buffs {
		if _, ok := a.Buffs.Get(b.ID); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBuff, b.ID)
		}
		a.Active.Apply(b.ID, b.Magnitude)
	}

	if a.Strategy, err = combat.ParseStrategy(cfg.Simulation.Strategy); err != nil {
		return nil, err
	}
	if a.Attacker, err = attacker(cfg.Attacker); err != nil {
		return nil, err
	}
	a.Target = combat.Combatant{
		ID:     "target",
		Name:   cfg.Target.Name,
		Level:  cfg.Target.Level,
		Shield: cfg.Target.Shield,
	}

	base := stats.Static{
		Level:     cfg.Attacker.Level,
		Hit:       cfg.Attacker.Hit,
		Expertise: cfg.Attacker.Expertise,
		Crit:      cfg.Attacker.Crit,
		Haste:     cfg.Attacker.Haste,
	}
	a.Stats = base
	if cfg.Attacker.Script != "" {
		path := cfg.Attacker.Script
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Content.Scripts, path)
		}
		a.scripts = scripting.NewManager(0, logger)
		if err := a.scripts.LoadFile(a.Attacker.Name, path); err != nil {
			a.scripts.Close()
			return nil, err
		}
		a.Stats = stats.NewScripted(base, a.scripts, a.Attacker.Name)
	}

	logger.Debug("content loaded",
		zap.Int("actions", len(a.Actions.All())),
		zap.Int("buffs", len(a.Buffs.All())),
		zap.Strings("active_buffs", a.Active.IDs()),
		zap.Bool("scripted", a.scripts != nil),
	)
	return a, nil
}

func attacker(c config.AttackerConfig) (combat.Combatant, error) {
	kind, err := combat.ParseKind(c.Kind)
	if err != nil {
		return combat.Combatant{}, err
	}
	pos, err := combat.ParsePosition(c.Position)
	if err != nil {
		return combat.Combatant{}, err
	}
	return combat.Combatant{
		ID:       "attacker",
		Kind:     kind,
		Name:     c.Name,
		Level:    c.Level,
		Position: pos,
	}, nil
}

// Scenario builds the simulation scenario for actionID using the configured
// simulation settings.
//
// Postcondition: Returns an error wrapping combat.ErrUnknownAction for an unregistered id.
func (a *App) Scenario(actionID string) (sim.Scenario, error) {
	def, err := a.Actions.Get(actionID)
	if err != nil {
		return sim.Scenario{}, err
	}
	sc := sim.Scenario{
		Action:              def,
		Attacker:            a.Attacker,
		Target:              a.Target,
		Stats:               a.Stats,
		Buffs:               a.Active,
		Registry:            a.Buffs,
		Strategy:            a.Strategy,
		Seed:                a.Config.Simulation.Seed,
		Iterations:          a.Config.Simulation.Iterations,
		AttacksPerIteration: a.Config.Simulation.AttacksPerIteration,
	}
	if a.logger.Core().Enabled(zap.DebugLevel) {
		sc.Observer = observability.NewResolutionLogger(a.logger)
	}
	return sc, nil
}

// Attack builds a single Attack for actionID, for inspecting its table without simulating.
func (a *App) Attack(actionID string) (*combat.Attack, error) {
	sc, err := a.Scenario(actionID)
	if err != nil {
		return nil, err
	}
	attacker, target := sc.Attacker, sc.Target
	return combat.NewAttack(sc.Action, combat.Env{
		Attacker: &attacker,
		Target:   &target,
		Stats:    sc.Stats,
		Buffs:    sc.Buffs,
		Registry: sc.Registry,
		Resolver: combat.NewResolver(sc.Strategy, combat.NewSource(combat.NewStreamSet(1))),
	}), nil
}

// Close releases the script VMs.
func (a *App) Close() {
	if a.scripts != nil {
		a.scripts.Close()
	}
}
