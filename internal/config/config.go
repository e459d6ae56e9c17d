// Package config provides Viper-based configuration loading for the attack simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SimulationConfig holds the sampling run settings.
type SimulationConfig struct {
	// Action is the ID of the action definition to simulate.
	Action string `mapstructure:"action"`
	// Iterations is the number of independent iterations.
	Iterations int `mapstructure:"iterations"`
	// AttacksPerIteration is the number of executions in each iteration.
	AttacksPerIteration int `mapstructure:"attacks_per_iteration"`
	// Seed is the base seed. Zero means a fresh random seed per run.
	Seed uint64 `mapstructure:"seed"`
	// Strategy is the outcome sampling strategy: "direct" or "decomposed".
	Strategy string `mapstructure:"strategy"`
	// Workers bounds the number of concurrently running iterations.
	Workers int `mapstructure:"workers"`
}

// AttackerConfig describes the attacking combatant and its base statistics.
type AttackerConfig struct {
	Name      string  `mapstructure:"name"`
	Kind      string  `mapstructure:"kind"`
	Level     int     `mapstructure:"level"`
	Position  string  `mapstructure:"position"`
	Hit       float64 `mapstructure:"hit"`
	Expertise float64 `mapstructure:"expertise"`
	Crit      float64 `mapstructure:"crit"`
	Haste     float64 `mapstructure:"haste"`
	// Script is an optional Lua profile that computes the attacker's offsets.
	Script string `mapstructure:"script"`
}

// TargetConfig describes the defender.
type TargetConfig struct {
	Name   string `mapstructure:"name"`
	Level  int    `mapstructure:"level"`
	Shield bool   `mapstructure:"shield"`
}

// BuffConfig is one active buff. Magnitude is only read for variable buffs.
type BuffConfig struct {
	ID        string  `mapstructure:"id"`
	Magnitude float64 `mapstructure:"magnitude"`
}

// ContentConfig locates the YAML and Lua content directories.
type ContentConfig struct {
	Actions string `mapstructure:"actions"`
	// Buffs is optional; empty means the built-in buff registry.
	Buffs   string `mapstructure:"buffs"`
	Scripts string `mapstructure:"scripts"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Store enables persisting reports after a run.
	Store           bool          `mapstructure:"store"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Config is the top-level application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	Attacker   AttackerConfig   `mapstructure:"attacker"`
	Target     TargetConfig     `mapstructure:"target"`
	Buffs      []BuffConfig     `mapstructure:"buffs"`
	Content    ContentConfig    `mapstructure:"content"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Database   DatabaseConfig   `mapstructure:"database"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, fn := range []func() error{
		func() error { return validateSimulation(c.Simulation) },
		func() error { return validateAttacker(c.Attacker) },
		func() error { return validateTarget(c.Target) },
		func() error { return validateBuffs(c.Buffs) },
		func() error { return validateContent(c.Content) },
		func() error { return validateLogging(c.Logging) },
	} {
		if err := fn(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	// Connection settings only matter when reports are stored.
	if c.Database.Store {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.Action == "" {
		errs = append(errs, "simulation.action must not be empty")
	}
	if s.Iterations < 1 {
		errs = append(errs, fmt.Sprintf("simulation.iterations must be >= 1, got %d", s.Iterations))
	}
	if s.AttacksPerIteration < 1 {
		errs = append(errs, fmt.Sprintf("simulation.attacks_per_iteration must be >= 1, got %d", s.AttacksPerIteration))
	}
	validStrategies := map[string]bool{"direct": true, "decomposed": true}
	if !validStrategies[s.Strategy] {
		errs = append(errs, fmt.Sprintf("simulation.strategy must be one of [direct, decomposed], got %q", s.Strategy))
	}
	if s.Workers < 1 {
		errs = append(errs, fmt.Sprintf("simulation.workers must be >= 1, got %d", s.Workers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateAttacker(a AttackerConfig) error {
	var errs []string
	validKinds := map[string]bool{"player": true, "pet": true, "guardian": true}
	if !validKinds[a.Kind] {
		errs = append(errs, fmt.Sprintf("attacker.kind must be one of [player, pet, guardian], got %q", a.Kind))
	}
	validPositions := map[string]bool{"front": true, "back": true, "ranged": true}
	if !validPositions[a.Position] {
		errs = append(errs, fmt.Sprintf("attacker.position must be one of [front, back, ranged], got %q", a.Position))
	}
	if a.Level < 1 {
		errs = append(errs, fmt.Sprintf("attacker.level must be >= 1, got %d", a.Level))
	}
	if a.Haste <= 0 {
		errs = append(errs, fmt.Sprintf("attacker.haste must be > 0, got %v", a.Haste))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTarget(t TargetConfig) error {
	if t.Level < 1 {
		return fmt.Errorf("target.level must be >= 1, got %d", t.Level)
	}
	return nil
}

func validateBuffs(buffs []BuffConfig) error {
	var errs []string
	seen := make(map[string]bool, len(buffs))
	for i, b := range buffs {
		if b.ID == "" {
			errs = append(errs, fmt.Sprintf("buffs[%d].id must not be empty", i))
			continue
		}
		if seen[b.ID] {
			errs = append(errs, fmt.Sprintf("buffs[%d].id %q is listed twice", i, b.ID))
		}
		seen[b.ID] = true
		if b.Magnitude < 0 {
			errs = append(errs, fmt.Sprintf("buffs[%d].magnitude must not be negative", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	if c.Actions == "" {
		return errors.New("content.actions must not be empty")
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// NewViper returns a Viper instance with defaults and COMBATSIM_ environment
// overrides applied. Callers may bind flags to it before calling LoadFromViper.
//
// Postcondition: Returns a non-nil Viper. If path is non-empty it is set as the config file.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}

	// Environment variable overrides with COMBATSIM_ prefix
	v.SetEnvPrefix("COMBATSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.action", "auto_attack")
	v.SetDefault("simulation.iterations", 100)
	v.SetDefault("simulation.attacks_per_iteration", 1000)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.strategy", "direct")
	v.SetDefault("simulation.workers", 4)

	v.SetDefault("attacker.name", "attacker")
	v.SetDefault("attacker.kind", "player")
	v.SetDefault("attacker.level", 80)
	v.SetDefault("attacker.position", "back")
	v.SetDefault("attacker.haste", 1.0)

	v.SetDefault("target.name", "target")
	v.SetDefault("target.level", 83)

	v.SetDefault("content.actions", "content/actions")
	v.SetDefault("content.scripts", "content/scripts")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "combatsim")
	v.SetDefault("database.password", "combatsim")
	v.SetDefault("database.name", "combatsim")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
}
