// Package buff defines named haste buffs, tracks which are active on an
// attacker, and computes the combined haste multiplier they grant.
package buff

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Def is the static definition of a haste buff, loaded from YAML.
type Def struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	HasteBonus  float64 `yaml:"haste_bonus"` // fractional bonus, e.g. 0.30 for 30%
	// Group names buffs that do not stack with each other; at most one member applies.
	Group string `yaml:"group"`
	// MeleeOnly buffs are ignored for ranged attackers.
	MeleeOnly bool `yaml:"melee_only"`
	// Variable buffs take their bonus from the active magnitude instead of HasteBonus.
	Variable bool `yaml:"variable"`
}

// Validate reports whether def is well formed.
//
// Postcondition: Returns nil iff ID is non-empty and the fixed bonus is > -1.
func (d *Def) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("buff: id must not be empty")
	}
	if !d.Variable && d.HasteBonus <= -1 {
		return fmt.Errorf("buff %q: haste_bonus must be > -1, got %v", d.ID, d.HasteBonus)
	}
	return nil
}

// Registry holds all known Defs keyed by ID.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Def) {
	r.defs[def.ID] = def
}

// Get returns the Def for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Defs sorted by ID.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DefaultRegistry returns a Registry holding the built-in haste buffs.
//
// Postcondition: Returns a non-nil Registry with every built-in Def registered.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	for _, d := range []*Def{
		{ID: "bloodlust", Name: "Bloodlust", HasteBonus: 0.30},
		{ID: "swift_retribution", Name: "Swift Retribution", HasteBonus: 0.03, Group: "haste_aura"},
		{ID: "improved_moonkin", Name: "Improved Moonkin Aura", HasteBonus: 0.03, Group: "haste_aura"},
		{ID: "windfury_totem", Name: "Windfury Totem", Variable: true, MeleeOnly: true},
		{ID: "celerity", Name: "Celerity", HasteBonus: 0.20},
		{ID: "mongoose_mh", Name: "Mongoose (main hand)", HasteBonus: 0.02},
		{ID: "mongoose_oh", Name: "Mongoose (off hand)", HasteBonus: 0.02},
	} {
		reg.Register(d)
	}
	return reg
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Def,
// and returns a populated Registry.
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading buff dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}
