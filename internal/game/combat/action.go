package combat

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownAction is returned when an action id is not registered.
var ErrUnknownAction = errors.New("unknown action")

// CapabilityOverrides replaces individual default capabilities. Nil fields keep the default.
type CapabilityOverrides struct {
	Miss   *bool `yaml:"miss"`
	Dodge  *bool `yaml:"dodge"`
	Parry  *bool `yaml:"parry"`
	Glance *bool `yaml:"glance"`
	Block  *bool `yaml:"block"`
	Crit   *bool `yaml:"crit"`
}

// ActionDef is the static definition of an attack action, loaded from YAML.
type ActionDef struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Variant string `yaml:"variant"` // "melee" | "ranged" | "special"
	// Position overrides the attacker's position for this action when set.
	Position string `yaml:"position"`
	Binary   bool   `yaml:"binary"`
	// Harmful defaults to true when omitted.
	Harmful *bool `yaml:"harmful"`
	// Resistance is the probability a connecting binary attack is resisted.
	Resistance    float64             `yaml:"resistance"`
	BaseHit       float64             `yaml:"base_hit"`
	BaseExpertise float64             `yaml:"base_expertise"`
	BaseCrit      float64             `yaml:"base_crit"`
	ExecuteTime   time.Duration       `yaml:"execute_time"`
	Capabilities  CapabilityOverrides `yaml:"capabilities"`
}

// Validate checks the definition's invariants.
//
// Postcondition: Returns nil if the definition is valid, or an error describing all violations.
func (d *ActionDef) Validate() error {
	var errs []string
	if d.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if _, err := ParseVariant(d.Variant); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := ParsePosition(d.Position); err != nil {
		errs = append(errs, err.Error())
	}
	if d.Resistance < 0 || d.Resistance > 1 {
		errs = append(errs, fmt.Sprintf("resistance must be in [0, 1], got %v", d.Resistance))
	}
	if d.ExecuteTime < 0 {
		errs = append(errs, "execute_time must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("action %q: %s", d.ID, strings.Join(errs, "; "))
	}
	return nil
}

// IsHarmful reports whether the action produces outcomes.
func (d *ActionDef) IsHarmful() bool {
	return d.Harmful == nil || *d.Harmful
}

// capabilities derives the variant and capability set for an attacker standing at pos.
//
// Precondition: d passed Validate.
func (d *ActionDef) capabilities(pos Position) (Variant, CapabilitySet) {
	v, err := ParseVariant(d.Variant)
	if err != nil {
		panic("combat: " + err.Error())
	}
	if d.Position != "" {
		if pos, err = ParsePosition(d.Position); err != nil {
			panic("combat: " + err.Error())
		}
	}
	caps := DefaultCapabilities(v, pos)
	o := d.Capabilities
	for _, ov := range []struct {
		val *bool
		dst *bool
	}{
		{o.Miss, &caps.MayMiss},
		{o.Dodge, &caps.MayDodge},
		{o.Parry, &caps.MayParry},
		{o.Glance, &caps.MayGlance},
		{o.Block, &caps.MayBlock},
		{o.Crit, &caps.MayCrit},
	} {
		if ov.val != nil {
			*ov.dst = *ov.val
		}
	}
	caps.Binary = d.Binary
	caps.Harmful = d.IsHarmful()
	return v, caps
}

// ActionRegistry holds ActionDefs keyed by ID.
type ActionRegistry struct {
	defs map[string]*ActionDef
}

// NewActionRegistry creates an empty ActionRegistry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{defs: make(map[string]*ActionDef)}
}

// Register adds def, overwriting any existing entry with the same ID.
//
// Precondition: def must not be nil.
// Postcondition: Returns the validation error and leaves the registry unchanged if def is invalid.
func (r *ActionRegistry) Register(def *ActionDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.defs[def.ID] = def
	return nil
}

// Get returns the ActionDef for id, or an error wrapping ErrUnknownAction.
func (r *ActionRegistry) Get(id string) (*ActionDef, error) {
	d, ok := r.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}
	return d, nil
}

// All returns every registered ActionDef sorted by ID.
func (r *ActionRegistry) All() []*ActionDef {
	out := make([]*ActionDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadActions reads every *.yaml file in dir as an ActionDef.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a registry of valid definitions, or an error naming the first bad file.
func LoadActions(dir string) (*ActionRegistry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading action dir %q: %w", dir, err)
	}
	reg := NewActionRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def ActionDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := reg.Register(&def); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return reg, nil
}
