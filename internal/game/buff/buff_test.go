package buff_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/combatsim/internal/game/buff"
)

func TestRegistry_Get_Found(t *testing.T) {
	reg := buff.NewRegistry()
	def := &buff.Def{ID: "bloodlust", Name: "Bloodlust", HasteBonus: 0.3}
	reg.Register(def)
	got, ok := reg.Get("bloodlust")
	require.True(t, ok)
	assert.Equal(t, def, got)
}

func TestRegistry_All_SortedByID(t *testing.T) {
	reg := buff.NewRegistry()
	reg.Register(&buff.Def{ID: "b"})
	reg.Register(&buff.Def{ID: "a"})
	reg.Register(&buff.Def{ID: "c"})
	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[2].ID)
}

func TestDefaultRegistry_HasBuiltins(t *testing.T) {
	reg := buff.DefaultRegistry()
	for _, id := range []string{"bloodlust", "swift_retribution", "improved_moonkin", "windfury_totem", "celerity", "mongoose_mh", "mongoose_oh"} {
		_, ok := reg.Get(id)
		assert.True(t, ok, "missing built-in buff %q", id)
	}
}

func TestLoadDirectory_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := `
id: berserking
name: Berserking
description: "Racial haste."
haste_bonus: 0.2
group: ""
melee_only: false
variable: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "berserking.yaml"), []byte(yaml), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	reg, err := buff.LoadDirectory(dir)
	require.NoError(t, err)
	got, ok := reg.Get("berserking")
	require.True(t, ok)
	assert.Equal(t, "Berserking", got.Name)
	assert.InDelta(t, 0.2, got.HasteBonus, 1e-12)
	assert.Len(t, reg.All(), 1)
}

func TestLoadDirectory_UnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: x\nhaste: 0.1\n"), 0644))
	_, err := buff.LoadDirectory(dir)
	assert.Error(t, err)
}

func TestLoadDirectory_InvalidDefRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: nameless\n"), 0644))
	_, err := buff.LoadDirectory(dir)
	assert.Error(t, err)
}

func TestLoadDirectory_MissingDir(t *testing.T) {
	_, err := buff.LoadDirectory("/nonexistent/buffs")
	assert.Error(t, err)
}

func TestActiveSet_ApplyRemove(t *testing.T) {
	s := buff.NewActiveSet()
	assert.False(t, s.Active("bloodlust"))
	s.Apply("bloodlust", 1)
	s.Apply("windfury_totem", 0.2)
	assert.True(t, s.Active("bloodlust"))
	assert.InDelta(t, 0.2, s.Magnitude("windfury_totem"), 1e-12)
	assert.Equal(t, []string{"bloodlust", "windfury_totem"}, s.IDs())

	cp := s.Clone()
	s.Remove("bloodlust")
	assert.False(t, s.Active("bloodlust"))
	assert.True(t, cp.Active("bloodlust"), "clone must be independent")
	assert.Zero(t, s.Magnitude("bloodlust"))
}

func TestHasteMultiplier_NoBuffs(t *testing.T) {
	assert.Equal(t, 1.0, buff.HasteMultiplier(buff.DefaultRegistry(), buff.NewActiveSet(), false))
}

func TestHasteMultiplier_Bloodlust(t *testing.T) {
	s := buff.NewActiveSet()
	s.Apply("bloodlust", 1)
	assert.InDelta(t, 1/1.3, buff.HasteMultiplier(buff.DefaultRegistry(), s, false), 1e-12)
}

// TestHasteMultiplier_GroupAppliesOnce verifies that two auras in the same group
// contribute a single 3% factor.
func TestHasteMultiplier_GroupAppliesOnce(t *testing.T) {
	s := buff.NewActiveSet()
	s.Apply("swift_retribution", 1)
	s.Apply("improved_moonkin", 1)
	assert.InDelta(t, 1/1.03, buff.HasteMultiplier(buff.DefaultRegistry(), s, false), 1e-12)
}

func TestHasteMultiplier_WindfuryVariableAndMeleeOnly(t *testing.T) {
	s := buff.NewActiveSet()
	s.Apply("windfury_totem", 0.2)
	reg := buff.DefaultRegistry()
	assert.InDelta(t, 1/1.2, buff.HasteMultiplier(reg, s, false), 1e-12)
	assert.Equal(t, 1.0, buff.HasteMultiplier(reg, s, true), "windfury must not apply to ranged attackers")
}

func TestHasteMultiplier_AllBuffsStack(t *testing.T) {
	s := buff.NewActiveSet()
	for _, id := range []string{"bloodlust", "swift_retribution", "celerity", "mongoose_mh", "mongoose_oh"} {
		s.Apply(id, 1)
	}
	s.Apply("windfury_totem", 0.2)
	want := 1 / 1.3 / 1.03 / 1.2 / 1.2 / 1.02 / 1.02
	assert.InDelta(t, want, buff.HasteMultiplier(buff.DefaultRegistry(), s, false), 1e-12)
}

// TestHasteMultiplier_Property verifies the multiplier is in (0, 1] for any
// subset of fixed non-negative buffs.
func TestHasteMultiplier_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := buff.DefaultRegistry()
		s := buff.NewActiveSet()
		for _, def := range reg.All() {
			if rapid.Bool().Draw(rt, def.ID) {
				s.Apply(def.ID, rapid.Float64Range(0, 1).Draw(rt, def.ID+"_mag"))
			}
		}
		h := buff.HasteMultiplier(reg, s, rapid.Bool().Draw(rt, "ranged"))
		if h <= 0 || h > 1 {
			rt.Fatalf("haste multiplier %v out of (0, 1]", h)
		}
	})
}
