package app

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cory-johannsen/combatsim/internal/game/combat"
	"github.com/cory-johannsen/combatsim/internal/sim"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Padding(0, 1)
	valueStyle  = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#874BFD"))
)

// newTable returns a bordered table whose first column is left aligned and
// whose remaining columns are right aligned.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		BorderRow(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return labelStyle
			default:
				return valueStyle
			}
		})
}

func f4(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func render(w io.Writer, tables ...*table.Table) error {
	blocks := make([]string, len(tables))
	for i, t := range tables {
		blocks[i] = t.Render()
	}
	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, blocks...))
	return err
}

// WriteReport prints the outcome distribution of r.
func WriteReport(w io.Writer, r *sim.Report) error {
	summary := newTable().
		Row("run", r.ID.String()).
		Row("action", r.Action).
		Row("strategy", r.Strategy.String()).
		Row("seed", strconv.FormatUint(r.Seed, 10)).
		Row("attempts", fmt.Sprintf("%d (%d x %d)", r.Attempts, r.Iterations, r.AttacksPerIteration)).
		Row("haste", f4(r.Haste)).
		Row("execute time", r.ExecuteTime.String()).
		Row("table", r.Table.String()).
		Row("elapsed", r.Elapsed.String())

	dist := newTable("OUTCOME", "COUNT", "FREQUENCY")
	for _, o := range combat.Outcomes {
		if r.Count(o) == 0 {
			continue
		}
		dist.Row(o.String(), strconv.FormatInt(r.Count(o), 10), f4(r.Frequency(o)))
	}
	return render(w, summary, dist)
}

// WriteTable prints the probability table of a without sampling it.
func WriteTable(w io.Writer, a *combat.Attack) error {
	tbl, ch := a.Table()
	st := a.Stats()
	caps := a.Capabilities()
	delta := a.TargetContext().LevelDelta

	summary := newTable().
		Row("action", fmt.Sprintf("%s (%s)", a.Name(), a.Variant())).
		Row("level delta", strconv.Itoa(delta)).
		Row("hit / expertise / crit", fmt.Sprintf("%s / %s / %s", f4(st.Hit), f4(st.Expertise), f4(st.Crit))).
		Row("haste", f4(st.Haste)).
		Row("execute time", a.ExecuteTime().String())

	chances := newTable("KIND", "CHANCE").
		Row(combat.OutcomeMiss.String(), f4(ch.Miss)).
		Row(combat.OutcomeDodge.String(), f4(ch.Dodge)).
		Row(combat.OutcomeParry.String(), f4(ch.Parry)).
		Row(combat.OutcomeGlance.String(), f4(ch.Glance)).
		Row(combat.OutcomeBlock.String(), f4(ch.Block)).
		Row(combat.OutcomeCrit.String(), f4(ch.Crit))
	if caps.Special && caps.MayCrit {
		chances.Row("crit (second roll)", f4(a.CritChance(delta)))
	}
	if caps.Binary {
		chances.Row("resist (second roll)", f4(a.Def().Resistance))
	}

	thresholds := newTable("OUTCOME", "THRESHOLD")
	for _, e := range tbl.Entries() {
		thresholds.Row(e.Outcome.String(), f4(e.Threshold))
	}
	return render(w, summary, chances, thresholds)
}
