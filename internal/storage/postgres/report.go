package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/combatsim/internal/game/combat"
	"github.com/cory-johannsen/combatsim/internal/sim"
)

// ErrReportNotFound is returned when a report lookup yields no results.
var ErrReportNotFound = errors.New("report not found")

// ErrReportExists is returned when saving a report whose ID is already stored.
var ErrReportExists = errors.New("report already exists")

// ReportRepository persists simulation reports.
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a ReportRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// tableEntry is the JSONB form of one combat.Entry.
type tableEntry struct {
	Outcome   string  `json:"outcome"`
	Threshold float64 `json:"threshold"`
}

// chancesRow is the JSONB form of combat.Chances.
type chancesRow struct {
	Miss   float64 `json:"miss"`
	Dodge  float64 `json:"dodge"`
	Parry  float64 `json:"parry"`
	Glance float64 `json:"glance"`
	Block  float64 `json:"block"`
	Crit   float64 `json:"crit"`
}

// reportRow is a sim.Report in column form.
type reportRow struct {
	ID                  string
	Action              string
	Strategy            string
	Seed                int64
	Iterations          int
	AttacksPerIteration int
	Attempts            int64
	Counts              map[string]int64
	Table               []tableEntry
	Chances             chancesRow
	Haste               float64
	ExecuteTimeNS       int64
	ElapsedNS           int64
	CreatedAt           time.Time
}

func toRow(r *sim.Report) reportRow {
	counts := make(map[string]int64, len(combat.Outcomes))
	for _, o := range combat.Outcomes {
		counts[o.String()] = r.Count(o)
	}
	table := make([]tableEntry, 0, r.Table.Len())
	for _, e := range r.Table.Entries() {
		table = append(table, tableEntry{Outcome: e.Outcome.String(), Threshold: e.Threshold})
	}
	return reportRow{
		ID:                  r.ID.String(),
		Action:              r.Action,
		Strategy:            r.Strategy.String(),
		Seed:                int64(r.Seed),
		Iterations:          r.Iterations,
		AttacksPerIteration: r.AttacksPerIteration,
		Attempts:            r.Attempts,
		Counts:              counts,
		Table:               table,
		Chances:             chancesRow(r.Chances),
		Haste:               r.Haste,
		ExecuteTimeNS:       int64(r.ExecuteTime),
		ElapsedNS:           int64(r.Elapsed),
		CreatedAt:           r.CreatedAt,
	}
}

func fromRow(row reportRow) (*sim.Report, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing report id %q: %w", row.ID, err)
	}
	strategy, err := combat.ParseStrategy(row.Strategy)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", row.ID, err)
	}
	r := &sim.Report{
		ID:                  id,
		Action:              row.Action,
		Strategy:            strategy,
		Seed:                uint64(row.Seed),
		Iterations:          row.Iterations,
		AttacksPerIteration: row.AttacksPerIteration,
		Attempts:            row.Attempts,
		Chances:             combat.Chances(row.Chances),
		Haste:               row.Haste,
		ExecuteTime:         time.Duration(row.ExecuteTimeNS),
		Elapsed:             time.Duration(row.ElapsedNS),
		CreatedAt:           row.CreatedAt,
	}
	for name, n := range row.Counts {
		o, err := combat.ParseOutcome(name)
		if err != nil {
			return nil, fmt.Errorf("report %s counts: %w", row.ID, err)
		}
		r.Counts[o] = n
	}
	if len(row.Table) > 0 {
		entries := make([]combat.Entry, len(row.Table))
		for i, e := range row.Table {
			o, err := combat.ParseOutcome(e.Outcome)
			if err != nil {
				return nil, fmt.Errorf("report %s table: %w", row.ID, err)
			}
			entries[i] = combat.Entry{Threshold: e.Threshold, Outcome: o}
		}
		r.Table = combat.NewTable(entries...)
	}
	return r, nil
}

const reportColumns = `id::text, action, strategy, seed, iterations, attacks_per_iteration,
	attempts, counts, outcome_table, chances, haste, execute_time_ns, elapsed_ns, created_at`

func scanReport(row pgx.Row) (*sim.Report, error) {
	var rr reportRow
	if err := row.Scan(
		&rr.ID, &rr.Action, &rr.Strategy, &rr.Seed, &rr.Iterations, &rr.AttacksPerIteration,
		&rr.Attempts, &rr.Counts, &rr.Table, &rr.Chances, &rr.Haste, &rr.ExecuteTimeNS, &rr.ElapsedNS, &rr.CreatedAt,
	); err != nil {
		return nil, err
	}
	return fromRow(rr)
}

// Save inserts r. A zero CreatedAt is set by the database.
//
// Precondition: r must be non-nil with a non-nil ID.
// Postcondition: Returns ErrReportExists if a report with r.ID is already stored.
func (s *ReportRepository) Save(ctx context.Context, r *sim.Report) error {
	row := toRow(r)
	var createdAt *time.Time
	if !row.CreatedAt.IsZero() {
		createdAt = &row.CreatedAt
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO sim_reports (id, action, strategy, seed, iterations, attacks_per_iteration,
		     attempts, counts, outcome_table, chances, haste, execute_time_ns, elapsed_ns, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, COALESCE($14, NOW()))`,
		row.ID, row.Action, row.Strategy, row.Seed, row.Iterations, row.AttacksPerIteration,
		row.Attempts, row.Counts, row.Table, row.Chances, row.Haste, row.ExecuteTimeNS, row.ElapsedNS, createdAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrReportExists
		}
		return fmt.Errorf("inserting report: %w", err)
	}
	return nil
}

// Get retrieves a report by ID.
//
// Postcondition: Returns the report or ErrReportNotFound.
func (s *ReportRepository) Get(ctx context.Context, id uuid.UUID) (*sim.Report, error) {
	r, err := scanReport(s.db.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM sim_reports WHERE id = $1::uuid`,
		id.String(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("querying report: %w", err)
	}
	return r, nil
}

// ListByAction returns up to limit reports for action, newest first.
//
// Precondition: limit > 0.
func (s *ReportRepository) ListByAction(ctx context.Context, action string, limit int) ([]*sim.Report, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+reportColumns+` FROM sim_reports
		 WHERE action = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		action, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var out []*sim.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return out, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// SQLSTATE 23505 is unique_violation
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
