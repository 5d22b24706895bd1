package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/uplift-stats/uplift/internal/stats"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS experiments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    groups TEXT NOT NULL,
    baseline TEXT NOT NULL,
    description TEXT,
    state TEXT NOT NULL DEFAULT 'running',
    winner_group TEXT,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_experiments_name ON experiments(name);
CREATE INDEX IF NOT EXISTS idx_experiments_state ON experiments(state);

CREATE TABLE IF NOT EXISTS observations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    experiment TEXT NOT NULL,
    period INTEGER NOT NULL,
    grp TEXT NOT NULL,
    visitors INTEGER NOT NULL,
    conversions INTEGER NOT NULL,
    revenue REAL NOT NULL,
    retained INTEGER NOT NULL,
    batch_id TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    FOREIGN KEY (experiment) REFERENCES experiments(name)
);

CREATE INDEX IF NOT EXISTS idx_observations_experiment ON observations(experiment);
CREATE INDEX IF NOT EXISTS idx_observations_experiment_grp ON observations(experiment, grp);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateExperiment(ctx context.Context, name string, groups []string, baseline, description string) (*Experiment, error) {
	if len(groups) < 2 {
		return nil, fmt.Errorf("experiment needs at least 2 groups, got %d", len(groups))
	}
	if baseline == "" {
		baseline = groups[0]
	}
	found := false
	for _, g := range groups {
		if g == baseline {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("baseline %q is not one of the groups", baseline)
	}

	groupsJSON, err := json.Marshal(groups)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal groups: %w", err)
	}

	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO experiments (name, groups, baseline, description, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'running', ?, ?)`,
		name, string(groupsJSON), baseline, description, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert experiment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return &Experiment{
		ID:          id,
		Name:        name,
		Groups:      groups,
		Baseline:    baseline,
		Description: description,
		State:       StateRunning,
		CreatedAt:   time.Unix(now, 0),
		UpdatedAt:   time.Unix(now, 0),
	}, nil
}

func (s *SQLiteStore) GetExperiment(ctx context.Context, name string) (*Experiment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, groups, baseline, description, state, winner_group, created_at, updated_at
		 FROM experiments WHERE name = ?`, name,
	)

	exp, err := scanExperiment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}
	return exp, nil
}

func (s *SQLiteStore) ListExperiments(ctx context.Context) ([]*Experiment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, groups, baseline, description, state, winner_group, created_at, updated_at
		 FROM experiments ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	var experiments []*Experiment
	for rows.Next() {
		exp, err := scanExperiment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		experiments = append(experiments, exp)
	}

	return experiments, rows.Err()
}

func scanExperiment(scan func(dest ...any) error) (*Experiment, error) {
	var exp Experiment
	var groupsJSON string
	var description sql.NullString
	var winner sql.NullString
	var createdAt, updatedAt int64

	err := scan(&exp.ID, &exp.Name, &groupsJSON, &exp.Baseline, &description, &exp.State, &winner, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(groupsJSON), &exp.Groups); err != nil {
		return nil, fmt.Errorf("failed to unmarshal groups: %w", err)
	}
	exp.Description = description.String
	if winner.Valid {
		w := winner.String
		exp.WinnerGroup = &w
	}
	exp.CreatedAt = time.Unix(createdAt, 0)
	exp.UpdatedAt = time.Unix(updatedAt, 0)

	return &exp, nil
}

func (s *SQLiteStore) UpdateState(ctx context.Context, name string, state ExperimentState) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE experiments SET state = ?, updated_at = ? WHERE name = ?`,
		string(state), time.Now().Unix(), name,
	)
	if err != nil {
		return fmt.Errorf("failed to update experiment state: %w", err)
	}
	return requireRow(result)
}

func (s *SQLiteStore) SetWinner(ctx context.Context, name string, group string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE experiments SET state = 'completed', winner_group = ?, updated_at = ? WHERE name = ?`,
		group, time.Now().Unix(), name,
	)
	if err != nil {
		return fmt.Errorf("failed to set winner: %w", err)
	}
	return requireRow(result)
}

func (s *SQLiteStore) DeleteExperiment(ctx context.Context, name string) error {
	// First delete related observations
	_, err := s.db.ExecContext(ctx, `DELETE FROM observations WHERE experiment = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete observations: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM experiments WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete experiment: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) AddObservation(ctx context.Context, experiment string, obs stats.Observation) error {
	if err := obs.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO observations (experiment, period, grp, visitors, conversions, revenue, retained, batch_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, '', ?)`,
		experiment, obs.Period.Unix(), obs.Group, obs.Visitors, obs.Conversions, obs.Revenue, obs.Retained, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}
	return nil
}

// AddObservations inserts a batch in one transaction and tags every row
// with a fresh batch id so an import can be traced later.
func (s *SQLiteStore) AddObservations(ctx context.Context, experiment string, obs []stats.Observation) (string, error) {
	for i, o := range obs {
		if err := o.Validate(); err != nil {
			return "", fmt.Errorf("observation %d: %w", i, err)
		}
	}

	batchID := uuid.NewString()
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO observations (experiment, period, grp, visitors, conversions, revenue, retained, batch_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx, experiment, o.Period.Unix(), o.Group, o.Visitors, o.Conversions, o.Revenue, o.Retained, batchID, now); err != nil {
			return "", fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit batch: %w", err)
	}
	return batchID, nil
}

func (s *SQLiteStore) GetObservations(ctx context.Context, experiment string) ([]stats.Observation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT period, grp, visitors, conversions, revenue, retained
		 FROM observations WHERE experiment = ? ORDER BY period, grp`,
		experiment,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get observations: %w", err)
	}
	defer rows.Close()

	var observations []stats.Observation
	for rows.Next() {
		var o stats.Observation
		var period int64
		if err := rows.Scan(&period, &o.Group, &o.Visitors, &o.Conversions, &o.Revenue, &o.Retained); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		o.Period = time.Unix(period, 0).UTC()
		observations = append(observations, o)
	}

	return observations, rows.Err()
}

func (s *SQLiteStore) GetGroupTotals(ctx context.Context, experiment string) ([]GroupTotals, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			grp,
			COUNT(*) as observations,
			SUM(visitors) as visitors,
			SUM(conversions) as conversions,
			SUM(retained) as retained,
			SUM(revenue) as revenue
		FROM observations
		WHERE experiment = ?
		GROUP BY grp
		ORDER BY grp
	`, experiment)
	if err != nil {
		return nil, fmt.Errorf("failed to get group totals: %w", err)
	}
	defer rows.Close()

	var totals []GroupTotals
	for rows.Next() {
		var t GroupTotals
		if err := rows.Scan(&t.Group, &t.Observations, &t.Visitors, &t.Conversions, &t.Retained, &t.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan totals: %w", err)
		}
		totals = append(totals, t)
	}

	return totals, rows.Err()
}

// GetGroupRates returns each group's per-observation conversion rates
// in period order, skipping zero-visitor rows. These feed the bootstrap
// and Welch's t-test, which work on the observation-level rates.
func (s *SQLiteStore) GetGroupRates(ctx context.Context, experiment string) (map[string][]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT grp, visitors, conversions
		 FROM observations
		 WHERE experiment = ? AND visitors > 0
		 ORDER BY grp, period`,
		experiment,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group rates: %w", err)
	}
	defer rows.Close()

	rates := make(map[string][]float64)
	for rows.Next() {
		var group string
		var visitors, conversions int
		if err := rows.Scan(&group, &visitors, &conversions); err != nil {
			return nil, fmt.Errorf("failed to scan rate row: %w", err)
		}
		rates[group] = append(rates[group], float64(conversions)/float64(visitors))
	}

	return rates, rows.Err()
}

// DB returns the underlying database connection for health checks
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}
