package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one maintenance command run against the document store
// (seed, migrate creator, migrate phones, backup).
type Run struct {
	ID          int64
	Kind        string
	Status      string
	Affected    int
	Detail      string
	StartedAt   time.Time
	CompletedAt *time.Time
}

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Start(ctx context.Context, kind string) (int64, error) {
	query := `
	INSERT INTO maintenance_runs (kind, status, started_at)
        VALUES (?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, kind, RunStatusRunning, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}

	return result.LastInsertId()
}

// Finish records the outcome. A non-nil runErr marks the run failed and keeps
// its message as the detail.
func (r *RunRepository) Finish(ctx context.Context, id int64, affected int, runErr error) error {
	status, detail := RunStatusCompleted, ""
	if runErr != nil {
		status, detail = RunStatusFailed, runErr.Error()
	}

	query := `UPDATE maintenance_runs SET status = ?, affected = ?, detail = ?, completed_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, status, affected, detail, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// List returns the most recent runs first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]Run, error) {
	query := `
	SELECT id, kind, status, affected, detail, started_at, completed_at
	FROM maintenance_runs ORDER BY id DESC LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		var run Run
		var completedAt sql.NullTime
		err := rows.Scan(
			&run.ID,
			&run.Kind,
			&run.Status,
			&run.Affected,
			&run.Detail,
			&run.StartedAt,
			&completedAt,
		)
		if err != nil {
			return nil, err
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
