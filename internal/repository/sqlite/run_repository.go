package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kwurst/create-gitlab-users/internal/domain"
	"github.com/kwurst/create-gitlab-users/internal/repository"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	roster_path TEXT NOT NULL,
	status TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NULL
);
`

var _ repository.RunRepository = (*RunRepository)(nil)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createRunsTable); err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	return nil
}

func (r *RunRepository) Create(ctx context.Context, run *domain.Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO runs (id, roster_path, status, started_at)
VALUES (?, ?, ?, ?)`,
		run.ID,
		run.RosterPath,
		string(run.Status),
		run.StartedAt,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepository) Finish(ctx context.Context, id string, status domain.RunStatus, finishedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE runs SET status=?, finished_at=? WHERE id=?`,
		string(status),
		finishedAt,
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

func (r *RunRepository) Get(ctx context.Context, id string) (*domain.Run, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, roster_path, status, started_at, finished_at
FROM runs
WHERE id = ?`,
		id,
	)

	var (
		run        domain.Run
		status     string
		finishedAt sql.NullTime
	)
	if err := row.Scan(&run.ID, &run.RosterPath, &status, &run.StartedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s not found", id)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Status = domain.RunStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
