package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kwurst/create-gitlab-users/internal/domain"
	"github.com/kwurst/create-gitlab-users/internal/repository"
)

const createAuditEntriesTable = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	line INTEGER NOT NULL,
	name TEXT NOT NULL,
	username TEXT NOT NULL,
	email TEXT NOT NULL,
	status TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_run_id ON audit_entries(run_id);
`

var _ repository.AuditEntryRepository = (*AuditEntryRepository)(nil)

type AuditEntryRepository struct {
	db *sql.DB
}

func NewAuditEntryRepository(db *sql.DB) *AuditEntryRepository {
	return &AuditEntryRepository{db: db}
}

func (r *AuditEntryRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAuditEntriesTable); err != nil {
		return fmt.Errorf("create audit_entries table: %w", err)
	}
	return nil
}

func (r *AuditEntryRepository) Create(ctx context.Context, entry *domain.AuditEntry) (int64, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO audit_entries (run_id, line, name, username, email, status, password_hash, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Line,
		entry.Name,
		entry.Username,
		entry.Email,
		string(entry.Status),
		entry.PasswordHash,
		entry.Error,
		entry.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("audit entry last insert id: %w", err)
	}
	entry.ID = id
	return id, nil
}

func (r *AuditEntryRepository) ListByRun(ctx context.Context, runID string) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, run_id, line, name, username, email, status, password_hash, error, created_at
FROM audit_entries
WHERE run_id=?
ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			entry  domain.AuditEntry
			status string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.RunID,
			&entry.Line,
			&entry.Name,
			&entry.Username,
			&entry.Email,
			&status,
			&entry.PasswordHash,
			&entry.Error,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Status = domain.OutcomeStatus(status)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
