package repository

import (
	"context"
	"time"

	"github.com/kwurst/create-gitlab-users/internal/domain"
)

// RunRepository persists provisioning runs.
type RunRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, run *domain.Run) error
	Finish(ctx context.Context, id string, status domain.RunStatus, finishedAt time.Time) error
}

// AuditEntryRepository persists the per-record outcomes of a run. The ledger
// is write-only from the binary's point of view; inspect it with any sqlite client.
type AuditEntryRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, entry *domain.AuditEntry) (int64, error)
}
