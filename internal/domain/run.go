package domain

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusAborted   RunStatus = "aborted"
)

// Run is one invocation of the provisioning batch as kept in the audit ledger.
type Run struct {
	ID         string
	RosterPath string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt *time.Time
}

// AuditEntry records a single outcome in the audit ledger. Only a bcrypt hash
// of the initial password is kept.
type AuditEntry struct {
	ID           int64
	RunID        string
	Line         int
	Name         string
	Username     string
	Email        string
	Status       OutcomeStatus
	PasswordHash string
	Error        string
	CreatedAt    time.Time
}
