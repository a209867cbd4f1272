package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kwurst/create-gitlab-users/internal/domain"
	"github.com/kwurst/create-gitlab-users/internal/repository"
)

// AuditService keeps an optional ledger of what each run did.
type AuditService interface {
	StartRun(ctx context.Context, rosterPath string) (*domain.Run, error)
	RecordOutcome(ctx context.Context, runID string, outcome domain.Outcome) error
	FinishRun(ctx context.Context, runID string, status domain.RunStatus) error
}

type auditService struct {
	runs     repository.RunRepository
	entries  repository.AuditEntryRepository
	hashCost int
}

// NewAuditService returns a ledger backed by the given repositories. hashCost
// is the bcrypt cost used for stored passwords; zero means bcrypt.DefaultCost.
func NewAuditService(runs repository.RunRepository, entries repository.AuditEntryRepository, hashCost int) AuditService {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &auditService{
		runs:     runs,
		entries:  entries,
		hashCost: hashCost,
	}
}

func (s *auditService) StartRun(ctx context.Context, rosterPath string) (*domain.Run, error) {
	run := &domain.Run{
		ID:         uuid.NewString(),
		RosterPath: rosterPath,
		Status:     domain.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *auditService) RecordOutcome(ctx context.Context, runID string, outcome domain.Outcome) error {
	entry := &domain.AuditEntry{
		RunID:     runID,
		Line:      outcome.Line,
		Name:      outcome.Account.Name,
		Username:  outcome.Account.Username,
		Email:     outcome.Account.Email,
		Status:    outcome.Status,
		CreatedAt: time.Now().UTC(),
	}

	var problems []string
	if outcome.Err != nil {
		problems = append(problems, outcome.Err.Error())
	}
	// bcrypt refuses passwords over 72 bytes; the entry is kept without a hash
	hash, err := bcrypt.GenerateFromPassword([]byte(outcome.Account.Password), s.hashCost)
	if err != nil {
		problems = append(problems, fmt.Sprintf("password not hashed: %v", err))
	} else {
		entry.PasswordHash = string(hash)
	}
	entry.Error = strings.Join(problems, "; ")

	if _, err := s.entries.Create(ctx, entry); err != nil {
		return err
	}
	return nil
}

func (s *auditService) FinishRun(ctx context.Context, runID string, status domain.RunStatus) error {
	return s.runs.Finish(ctx, runID, status, time.Now().UTC())
}

// NopAuditService is used when no audit database is configured.
type NopAuditService struct{}

func (NopAuditService) StartRun(_ context.Context, rosterPath string) (*domain.Run, error) {
	return &domain.Run{ID: uuid.NewString(), RosterPath: rosterPath, Status: domain.RunStatusRunning, StartedAt: time.Now().UTC()}, nil
}

func (NopAuditService) RecordOutcome(context.Context, string, domain.Outcome) error {
	return nil
}

func (NopAuditService) FinishRun(context.Context, string, domain.RunStatus) error {
	return nil
}
