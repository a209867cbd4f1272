package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/kwurst/create-gitlab-users/internal/domain"
)

// RowSource yields roster rows in file order until io.EOF.
type RowSource interface {
	Next() (domain.Row, error)
	Line() int
}

// AccountCreator is the remote capability that creates a single account.
// A nil error means the account was created.
type AccountCreator interface {
	CreateAccount(ctx context.Context, name, username, password, email string) error
}

// OutcomeReporter publishes each outcome as it happens.
type OutcomeReporter interface {
	Report(outcome domain.Outcome) error
}

// ProvisionService runs a roster through the mapping and account creation steps.
type ProvisionService interface {
	Provision(ctx context.Context, rosterPath string, rows RowSource) error
}

type ProvisionConfig struct {
	EmailDomain string
	Logger      *logrus.Logger
}

type provisionService struct {
	cfg      ProvisionConfig
	creator  AccountCreator
	reporter OutcomeReporter
	audit    AuditService
}

func NewProvisionService(cfg ProvisionConfig, creator AccountCreator, reporter OutcomeReporter, audit AuditService) ProvisionService {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if audit == nil {
		audit = NopAuditService{}
	}
	return &provisionService{
		cfg:      cfg,
		creator:  creator,
		reporter: reporter,
		audit:    audit,
	}
}

// Provision creates one account per row, strictly in file order and one call
// at a time. Remote failures are reported and the batch carries on; read and
// mapping errors stop it, leaving already created accounts in place.
func (s *provisionService) Provision(ctx context.Context, rosterPath string, rows RowSource) error {
	run, err := s.audit.StartRun(ctx, rosterPath)
	if err != nil {
		return fmt.Errorf("start audit run: %w", err)
	}
	log := s.cfg.Logger.WithField("run", run.ID)
	log.Infof("provisioning accounts from %s", rosterPath)

	runErr := s.provisionRows(ctx, run.ID, rows, log)

	status := domain.RunStatusCompleted
	if runErr != nil {
		status = domain.RunStatusAborted
	}
	// the ledger must close even when ctx was cancelled
	if err := s.audit.FinishRun(context.WithoutCancel(ctx), run.ID, status); err != nil {
		log.Warnf("finish audit run: %v", err)
	}
	return runErr
}

func (s *provisionService) provisionRows(ctx context.Context, runID string, rows RowSource, log *logrus.Entry) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("provisioning interrupted: %w", err)
		}

		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		account, err := domain.NewAccount(row, s.cfg.EmailDomain)
		if err != nil {
			return &domain.RowError{Line: rows.Line(), Err: err}
		}

		outcome := s.provisionAccount(ctx, rows.Line(), account, log)
		if err := s.reporter.Report(outcome); err != nil {
			return fmt.Errorf("report outcome: %w", err)
		}
		if err := s.audit.RecordOutcome(ctx, runID, outcome); err != nil {
			log.Warnf("record audit entry for %s: %v", account.Username, err)
		}
	}
}

func (s *provisionService) provisionAccount(ctx context.Context, line int, account domain.Account, log *logrus.Entry) domain.Outcome {
	outcome := domain.Outcome{Line: line, Account: account, Status: domain.OutcomeCreated}
	if err := s.creator.CreateAccount(ctx, account.Name, account.Username, account.Password, account.Email); err != nil {
		outcome.Status = domain.OutcomeFailed
		outcome.Err = err
		log.WithField("line", line).Debugf("create %s: %v", account.Username, err)
	}
	return outcome
}
