// create-gitlab-users creates GitLab accounts for every student in a class
// roster exported from Blackboard (Grade Center > Work Offline > Download,
// comma delimited).
//
// Each row is read as last name, first name, username, student id. The
// account gets "first last" as its name, username plus the configured email
// domain as its email, and username plus student id as its initial password.
// GitLab does not force a password change on first login, so remind students
// to change it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/kwurst/create-gitlab-users/internal/config"
	"github.com/kwurst/create-gitlab-users/internal/gitlab"
	"github.com/kwurst/create-gitlab-users/internal/report"
	"github.com/kwurst/create-gitlab-users/internal/repository/sqlite"
	"github.com/kwurst/create-gitlab-users/internal/roster"
	"github.com/kwurst/create-gitlab-users/internal/service"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)

	os.Exit(run(os.Args[1:], os.Stderr, logger))
}

func run(args []string, stderr io.Writer, logger *logrus.Logger) int {
	flags := pflag.NewFlagSet("create-gitlab-users", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	verbose := flags.BoolP("verbose", "v", false, "increase output verbosity")
	dryRun := flags.Bool("dry-run", false, "map the roster without creating any accounts")
	config.RegisterFlags(flags)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: create-gitlab-users [flags] FILE\n\nFILE is the Blackboard CSV with user information.\n\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return exitUsage
	}
	rosterPath := flags.Arg(0)

	cfg, err := config.Load(flags)
	if err != nil {
		logger.Errorf("load config: %v", err)
		return exitUsage
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		logger.Warnf("unknown log level %q, keeping %s", cfg.Log.Level, logger.GetLevel())
	} else {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creator, err := buildCreator(cfg, *dryRun, logger)
	if err != nil {
		logger.Errorf("setup gitlab: %v", err)
		return exitFailure
	}

	audit, closeAudit, err := buildAudit(ctx, cfg, logger)
	if err != nil {
		logger.Errorf("setup audit: %v", err)
		return exitFailure
	}
	defer closeAudit()

	rows, err := roster.Open(rosterPath, cfg.Roster.Encoding)
	if err != nil {
		logger.Errorf("read roster: %v", err)
		return exitFailure
	}
	defer rows.Close()

	provisioner := service.NewProvisionService(
		service.ProvisionConfig{
			EmailDomain: cfg.Roster.EmailDomain,
			Logger:      logger,
		},
		creator,
		report.New(stderr, *verbose),
		audit,
	)
	if err := provisioner.Provision(ctx, rosterPath, rows); err != nil {
		logger.Errorf("provision accounts: %v", err)
		return exitFailure
	}
	return exitOK
}

func buildCreator(cfg config.Config, dryRun bool, logger *logrus.Logger) (service.AccountCreator, error) {
	if dryRun {
		logger.Info("dry run: no accounts will be created")
		return gitlab.DryRun{Logger: logger}, nil
	}

	token, err := config.LoadToken(cfg.GitLab.TokenFile)
	if err != nil {
		return nil, err
	}
	if cfg.GitLab.InsecureSkipVerify {
		logger.Warnf("TLS certificate verification is DISABLED for %s", cfg.GitLab.URL)
	}

	client, err := gitlab.NewClient(gitlab.Config{
		BaseURL:            cfg.GitLab.URL,
		Token:              token,
		Timeout:            cfg.GitLab.Timeout,
		InsecureSkipVerify: cfg.GitLab.InsecureSkipVerify,
		SkipConfirmation:   cfg.GitLab.SkipConfirmation,
		Logger:             logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("using gitlab at %s", cfg.GitLab.URL)
	return client, nil
}

func buildAudit(ctx context.Context, cfg config.Config, logger *logrus.Logger) (service.AuditService, func(), error) {
	if cfg.Audit.Path == "" {
		return service.NopAuditService{}, func() {}, nil
	}

	db, err := sqlite.Open(cfg.Audit.Path)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Warnf("close audit db: %v", err)
		}
	}

	runs := sqlite.NewRunRepository(db)
	entries := sqlite.NewAuditEntryRepository(db)
	if err := initRepositories(ctx, runs, entries); err != nil {
		closeDB()
		return nil, nil, err
	}

	logger.Infof("recording run in %s", cfg.Audit.Path)
	return service.NewAuditService(runs, entries, 0), closeDB, nil
}

func initRepositories(ctx context.Context, repos ...interface{ Init(context.Context) error }) error {
	for _, repo := range repos {
		if err := repo.Init(ctx); err != nil {
			return err
		}
	}
	return nil
}
