package gitlab

import (
	"context"

	"github.com/sirupsen/logrus"
)

// DryRun accepts every account without contacting GitLab.
type DryRun struct {
	Logger *logrus.Logger
}

func (d DryRun) CreateAccount(_ context.Context, name, username, _, email string) error {
	if d.Logger != nil {
		d.Logger.Infof("dry run: would create %s (%s, %s)", username, name, email)
	}
	return nil
}
