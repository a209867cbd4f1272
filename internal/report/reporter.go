package report

import (
	"fmt"
	"io"

	"github.com/kwurst/create-gitlab-users/internal/domain"
)

// Reporter writes one diagnostic line per outcome. Successes are only
// written in verbose mode. Failure lines never carry the password.
type Reporter struct {
	w       io.Writer
	verbose bool
}

func New(w io.Writer, verbose bool) *Reporter {
	return &Reporter{w: w, verbose: verbose}
}

func (r *Reporter) Report(outcome domain.Outcome) error {
	acct := outcome.Account
	var err error
	switch {
	case !outcome.Created():
		_, err = fmt.Fprintf(r.w, "Failed to create account for: %s, %s, %s\n", acct.Name, acct.Username, acct.Email)
	case r.verbose:
		_, err = fmt.Fprintf(r.w, "Created account for: %s, %s, %s, %s\n", acct.Name, acct.Username, acct.Email, acct.Password)
	}
	return err
}
