package domain

import "fmt"

// Row is one parsed roster line: last name, first name, username, student id,
// followed by whatever else the export carries.
type Row []string

const minRowFields = 4

// Account is the GitLab account derived from a single roster row.
type Account struct {
	Name     string
	Username string
	Email    string
	Password string
}

// NewAccount maps a roster row onto an account. emailDomain is appended to
// the username as-is, so it normally starts with "@".
func NewAccount(row Row, emailDomain string) (Account, error) {
	if len(row) < minRowFields {
		return Account{}, fmt.Errorf("%w: row has %d fields, need at least %d", ErrMapping, len(row), minRowFields)
	}

	username := row[2]
	return Account{
		Name:     row[1] + " " + row[0],
		Username: username,
		Email:    username + emailDomain,
		// initial credential only; GitLab does not force a change on first login
		Password: username + row[3],
	}, nil
}

type OutcomeStatus string

const (
	OutcomeCreated OutcomeStatus = "created"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the result of one provisioning attempt.
type Outcome struct {
	Line    int
	Account Account
	Status  OutcomeStatus
	Err     error
}

func (o Outcome) Created() bool {
	return o.Status == OutcomeCreated
}
