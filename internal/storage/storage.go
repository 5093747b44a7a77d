// Package storage persists the account record.
//
// Two repositories are provided: a line-oriented text file (the historic
// format) and SQLite. Both load and save the whole record at once.
package storage

import (
	"context"
	"errors"
	"fmt"

	"atm/internal/core"
)

var (
	// ErrNoState means nothing has been persisted yet.
	ErrNoState = errors.New("no persisted state")
	// ErrMalformed means a record exists but cannot be used.
	ErrMalformed = errors.New("malformed persisted state")
)

// Record is the persisted form of the account.
type Record struct {
	Pin     string
	Balance core.Money
	History []string
}

// AccountRepository loads and saves the account record.
type AccountRepository interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	Close() error
}

// RecordOf captures the current state of an account.
func RecordOf(a *core.Account) Record {
	rec := Record{Pin: a.Pin(), Balance: a.Balance(), History: make([]string, 0, a.Len())}
	for entry := range a.History() {
		rec.History = append(rec.History, entry)
	}
	return rec
}

// Account rebuilds the in-memory account from the record.
func (r Record) Account() *core.Account {
	return core.NewAccount(r.Pin, r.Balance, r.History)
}

// Validate checks the invariants a restored account must satisfy.
func (r Record) Validate() error {
	if err := core.CheckNewPin(r.Pin); err != nil {
		return fmt.Errorf("%w: pin shorter than %d characters", ErrMalformed, core.MinPinLength)
	}
	if r.Balance.Cents < 0 {
		return fmt.Errorf("%w: negative balance %s", ErrMalformed, r.Balance.Record())
	}
	return nil
}
