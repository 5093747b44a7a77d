// Package core holds the ATM account and the policy checks its operations go
// through. Amounts are integer cents.
package core

import (
	"iter"
	"math"
	"unicode/utf8"
)

// MinPinLength is the shortest PIN an account accepts.
const MinPinLength = 4

// Defaults used when no persisted state can be restored.
const (
	DefaultPin = "1234"
)

// DefaultBalance is the opening balance of a fresh account.
var DefaultBalance = NewMoney(5000, 0)

// History entry labels.
const (
	EntryInitialDeposit = "Initial deposit: "
	EntryBalanceInquiry = "Balance Inquiry: "
	EntryWithdrawal     = "Cash Withdrawal: "
	EntryDeposit        = "Cash Deposit: "
	EntryPinChange      = "PIN Change"
)

// Account is the single ATM account: PIN, balance and an append-only history.
// Every mutating method either updates balance and history together or
// leaves the account unchanged.
type Account struct {
	pin     string
	balance Money
	history []string
}

// NewAccount restores an account from persisted values. The history slice is
// copied.
func NewAccount(pin string, balance Money, history []string) *Account {
	return &Account{
		pin:     pin,
		balance: balance,
		history: append([]string(nil), history...),
	}
}

// DefaultAccount returns the state used on first run or when the persisted
// record is unusable.
func DefaultAccount() *Account {
	return NewAccount(DefaultPin, DefaultBalance, []string{
		EntryInitialDeposit + DefaultBalance.String(),
	})
}

// Pin returns the stored PIN. Only storage should need it.
func (a *Account) Pin() string { return a.pin }

// Balance returns the current balance without recording anything.
func (a *Account) Balance() Money { return a.balance }

// Len returns the number of history entries.
func (a *Account) Len() int { return len(a.history) }

// ValidatePin reports whether candidate equals the stored PIN exactly.
func (a *Account) ValidatePin(candidate string) bool {
	return a.pin == candidate
}

// Inquire returns the balance and records the inquiry in the history.
func (a *Account) Inquire() Money {
	a.history = append(a.history, EntryBalanceInquiry+CurrencyPrefix+a.balance.Record())
	return a.balance
}

// CheckWithdrawal reports why amount cannot be withdrawn, or nil.
// Insufficient balance is checked before the sign of the amount.
func (a *Account) CheckWithdrawal(amount Money) error {
	if amount.Cents > a.balance.Cents {
		return ErrInsufficientBalance
	}
	return amount.Validate()
}

// Withdraw takes amount out of the account.
func (a *Account) Withdraw(amount Money) error {
	if err := a.CheckWithdrawal(amount); err != nil {
		return err
	}
	a.balance = a.balance.Sub(amount)
	a.history = append(a.history, EntryWithdrawal+CurrencyPrefix+amount.Record())
	return nil
}

// CheckDeposit reports why amount cannot be deposited, or nil. Amounts that
// would overflow the balance are invalid.
func (a *Account) CheckDeposit(amount Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if amount.Cents > math.MaxInt64-a.balance.Cents {
		return ErrInvalidAmount
	}
	return nil
}

// Deposit adds amount to the account.
func (a *Account) Deposit(amount Money) error {
	if err := a.CheckDeposit(amount); err != nil {
		return err
	}
	a.balance = a.balance.Add(amount)
	a.history = append(a.history, EntryDeposit+CurrencyPrefix+amount.Record())
	return nil
}

// CheckNewPin reports ErrPinTooShort when proposed is shorter than MinPinLength characters.
func CheckNewPin(proposed string) error {
	if utf8.RuneCountInString(proposed) < MinPinLength {
		return ErrPinTooShort
	}
	return nil
}

// ChangePin replaces the PIN. The history only records that a change happened.
func (a *Account) ChangePin(current, proposed string) error {
	if !a.ValidatePin(current) {
		return ErrIncorrectPin
	}
	if err := CheckNewPin(proposed); err != nil {
		return err
	}
	a.pin = proposed
	a.history = append(a.history, EntryPinChange)
	return nil
}

// History yields the entries in insertion order. Each range over the returned
// sequence starts from the first entry; entries appended after History was
// called are not included.
func (a *Account) History() iter.Seq[string] {
	snapshot := a.history[:len(a.history):len(a.history)]
	return func(yield func(string) bool) {
		for _, entry := range snapshot {
			if !yield(entry) {
				return
			}
		}
	}
}
