package services

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"atm/internal/amqp"
	"atm/internal/core"
	applog "atm/internal/log"
	"atm/internal/storage"
)

// Publisher receives a summary once a session's state has been saved.
type Publisher interface {
	PublishSessionSummary(ctx context.Context, msg *amqp.SessionSummaryMessage) error
}

// AccountService owns the in-memory account for one session and moves it
// between the repository and the session.
type AccountService struct {
	repo      storage.AccountRepository
	publisher Publisher
	logger    *applog.Logger
	sessionID string

	account *core.Account
	// loaded is the number of history entries present before the session began.
	loaded int
}

// NewAccountService returns a service holding the default account until Load
// is called. publisher may be nil.
func NewAccountService(repo storage.AccountRepository, publisher Publisher, logger *applog.Logger, sessionID string) *AccountService {
	if logger == nil {
		logger = applog.Discard()
	}
	account := core.DefaultAccount()
	return &AccountService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentAccount),
		sessionID: sessionID,
		account:   account,
		loaded:    account.Len(),
	}
}

// Load restores the persisted account. Any failure falls back to the full
// default state; restored reports whether persisted state was used.
func (s *AccountService) Load(ctx context.Context) (restored bool) {
	rec, err := s.load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNoState) {
			s.logger.InfoContext(ctx, "No persisted state, using defaults", applog.FieldOperation, applog.OpLoad)
		} else {
			s.logger.WarnContext(ctx, "Persisted state unusable, using defaults",
				applog.NewFields().WithOperation(applog.OpLoad).WithError(err).ToSlice()...)
		}
		s.reset(core.DefaultAccount())
		return false
	}

	s.reset(rec.Account())
	s.logger.InfoContext(ctx, "Restored persisted state",
		applog.FieldOperation, applog.OpLoad,
		applog.FieldBalanceCents, rec.Balance.Cents,
		applog.FieldHistoryEntries, len(rec.History))
	return true
}

func (s *AccountService) load(ctx context.Context) (storage.Record, error) {
	if s.repo == nil {
		return storage.Record{}, storage.ErrNoState
	}
	rec, err := s.repo.Load(ctx)
	if err != nil {
		return storage.Record{}, err
	}
	if err := rec.Validate(); err != nil {
		return storage.Record{}, err
	}
	return rec, nil
}

func (s *AccountService) reset(a *core.Account) {
	s.account = a
	s.loaded = a.Len()
}

// Save writes the whole account back to the repository and, on success,
// publishes a summary of the entries added during this session. Publishing
// failures are logged only.
func (s *AccountService) Save(ctx context.Context) error {
	if s.repo == nil {
		return fmt.Errorf("save state: no repository")
	}

	rec := storage.RecordOf(s.account)
	if err := s.repo.Save(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save state",
			applog.NewFields().WithOperation(applog.OpSave).WithError(err).ToSlice()...)
		return fmt.Errorf("save state: %w", err)
	}
	s.logger.InfoContext(ctx, "State saved",
		applog.FieldOperation, applog.OpSave,
		applog.FieldBalanceCents, rec.Balance.Cents,
		applog.FieldHistoryEntries, len(rec.History))

	s.publishSummary(ctx, rec)
	return nil
}

func (s *AccountService) publishSummary(ctx context.Context, rec storage.Record) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not available, skipping session summary")
		return
	}

	var added []string
	if s.loaded < len(rec.History) {
		added = rec.History[s.loaded:]
	}
	msg := amqp.NewSessionSummaryMessage(s.sessionID, rec.Balance.Cents, added)
	if err := s.publisher.PublishSessionSummary(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish session summary",
			applog.NewFields().WithOperation(applog.OpPublish).WithError(err).ToSlice()...)
	}
}

// ValidatePin reports whether candidate is the account PIN.
func (s *AccountService) ValidatePin(candidate string) bool {
	return s.account.ValidatePin(candidate)
}

// Balance returns the balance without recording an inquiry.
func (s *AccountService) Balance() core.Money {
	return s.account.Balance()
}

// BalanceInquiry returns the balance and records the inquiry.
func (s *AccountService) BalanceInquiry() core.Money {
	balance := s.account.Inquire()
	s.logger.Debug("Balance inquiry", applog.FieldOperation, applog.OpInquiry, applog.FieldBalanceCents, balance.Cents)
	return balance
}

func (s *AccountService) CheckWithdrawal(amount core.Money) error {
	return s.account.CheckWithdrawal(amount)
}

func (s *AccountService) Withdraw(amount core.Money) error {
	if err := s.account.Withdraw(amount); err != nil {
		s.logRejected(applog.OpWithdraw, amount, err)
		return err
	}
	s.logger.Info("Withdrawal",
		applog.NewFields().WithOperation(applog.OpWithdraw).WithAmount(amount.Cents).WithBalance(s.account.Balance().Cents).ToSlice()...)
	return nil
}

func (s *AccountService) CheckDeposit(amount core.Money) error {
	return s.account.CheckDeposit(amount)
}

func (s *AccountService) Deposit(amount core.Money) error {
	if err := s.account.Deposit(amount); err != nil {
		s.logRejected(applog.OpDeposit, amount, err)
		return err
	}
	s.logger.Info("Deposit",
		applog.NewFields().WithOperation(applog.OpDeposit).WithAmount(amount.Cents).WithBalance(s.account.Balance().Cents).ToSlice()...)
	return nil
}

// CheckNewPin reports whether proposed is acceptable as a PIN.
func (s *AccountService) CheckNewPin(proposed string) error {
	return core.CheckNewPin(proposed)
}

// ChangePin replaces the PIN. Neither PIN is ever logged.
func (s *AccountService) ChangePin(current, proposed string) error {
	if err := s.account.ChangePin(current, proposed); err != nil {
		s.logger.Info("PIN change rejected", applog.FieldOperation, applog.OpChangePin, applog.FieldReason, err.Error())
		return err
	}
	s.logger.Info("PIN changed", applog.FieldOperation, applog.OpChangePin)
	return nil
}

// History returns the transaction history in insertion order.
func (s *AccountService) History() iter.Seq[string] {
	return s.account.History()
}

func (s *AccountService) logRejected(op string, amount core.Money, err error) {
	s.logger.Info("Transaction rejected",
		applog.FieldOperation, op,
		applog.FieldAmountCents, amount.Cents,
		applog.FieldReason, err.Error())
}
