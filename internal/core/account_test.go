package core

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
)

func TestDefaultAccount(t *testing.T) {
	a := DefaultAccount()
	if a.Pin() != "1234" {
		t.Fatalf("pin = %q", a.Pin())
	}
	if a.Balance() != NewMoney(5000, 0) {
		t.Fatalf("balance = %s", a.Balance())
	}
	got := slices.Collect(a.History())
	want := []string{"Initial deposit: Rs. 5000.00"}
	if !slices.Equal(got, want) {
		t.Fatalf("history = %q, want %q", got, want)
	}
}

func TestWithdraw(t *testing.T) {
	a := DefaultAccount()
	if err := a.Withdraw(NewMoney(200, 0)); err != nil {
		t.Fatal(err)
	}
	if a.Balance() != NewMoney(4800, 0) {
		t.Fatalf("balance = %s, want Rs. 4800.00", a.Balance())
	}
	if a.Len() != 2 {
		t.Fatalf("history len = %d, want 2", a.Len())
	}
	last := slices.Collect(a.History())[a.Len()-1]
	if last != "Cash Withdrawal: Rs. 200.0" {
		t.Fatalf("last entry = %q", last)
	}

	// whole balance is allowed
	if err := a.Withdraw(NewMoney(4800, 0)); err != nil {
		t.Fatalf("withdraw full balance: %v", err)
	}
	if a.Balance().Cents != 0 {
		t.Fatalf("balance = %s, want zero", a.Balance())
	}
}

func TestWithdrawRejected(t *testing.T) {
	cases := []struct {
		name   string
		amount Money
		want   error
	}{
		{"more than balance", NewMoney(5000, 1), ErrInsufficientBalance},
		{"zero", Money{}, ErrInvalidAmount},
		{"negative", NewMoney(-10, 0), ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := DefaultAccount()
			before := slices.Collect(a.History())
			if err := a.Withdraw(tc.amount); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			if a.Balance() != DefaultBalance {
				t.Fatalf("balance changed to %s", a.Balance())
			}
			if !slices.Equal(before, slices.Collect(a.History())) {
				t.Fatal("history changed on rejected withdrawal")
			}
		})
	}
}

func TestInsufficientCheckedBeforeSign(t *testing.T) {
	a := NewAccount("1234", Money{}, nil)
	if err := a.CheckWithdrawal(Money{Cents: 1}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance, got %v", err)
	}
	if err := a.CheckWithdrawal(Money{}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
}

func TestDeposit(t *testing.T) {
	a := DefaultAccount()
	if err := a.Deposit(NewMoney(150, 50)); err != nil {
		t.Fatal(err)
	}
	if a.Balance() != NewMoney(5150, 50) {
		t.Fatalf("balance = %s", a.Balance())
	}
	last := slices.Collect(a.History())[a.Len()-1]
	if last != "Cash Deposit: Rs. 150.5" {
		t.Fatalf("last entry = %q", last)
	}

	for _, amt := range []Money{{}, {Cents: -1}} {
		if err := a.Deposit(amt); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: want ErrInvalidAmount, got %v", amt.Cents, err)
		}
	}
	if a.Balance() != NewMoney(5150, 50) || a.Len() != 2 {
		t.Fatalf("rejected deposit mutated account: %s, %d entries", a.Balance(), a.Len())
	}
}

func TestDepositCannotOverflowBalance(t *testing.T) {
	a := DefaultAccount()
	huge, err := ParseAmount("92233720368547758.07")
	if err != nil {
		t.Fatal(err)
	}

	if err := a.CheckDeposit(huge); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("CheckDeposit: want ErrInvalidAmount, got %v", err)
	}
	if err := a.Deposit(huge); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("Deposit: want ErrInvalidAmount, got %v", err)
	}
	if a.Balance() != DefaultBalance || a.Len() != 1 {
		t.Fatalf("rejected deposit mutated account: %s, %d entries", a.Balance(), a.Len())
	}

	// the largest amount that still fits is accepted
	room := Money{Cents: math.MaxInt64 - a.Balance().Cents}
	if err := a.Deposit(room); err != nil {
		t.Fatalf("Deposit up to the limit: %v", err)
	}
	if a.Balance().Cents != math.MaxInt64 {
		t.Fatalf("balance = %d", a.Balance().Cents)
	}
	if err := a.Deposit(Money{Cents: 1}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("one cent past the limit: want ErrInvalidAmount, got %v", err)
	}
}

func TestInquireIsRecorded(t *testing.T) {
	a := DefaultAccount()
	if got := a.Inquire(); got != DefaultBalance {
		t.Fatalf("Inquire = %s", got)
	}
	last := slices.Collect(a.History())[a.Len()-1]
	if last != "Balance Inquiry: Rs. 5000.0" {
		t.Fatalf("last entry = %q", last)
	}
}

func TestChangePin(t *testing.T) {
	a := DefaultAccount()

	if err := a.ChangePin("0000", "5678"); !errors.Is(err, ErrIncorrectPin) {
		t.Fatalf("want ErrIncorrectPin, got %v", err)
	}
	if err := a.ChangePin("1234", "567"); !errors.Is(err, ErrPinTooShort) {
		t.Fatalf("want ErrPinTooShort, got %v", err)
	}
	if a.Len() != 1 || !a.ValidatePin("1234") {
		t.Fatal("rejected pin change mutated account")
	}

	if err := a.ChangePin("1234", "987654"); err != nil {
		t.Fatal(err)
	}
	if a.ValidatePin("1234") {
		t.Fatal("old pin still accepted")
	}
	if !a.ValidatePin("987654") {
		t.Fatal("new pin rejected")
	}
	for entry := range a.History() {
		if strings.Contains(entry, "987654") {
			t.Fatalf("history leaks pin: %q", entry)
		}
	}
	last := slices.Collect(a.History())[a.Len()-1]
	if last != EntryPinChange {
		t.Fatalf("last entry = %q", last)
	}
}

func TestHistoryIsRestartableSnapshot(t *testing.T) {
	a := DefaultAccount()
	_ = a.Deposit(NewMoney(1, 0))
	seq := a.History()

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) || len(first) != 2 {
		t.Fatalf("sequence not restartable: %q vs %q", first, second)
	}

	_ = a.Deposit(NewMoney(2, 0))
	if got := slices.Collect(seq); len(got) != 2 {
		t.Fatalf("snapshot grew to %d entries", len(got))
	}

	// early stop must not panic
	for range a.History() {
		break
	}
}

func TestNewAccountCopiesHistory(t *testing.T) {
	src := []string{"a", "b"}
	a := NewAccount("1234", Money{}, src)
	src[0] = "mutated"
	if got := slices.Collect(a.History()); got[0] != "a" {
		t.Fatalf("history aliased caller slice: %q", got)
	}
}
