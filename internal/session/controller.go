// Package session runs one interactive ATM session: the PIN gate followed by
// the menu loop, reading commands from an input stream and writing the
// transcript to an output stream.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"atm/internal/core"
	applog "atm/internal/log"
)

// MaxPinAttempts is the number of wrong PINs tolerated before lock-out.
const MaxPinAttempts = 3

// ErrInputClosed means the input ended before the user chose Exit. Nothing is
// saved in that case.
var ErrInputClosed = errors.New("input closed")

// State is the position of a session in its lifecycle.
type State int

const (
	AwaitingPin State = iota
	Authenticated
	Locked
	Closed
)

func (s State) String() string {
	switch s {
	case AwaitingPin:
		return "awaiting_pin"
	case Authenticated:
		return "authenticated"
	case Locked:
		return "locked"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Account is what the controller needs from the account store.
type Account interface {
	ValidatePin(candidate string) bool
	BalanceInquiry() core.Money
	CheckWithdrawal(amount core.Money) error
	Withdraw(amount core.Money) error
	CheckDeposit(amount core.Money) error
	Deposit(amount core.Money) error
	CheckNewPin(proposed string) error
	ChangePin(current, proposed string) error
	History() iter.Seq[string]
	Save(ctx context.Context) error
}

// Menu options
const (
	optBalance = iota + 1
	optWithdraw
	optDeposit
	optChangePin
	optHistory
	optExit
)

const menu = `
ATM Machine Menu:
1. Balance Inquiry
2. Cash Withdrawal
3. Cash Deposit
4. Change PIN
5. Transaction History
6. Exit
Choose an option: `

// Controller drives a single session. It is not safe for concurrent use.
type Controller struct {
	account Account
	in      *bufio.Reader
	out     io.Writer
	logger  *applog.Logger
	state   State
}

func NewController(account Account, in io.Reader, out io.Writer, logger *applog.Logger) *Controller {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Controller{
		account: account,
		in:      bufio.NewReader(in),
		out:     out,
		logger:  logger.WithComponent(applog.ComponentSession),
		state:   AwaitingPin,
	}
}

// State returns the current state of the session.
func (c *Controller) State() State { return c.state }

// Run executes the session until Exit, lock-out or end of input and returns
// the final state. The account is saved only when the user chooses Exit.
func (c *Controller) Run(ctx context.Context) (State, error) {
	if err := c.authenticate(ctx); err != nil {
		return c.state, err
	}
	if c.state == Locked {
		return c.state, nil
	}

	if err := c.menuLoop(ctx); err != nil {
		return c.state, err
	}

	if err := c.account.Save(ctx); err != nil {
		c.println("Error saving state to file.")
	}
	return c.state, nil
}

func (c *Controller) authenticate(ctx context.Context) error {
	for attempt := 1; attempt <= MaxPinAttempts; attempt++ {
		c.print("Enter your PIN: ")
		pin, err := c.readLine()
		if err != nil {
			return err
		}

		if c.account.ValidatePin(pin) {
			c.println("PIN Verified. Welcome!")
			c.transition(ctx, Authenticated)
			return nil
		}

		c.logger.InfoContext(ctx, "Incorrect PIN",
			applog.FieldOperation, applog.OpAuthenticate,
			applog.FieldAttempt, attempt)
		c.println("Incorrect PIN. Attempts remaining: " + strconv.Itoa(MaxPinAttempts-attempt))
	}

	c.println("Too many incorrect attempts. Exiting...")
	c.transition(ctx, Locked)
	return nil
}

func (c *Controller) menuLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.print(menu)
		token, err := c.readToken()
		if err != nil {
			return err
		}
		choice, err := strconv.Atoi(token)
		if err != nil {
			c.println("Invalid input. Please enter a number.")
			continue
		}

		switch choice {
		case optBalance:
			c.balanceInquiry()
		case optWithdraw:
			err = c.withdraw()
		case optDeposit:
			err = c.deposit()
		case optChangePin:
			err = c.changePin()
		case optHistory:
			c.showHistory()
		case optExit:
			c.println("Thank you for using the ATM. Goodbye!")
			c.transition(ctx, Closed)
			return nil
		default:
			c.println("Invalid option. Please choose a valid menu option.")
		}
		if err != nil {
			return err
		}
	}
}

func (c *Controller) balanceInquiry() {
	balance := c.account.BalanceInquiry()
	c.println("Your current balance is: " + balance.String())
}

func (c *Controller) withdraw() error {
	c.print("Enter amount to withdraw: " + core.CurrencyPrefix)
	amount, ok, err := c.readAmount()
	if err != nil || !ok {
		return err
	}

	if err := c.account.CheckWithdrawal(amount); err != nil {
		c.printRejection(err)
		return nil
	}

	c.print("Are you sure you want to withdraw " + amount.String() + "? (yes/no): ")
	yes, err := c.confirm()
	if err != nil {
		return err
	}
	if !yes {
		c.println("Withdrawal cancelled.")
		return nil
	}
	if err := c.account.Withdraw(amount); err != nil {
		c.printRejection(err)
		return nil
	}
	c.println("Withdrawal successful. Amount withdrawn: " + amount.String())
	return nil
}

func (c *Controller) deposit() error {
	c.print("Enter amount to deposit: " + core.CurrencyPrefix)
	amount, ok, err := c.readAmount()
	if err != nil || !ok {
		return err
	}

	if err := c.account.CheckDeposit(amount); err != nil {
		c.printRejection(err)
		return nil
	}

	c.print("Are you sure you want to deposit " + amount.String() + "? (yes/no): ")
	yes, err := c.confirm()
	if err != nil {
		return err
	}
	if !yes {
		c.println("Deposit cancelled.")
		return nil
	}
	if err := c.account.Deposit(amount); err != nil {
		c.printRejection(err)
		return nil
	}
	c.println("Deposit successful. Amount deposited: " + amount.String())
	return nil
}

func (c *Controller) changePin() error {
	c.print("Enter current PIN: ")
	current, err := c.readLine()
	if err != nil {
		return err
	}
	if !c.account.ValidatePin(current) {
		c.println("Incorrect current PIN.")
		return nil
	}

	c.print("Enter new PIN: ")
	proposed, err := c.readLine()
	if err != nil {
		return err
	}
	if err := c.account.CheckNewPin(proposed); err != nil {
		c.println("PIN must be at least 4 digits.")
		return nil
	}

	c.print("Are you sure you want to change the PIN? (yes/no): ")
	yes, err := c.confirm()
	if err != nil {
		return err
	}
	if !yes {
		c.println("PIN change cancelled.")
		return nil
	}
	if err := c.account.ChangePin(current, proposed); err != nil {
		c.printRejection(err)
		return nil
	}
	c.println("PIN changed successfully.")
	return nil
}

func (c *Controller) showHistory() {
	empty := true
	for entry := range c.account.History() {
		if empty {
			c.println("\nTransaction History:")
			empty = false
		}
		c.println(entry)
	}
	if empty {
		c.println("No transactions recorded.")
	}
}

func (c *Controller) printRejection(err error) {
	switch {
	case errors.Is(err, core.ErrInsufficientBalance):
		c.println("Insufficient balance. Transaction cancelled.")
	case errors.Is(err, core.ErrInvalidAmount):
		c.println("Invalid amount. Please enter a positive value.")
	case errors.Is(err, core.ErrIncorrectPin):
		c.println("Incorrect current PIN.")
	case errors.Is(err, core.ErrPinTooShort):
		c.println("PIN must be at least 4 digits.")
	default:
		c.println("Transaction failed.")
	}
}

func (c *Controller) transition(ctx context.Context, to State) {
	c.logger.DebugContext(ctx, "Session state changed", applog.FieldState, to.String())
	c.state = to
}

// confirm reads one line; only "yes" in any letter case is affirmative.
func (c *Controller) confirm() (bool, error) {
	line, err := c.readLine()
	if err != nil {
		return false, err
	}
	return strings.EqualFold(line, "yes"), nil
}

// readAmount reads an amount. ok is false when the input was not a number;
// the user has been told and the rest of the line is discarded.
func (c *Controller) readAmount() (amount core.Money, ok bool, err error) {
	token, err := c.readToken()
	if err != nil {
		return core.Money{}, false, err
	}
	amount, err = core.ParseAmount(token)
	if err != nil {
		c.println("Invalid input. Please enter a numeric value.")
		return core.Money{}, false, nil
	}
	return amount, true, nil
}

// readToken returns the first whitespace-separated token of the next
// non-blank line. The rest of that line is dropped.
func (c *Controller) readToken() (string, error) {
	for {
		line, err := c.readLine()
		if err != nil {
			return "", err
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			return fields[0], nil
		}
	}
}

// readLine returns the next line without its terminator. A final line
// lacking a newline is still returned.
func (c *Controller) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read input: %w", err)
		}
		if line == "" {
			return "", ErrInputClosed
		}
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

func (c *Controller) print(s string) {
	io.WriteString(c.out, s)
}

func (c *Controller) println(s string) {
	io.WriteString(c.out, s+"\n")
}
