package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldSessionID      = "session_id"
	FieldOperation      = "operation"
	FieldState          = "state"
	FieldAttempt        = "attempt"
	FieldAmountCents    = "amount_cents"
	FieldBalanceCents   = "balance_cents"
	FieldHistoryEntries = "history_entries"
	FieldReason         = "reason"
	FieldBackend        = "backend"
	FieldPath           = "path"
	FieldError          = "error"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentSession = "session"
	ComponentAccount = "account"
	ComponentBackend = "backend"
	ComponentAudit   = "audit"
)

// Operations defines standard operation names
const (
	OpLoad         = "load"
	OpSave         = "save"
	OpAuthenticate = "authenticate"
	OpInquiry      = "balance_inquiry"
	OpWithdraw     = "withdraw"
	OpDeposit      = "deposit"
	OpChangePin    = "change_pin"
	OpPublish      = "publish"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithAmount adds the amount of a money operation
func (f LogFields) WithAmount(cents int64) LogFields {
	f[FieldAmountCents] = cents
	return f
}

// WithBalance adds the resulting balance
func (f LogFields) WithBalance(cents int64) LogFields {
	f[FieldBalanceCents] = cents
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
