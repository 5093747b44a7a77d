package core

import "errors"

// Policy rejections. They are expected outcomes of normal use and leave the
// account untouched.
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrIncorrectPin        = errors.New("incorrect pin")
	ErrPinTooShort         = errors.New("pin too short")
)

// ErrNotANumber is returned when an amount cannot be parsed.
var ErrNotANumber = errors.New("not a number")
