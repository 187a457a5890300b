package ledger

import (
	"errors"
)

var (
	ErrNotFound             = errors.New("wallet not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrPriceUnavailable     = errors.New("price unavailable")
	ErrValidationRejected   = errors.New("validation rejected")
	ErrDuplicateEmail       = errors.New("a user with this email address already exists")
)
