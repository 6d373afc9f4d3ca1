package service

import "errors"

// Validation errors: bad input, nothing changed.
var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidAddress = errors.New("invalid wallet address")
	ErrInvalidTxHash  = errors.New("invalid transaction hash")
	ErrUnknownPlan    = errors.New("unknown plan")
	ErrUnknownCrypto  = errors.New("unsupported crypto type")
	ErrBelowMinimum   = errors.New("amount below minimum withdrawal")
)

// Conflict errors: expected, user-triggerable, nothing changed.
var (
	ErrAlreadyMining        = errors.New("mining session already active")
	ErrNoActiveSession      = errors.New("no active mining session")
	ErrDuplicateTransaction = errors.New("transaction hash already used")
	ErrInsufficientBalance  = errors.New("insufficient balance")
)

// Storage-level sentinels shared by every store implementation.
var (
	// ErrDuplicateIdempotencyKey means the effect was already applied;
	// callers treat it as success, it never reaches the end user.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
	ErrNotFound                = errors.New("not found")
)

// IsValidation reports whether err is caller input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrInvalidTxHash) ||
		errors.Is(err, ErrUnknownPlan) ||
		errors.Is(err, ErrUnknownCrypto) ||
		errors.Is(err, ErrBelowMinimum)
}

// IsConflict reports whether err is an expected state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyMining) ||
		errors.Is(err, ErrNoActiveSession) ||
		errors.Is(err, ErrDuplicateTransaction) ||
		errors.Is(err, ErrInsufficientBalance)
}
