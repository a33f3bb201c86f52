package service

import "errors"

// Rejection errors: surfaced to the caller with no state change, safe to
// retry after correcting the condition.
var (
	ErrInsufficientFunds  = errors.New("insufficient available funds")
	ErrInvalidMarketState = errors.New("market is not accepting this operation")
	ErrInvalidOrderState  = errors.New("order is not in a cancellable state")
	ErrAlreadySettled     = errors.New("market already settled")
	ErrInvalidPrice       = errors.New("price must be in (0,1] with at most 6 decimal places")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidSide        = errors.New("side must be BUY or SELL")
	ErrInvalidOutcome     = errors.New("outcome must be YES or NO")
)

// Not-found errors.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrWalletNotFound = errors.New("wallet not found")
	ErrEventNotFound  = errors.New("event not found")
	ErrMarketNotFound = errors.New("market not found")
	ErrOrderNotFound  = errors.New("order not found")
)

// ErrInsufficientLockedFunds signals a bookkeeping bug, not a user
// condition: consume was asked for more than the wallet has locked. It
// aborts the enclosing transaction and is logged for operator attention.
var ErrInsufficientLockedFunds = errors.New("locked balance below consume amount")
