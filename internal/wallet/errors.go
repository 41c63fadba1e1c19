package wallet

import "errors"

var (
	ErrInvalidAmount     = errors.New("amount must be between 0.01 and 1000000.00 with at most two decimals")
	ErrInvalidID         = errors.New("invalid id")
	ErrSameUser          = errors.New("cannot transfer to yourself")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrNotRevertible     = errors.New("transaction cannot be reverted")
)
