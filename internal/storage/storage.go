package storage

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUserExists        = errors.New("user already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyReverted   = errors.New("transaction already reverted")
)
