package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IlyasAtabaev731/wallet/internal/domain/models"
	"github.com/IlyasAtabaev731/wallet/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	minAmount = decimal.New(1, -2)
	maxAmount = decimal.NewFromInt(1_000_000)
)

// Ledger is the persistence the wallet needs. Mutations must be atomic and
// return the caller's balance after the change.
type Ledger interface {
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error)
	Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) (decimal.Decimal, error)
	Revert(ctx context.Context, userID string, tx models.Transaction) (decimal.Decimal, error)
	GetTransaction(ctx context.Context, userID, txID string) (*models.Transaction, error)
	Reversals(ctx context.Context, userID string) ([]models.Transaction, error)
	Transactions(ctx context.Context, userID string, offset, limit int) ([]models.Transaction, int, error)
}

type Service struct {
	ledger Ledger
	logger *slog.Logger
}

func NewService(ledger Ledger, logger *slog.Logger) *Service {
	return &Service{ledger: ledger, logger: logger}
}

func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThan(minAmount) || amount.GreaterThan(maxAmount) || !amount.Equal(amount.Truncate(2)) {
		return ErrInvalidAmount
	}
	return nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func (s *Service) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	const op = "wallet.Balance"

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}
	return balance, nil
}

func (s *Service) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	const op = "wallet.Deposit"

	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	balance, err := s.ledger.Deposit(ctx, userID, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	s.logger.Info("Deposit", slog.String("user", userID), slog.String("amount", amount.StringFixed(2)))
	return balance, nil
}

func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) (decimal.Decimal, error) {
	const op = "wallet.Transfer"

	if err := validateID(toID); err != nil {
		return decimal.Zero, err
	}
	if fromID == toID {
		return decimal.Zero, ErrSameUser
	}
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	balance, err := s.ledger.Transfer(ctx, fromID, toID, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	s.logger.Info("Transfer",
		slog.String("from", fromID),
		slog.String("to", toID),
		slog.String("amount", amount.StringFixed(2)),
	)
	return balance, nil
}

// Revert cancels a transfer the user sent. Eligibility is decided by
// CanRevert against the reversals already in the user's ledger.
func (s *Service) Revert(ctx context.Context, userID, txID string) (decimal.Decimal, error) {
	const op = "wallet.Revert"

	if err := validateID(txID); err != nil {
		return decimal.Zero, err
	}

	tx, err := s.ledger.GetTransaction(ctx, userID, txID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	reversals, err := s.ledger.Reversals(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	if !CanRevert(*tx, userID, RevertedIDs(reversals)) || !tx.Amount.IsNegative() {
		return decimal.Zero, ErrNotRevertible
	}

	balance, err := s.ledger.Revert(ctx, userID, *tx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	s.logger.Info("Revert", slog.String("user", userID), slog.String("transaction", txID))
	return balance, nil
}

type Page struct {
	Transactions []View `json:"transactions"`
	Total        int    `json:"total"`
	Page         int    `json:"page"`
	Limit        int    `json:"limit"`
}

// Transactions returns one page of the user's ledger, newest first, with
// every row classified for the user. Reversals outside the page still count
// when deciding revertibility.
func (s *Service) Transactions(ctx context.Context, userID string, page, limit int) (Page, error) {
	const op = "wallet.Transactions"

	p := models.NewPagination(page, limit, 0)
	txs, total, err := s.ledger.Transactions(ctx, userID, (p.Page-1)*p.Limit, p.Limit)
	if err != nil {
		return Page{}, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	reversals, err := s.ledger.Reversals(ctx, userID)
	if err != nil {
		return Page{}, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	reverted := RevertedIDs(append(reversals, txs...))

	return Page{Transactions: Annotate(txs, userID, reverted), Total: total, Page: p.Page, Limit: p.Limit}, nil
}

func mapStorageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, storage.ErrInsufficientFunds):
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	case errors.Is(err, storage.ErrAlreadyReverted):
		return fmt.Errorf("%w: %w", ErrNotRevertible, err)
	}
	return err
}
