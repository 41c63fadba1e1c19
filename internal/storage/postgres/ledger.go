package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/IlyasAtabaev731/wallet/internal/domain/models"
	"github.com/IlyasAtabaev731/wallet/internal/storage"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const transactionSelect = `
	SELECT t.id, t.user_id, t.type, t.amount, t.reference_transaction_id, t.created_at,
	       COALESCE(t.counterparty_id, ''), COALESCE(u.name, ''), COALESCE(t.counterpart_id::text, '')
	FROM transactions t
	LEFT JOIN users u ON u.id = t.counterparty_id`

// scanTransaction maps a ledger row to the owner's view: the counterparty
// of an incoming transfer is the sender, of an outgoing one the recipient.
func scanTransaction(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	var (
		tx               models.Transaction
		ref              sql.NullString
		createdAt        time.Time
		counterpartyID   string
		counterpartyName string
	)
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &ref, &createdAt,
		&counterpartyID, &counterpartyName, &tx.CounterpartID)
	if err != nil {
		return nil, err
	}

	if ref.Valid {
		tx.ReferenceTransactionID = &ref.String
	}
	tx.CreatedAt = formatTime(createdAt)

	if tx.Type == models.TypeTransfer && counterpartyID != "" {
		if tx.Amount.IsPositive() {
			tx.SenderID, tx.SenderName = counterpartyID, counterpartyName
		} else {
			tx.RecipientID, tx.RecipientName = counterpartyID, counterpartyName
		}
	}

	return &tx, nil
}

func (s *Storage) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	const op = "storage.postgres.Balance"

	var balance decimal.Decimal
	err := s.db.QueryRowContext(ctx, "SELECT balance FROM users WHERE id = $1", userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	return balance, nil
}

func (s *Storage) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	const op = "storage.postgres.Deposit"

	var balance decimal.Decimal
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			"UPDATE users SET balance = balance + $1, updated_at = now() WHERE id = $2 RETURNING balance",
			amount, userID,
		).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}

		return insertTransaction(ctx, tx, ledgerRow{
			id: uuid.NewString(), userID: userID, kind: models.TypeDeposit, amount: amount,
		})
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	return balance, nil
}

func (s *Storage) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) (decimal.Decimal, error) {
	const op = "storage.postgres.Transfer"

	var balance decimal.Decimal
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		balances, err := lockBalances(ctx, tx, fromID, toID)
		if err != nil {
			return err
		}
		if balances[fromID].LessThan(amount) {
			return storage.ErrInsufficientFunds
		}

		if balance, err = addBalance(ctx, tx, fromID, amount.Neg()); err != nil {
			return err
		}
		if _, err = addBalance(ctx, tx, toID, amount); err != nil {
			return err
		}

		sentID, receivedID := uuid.NewString(), uuid.NewString()
		if err := insertTransaction(ctx, tx, ledgerRow{
			id: sentID, userID: fromID, kind: models.TypeTransfer, amount: amount.Neg(),
			counterpartyID: toID, counterpartID: receivedID,
		}); err != nil {
			return err
		}
		return insertTransaction(ctx, tx, ledgerRow{
			id: receivedID, userID: toID, kind: models.TypeTransfer, amount: amount,
			counterpartyID: fromID, counterpartID: sentID,
		})
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	return balance, nil
}

// Revert moves a sent transfer back from its recipient and records a
// REVERSAL row on both sides. The recipient must still hold the amount.
func (s *Storage) Revert(ctx context.Context, userID string, sent models.Transaction) (decimal.Decimal, error) {
	const op = "storage.postgres.Revert"

	recipientID := sent.RecipientID
	amount := sent.Amount.Abs()

	var balance decimal.Decimal
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		balances, err := lockBalances(ctx, tx, userID, recipientID)
		if err != nil {
			return err
		}
		if balances[recipientID].LessThan(amount) {
			return storage.ErrInsufficientFunds
		}

		if balance, err = addBalance(ctx, tx, userID, amount); err != nil {
			return err
		}
		if _, err = addBalance(ctx, tx, recipientID, amount.Neg()); err != nil {
			return err
		}

		senderRowID, recipientRowID := uuid.NewString(), uuid.NewString()
		if err := insertTransaction(ctx, tx, ledgerRow{
			id: senderRowID, userID: userID, kind: models.TypeReversal, amount: amount,
			referenceID: sent.ID, counterpartyID: recipientID, counterpartID: recipientRowID,
		}); err != nil {
			return err
		}
		return insertTransaction(ctx, tx, ledgerRow{
			id: recipientRowID, userID: recipientID, kind: models.TypeReversal, amount: amount.Neg(),
			referenceID: sent.CounterpartID, counterpartyID: userID, counterpartID: senderRowID,
		})
	})
	if isUniqueViolation(err) {
		return decimal.Zero, fmt.Errorf("%s: %w", op, storage.ErrAlreadyReverted)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	return balance, nil
}

func (s *Storage) GetTransaction(ctx context.Context, userID, txID string) (*models.Transaction, error) {
	const op = "storage.postgres.GetTransaction"

	tx, err := scanTransaction(s.db.QueryRowContext(ctx,
		transactionSelect+" WHERE t.id = $1 AND t.user_id = $2", txID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tx, nil
}

func (s *Storage) Reversals(ctx context.Context, userID string) ([]models.Transaction, error) {
	const op = "storage.postgres.Reversals"

	txs, err := s.queryTransactions(ctx,
		transactionSelect+" WHERE t.user_id = $1 AND t.type = $2", userID, models.TypeReversal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return txs, nil
}

// Transactions returns the user's ledger newest first and the total row count.
func (s *Storage) Transactions(ctx context.Context, userID string, offset, limit int) ([]models.Transaction, int, error) {
	const op = "storage.postgres.Transactions"

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE user_id = $1", userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	txs, err := s.queryTransactions(ctx,
		transactionSelect+" WHERE t.user_id = $1 ORDER BY t.created_at DESC, t.id LIMIT $2 OFFSET $3",
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return txs, total, nil
}

func (s *Storage) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	txs := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}

	return txs, rows.Err()
}

type ledgerRow struct {
	id             string
	userID         string
	kind           string
	amount         decimal.Decimal
	referenceID    string
	counterpartyID string
	counterpartID  string
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func insertTransaction(ctx context.Context, tx *sql.Tx, row ledgerRow) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, reference_transaction_id, counterparty_id, counterpart_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		row.id, row.userID, row.kind, row.amount,
		nullable(row.referenceID), nullable(row.counterpartyID), nullable(row.counterpartID),
	)
	return err
}

// lockBalances locks the given users in id order and returns their balances.
// Any missing user yields storage.ErrNotFound.
func lockBalances(ctx context.Context, tx *sql.Tx, ids ...string) (map[string]decimal.Decimal, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	rows, err := tx.QueryContext(ctx,
		"SELECT id, balance FROM users WHERE id = ANY($1) ORDER BY id FOR UPDATE", pq.Array(sorted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make(map[string]decimal.Decimal, len(ids))
	for rows.Next() {
		var (
			id      string
			balance decimal.Decimal
		)
		if err := rows.Scan(&id, &balance); err != nil {
			return nil, err
		}
		balances[id] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, ok := balances[id]; !ok {
			return nil, storage.ErrNotFound
		}
	}

	return balances, nil
}

func addBalance(ctx context.Context, tx *sql.Tx, userID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRowContext(ctx,
		"UPDATE users SET balance = balance + $1, updated_at = now() WHERE id = $2 RETURNING balance",
		delta, userID,
	).Scan(&balance)
	return balance, err
}
