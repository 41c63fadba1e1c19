package wallet

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/IlyasAtabaev731/wallet/internal/domain/models"
	"github.com/IlyasAtabaev731/wallet/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger keeps owner-view rows per user and mirrors the postgres
// storage semantics closely enough for the service rules.
type fakeLedger struct {
	balances map[string]decimal.Decimal
	names    map[string]string
	rows     map[string][]models.Transaction
	calls    int
}

func newFakeLedger(users map[string]string) *fakeLedger {
	l := &fakeLedger{
		balances: make(map[string]decimal.Decimal),
		names:    users,
		rows:     make(map[string][]models.Transaction),
	}
	for id := range users {
		l.balances[id] = decimal.Zero
	}
	return l
}

func (l *fakeLedger) add(userID string, tx models.Transaction) {
	tx.UserID = userID
	l.rows[userID] = append([]models.Transaction{tx}, l.rows[userID]...)
}

func (l *fakeLedger) Balance(_ context.Context, userID string) (decimal.Decimal, error) {
	b, ok := l.balances[userID]
	if !ok {
		return decimal.Zero, storage.ErrNotFound
	}
	return b, nil
}

func (l *fakeLedger) Deposit(_ context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	l.calls++
	if _, ok := l.balances[userID]; !ok {
		return decimal.Zero, storage.ErrNotFound
	}
	l.balances[userID] = l.balances[userID].Add(amount)
	l.add(userID, models.Transaction{ID: uuid.NewString(), Type: models.TypeDeposit, Amount: amount})
	return l.balances[userID], nil
}

func (l *fakeLedger) Transfer(_ context.Context, fromID, toID string, amount decimal.Decimal) (decimal.Decimal, error) {
	l.calls++
	if _, ok := l.balances[toID]; !ok {
		return decimal.Zero, storage.ErrNotFound
	}
	if l.balances[fromID].LessThan(amount) {
		return decimal.Zero, storage.ErrInsufficientFunds
	}
	sentID, receivedID := uuid.NewString(), uuid.NewString()
	l.balances[fromID] = l.balances[fromID].Sub(amount)
	l.balances[toID] = l.balances[toID].Add(amount)
	l.add(fromID, models.Transaction{ID: sentID, Type: models.TypeTransfer, Amount: amount.Neg(),
		RecipientID: toID, RecipientName: l.names[toID], CounterpartID: receivedID})
	l.add(toID, models.Transaction{ID: receivedID, Type: models.TypeTransfer, Amount: amount,
		SenderID: fromID, SenderName: l.names[fromID], CounterpartID: sentID})
	return l.balances[fromID], nil
}

func (l *fakeLedger) Revert(_ context.Context, userID string, sent models.Transaction) (decimal.Decimal, error) {
	l.calls++
	a := sent.Amount.Abs()
	if l.balances[sent.RecipientID].LessThan(a) {
		return decimal.Zero, storage.ErrInsufficientFunds
	}
	l.balances[userID] = l.balances[userID].Add(a)
	l.balances[sent.RecipientID] = l.balances[sent.RecipientID].Sub(a)
	sentRef, receivedRef := sent.ID, sent.CounterpartID
	l.add(userID, models.Transaction{ID: uuid.NewString(), Type: models.TypeReversal, Amount: a, ReferenceTransactionID: &sentRef})
	l.add(sent.RecipientID, models.Transaction{ID: uuid.NewString(), Type: models.TypeReversal, Amount: a.Neg(), ReferenceTransactionID: &receivedRef})
	return l.balances[userID], nil
}

func (l *fakeLedger) GetTransaction(_ context.Context, userID, txID string) (*models.Transaction, error) {
	for _, tx := range l.rows[userID] {
		if tx.ID == txID {
			return &tx, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (l *fakeLedger) Reversals(_ context.Context, userID string) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range l.rows[userID] {
		if tx.Type == models.TypeReversal {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (l *fakeLedger) Transactions(_ context.Context, userID string, offset, limit int) ([]models.Transaction, int, error) {
	rows := l.rows[userID]
	if offset >= len(rows) {
		return []models.Transaction{}, len(rows), nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end], len(rows), nil
}

var (
	alice = "0b7e5b8e-3c36-4c37-9a35-1b0a7d2a0001"
	bob   = "0b7e5b8e-3c36-4c37-9a35-1b0a7d2a0002"
)

func newTestService() (*Service, *fakeLedger) {
	ledger := newFakeLedger(map[string]string{alice: "Alice", bob: "Bob"})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(ledger, logger), ledger
}

func TestValidateAmount(t *testing.T) {
	for _, v := range []string{"0.01", "1", "999999.99", "1000000", "12.5"} {
		assert.NoError(t, ValidateAmount(amount(v)), v)
	}
	for _, v := range []string{"0", "-1", "0.001", "1000000.01", "10.123"} {
		assert.ErrorIs(t, ValidateAmount(amount(v)), ErrInvalidAmount, v)
	}
}

func TestDeposit(t *testing.T) {
	svc, ledger := newTestService()
	ctx := context.Background()

	balance, err := svc.Deposit(ctx, alice, amount("150.25"))
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("150.25")))

	_, err = svc.Deposit(ctx, alice, amount("-10"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, 1, ledger.calls)

	_, err = svc.Deposit(ctx, "ghost", amount("10"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransfer(t *testing.T) {
	svc, ledger := newTestService()
	ctx := context.Background()

	_, err := svc.Deposit(ctx, alice, amount("100"))
	require.NoError(t, err)

	balance, err := svc.Transfer(ctx, alice, bob, amount("40"))
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("60")))
	assert.True(t, ledger.balances[bob].Equal(amount("40")))

	_, err = svc.Transfer(ctx, alice, bob, amount("61"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = svc.Transfer(ctx, alice, alice, amount("1"))
	assert.ErrorIs(t, err, ErrSameUser)

	_, err = svc.Transfer(ctx, alice, "bob", amount("1"))
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = svc.Transfer(ctx, alice, uuid.NewString(), amount("1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRevert(t *testing.T) {
	svc, ledger := newTestService()
	ctx := context.Background()

	_, err := svc.Deposit(ctx, alice, amount("100"))
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, alice, bob, amount("30"))
	require.NoError(t, err)

	sent := ledger.rows[alice][0]
	received := ledger.rows[bob][0]
	deposit := ledger.rows[alice][1]

	balance, err := svc.Revert(ctx, alice, sent.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("100")))
	assert.True(t, ledger.balances[bob].IsZero())

	_, err = svc.Revert(ctx, alice, sent.ID)
	assert.ErrorIs(t, err, ErrNotRevertible, "already reverted")

	_, err = svc.Revert(ctx, alice, deposit.ID)
	assert.ErrorIs(t, err, ErrNotRevertible, "deposit")

	_, err = svc.Revert(ctx, alice, ledger.rows[alice][0].ID)
	assert.ErrorIs(t, err, ErrNotRevertible, "reversal")

	_, err = svc.Revert(ctx, bob, received.ID)
	assert.ErrorIs(t, err, ErrNotRevertible, "received transfer")

	_, err = svc.Revert(ctx, bob, sent.ID)
	assert.ErrorIs(t, err, ErrNotFound, "someone else's transaction")

	_, err = svc.Revert(ctx, alice, "nope")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestRevertNeedsRecipientFunds(t *testing.T) {
	svc, ledger := newTestService()
	ctx := context.Background()

	_, err := svc.Deposit(ctx, alice, amount("50"))
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, alice, bob, amount("50"))
	require.NoError(t, err)
	sent := ledger.rows[alice][0]

	_, err = svc.Transfer(ctx, bob, alice, amount("20"))
	require.NoError(t, err)

	_, err = svc.Revert(ctx, alice, sent.ID)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
}

func TestTransactionsAnnotatesAcrossPages(t *testing.T) {
	svc, ledger := newTestService()
	ctx := context.Background()

	_, err := svc.Deposit(ctx, alice, amount("100"))
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, alice, bob, amount("10"))
	require.NoError(t, err)
	sent := ledger.rows[alice][0]
	_, err = svc.Revert(ctx, alice, sent.ID)
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, alice, bob, amount("5"))
	require.NoError(t, err)

	// alice: [transfer 5, reversal, transfer 10, deposit]
	page, err := svc.Transactions(ctx, alice, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, sent.ID, page.Transactions[0].ID)
	assert.False(t, page.Transactions[0].CanRevert)
	assert.Equal(t, "Deposit", page.Transactions[1].Label)

	first, err := svc.Transactions(ctx, alice, 1, 2)
	require.NoError(t, err)
	require.Len(t, first.Transactions, 2)
	assert.True(t, first.Transactions[0].CanRevert)
	assert.Equal(t, "transfer to Bob", first.Transactions[0].Label)

	bobPage, err := svc.Transactions(ctx, bob, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, bobPage.Page)
	assert.Equal(t, 10, bobPage.Limit)
	for _, v := range bobPage.Transactions {
		assert.False(t, v.CanRevert, v.Label)
	}
	assert.Equal(t, "transfer received from Alice", bobPage.Transactions[0].Label)
	assert.True(t, bobPage.Transactions[0].IsIncome)
}
