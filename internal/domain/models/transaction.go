package models

import "github.com/shopspring/decimal"

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	TypeDeposit  = "DEPOSIT"
	TypeTransfer = "TRANSFER"
	TypeReversal = "REVERSAL"
	TypeRevert   = "REVERT"
)

// Transaction is a ledger row as seen by its owner. Sender fields are set
// only on received transfers, recipient fields only on sent transfers.
type Transaction struct {
	ID                     string          `json:"id"`
	UserID                 string          `json:"userId"`
	Type                   string          `json:"type"`
	Amount                 decimal.Decimal `json:"amount"`
	ReferenceTransactionID *string         `json:"referenceTransactionId"`
	CreatedAt              string          `json:"createdAt"`
	SenderID               string          `json:"senderId,omitempty"`
	SenderName             string          `json:"senderName,omitempty"`
	RecipientID            string          `json:"recipientId,omitempty"`
	RecipientName          string          `json:"recipientName,omitempty"`
	CounterpartID          string          `json:"-"`
}

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type TransferRequest struct {
	ToUserID string          `json:"toUserId"`
	Amount   decimal.Decimal `json:"amount"`
}

type RevertRequest struct {
	TransactionID string `json:"transactionId"`
}

type BalanceResponse struct {
	Message string          `json:"message,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}
