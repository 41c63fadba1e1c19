package wallet

import (
	"strings"

	"github.com/IlyasAtabaev731/wallet/internal/domain/models"
)

// Flow tells whether a transaction reads as money in or money out for the
// viewing user. Both can be false; both are never true.
type Flow struct {
	IsIncome  bool `json:"isIncome"`
	IsOutcome bool `json:"isOutcome"`
}

// View is a transaction annotated for one viewer.
type View struct {
	models.Transaction
	Label string `json:"label"`
	Flow
	CanRevert bool `json:"canRevert"`
}

func normType(tx models.Transaction) string {
	return strings.ToUpper(tx.Type)
}

// TypeLabel returns the display label of tx for viewerID. Unknown types are
// returned as stored.
func TypeLabel(tx models.Transaction, viewerID string) string {
	switch normType(tx) {
	case models.TypeTransfer:
		if IsReceivedTransfer(tx, viewerID) {
			return "transfer received from " + tx.SenderName
		}
		if tx.RecipientID != "" && tx.RecipientName != "" {
			return "transfer to " + tx.RecipientName
		}
		return "Transfer"
	case models.TypeDeposit:
		return "Deposit"
	case models.TypeReversal:
		return "Reverted transfer"
	}
	return tx.Type
}

// IsReceivedTransfer reports whether tx is a transfer someone else sent to viewerID.
func IsReceivedTransfer(tx models.Transaction, viewerID string) bool {
	return normType(tx) == models.TypeTransfer &&
		tx.SenderID != "" && tx.SenderID != viewerID && tx.SenderName != ""
}

// IsDeposit reports whether tx is a deposit.
func IsDeposit(tx models.Transaction) bool {
	return normType(tx) == models.TypeDeposit
}

// IsReversal accepts both REVERSAL and REVERT.
func IsReversal(tx models.Transaction) bool {
	t := normType(tx)
	return t == models.TypeReversal || t == models.TypeRevert
}

// ClassifyFlow decides income and outcome for viewerID from the amount sign.
func ClassifyFlow(tx models.Transaction, viewerID string) Flow {
	income := IsReceivedTransfer(tx, viewerID) || (IsDeposit(tx) && tx.Amount.IsPositive())
	return Flow{
		IsIncome:  income,
		IsOutcome: !income && tx.Amount.IsNegative(),
	}
}

// RevertedIDs collects the ids referenced by reversal transactions.
func RevertedIDs(txs []models.Transaction) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, tx := range txs {
		if IsReversal(tx) && tx.ReferenceTransactionID != nil && *tx.ReferenceTransactionID != "" {
			ids[*tx.ReferenceTransactionID] = struct{}{}
		}
	}
	return ids
}

// CanRevert reports whether viewerID may still revert tx.
func CanRevert(tx models.Transaction, viewerID string, reverted map[string]struct{}) bool {
	if IsReversal(tx) || IsDeposit(tx) {
		return false
	}
	if _, ok := reverted[tx.ID]; ok {
		return false
	}
	return !IsReceivedTransfer(tx, viewerID)
}

// Annotate builds the viewer's View of every transaction. reverted is
// usually RevertedIDs over the user's reversals.
func Annotate(txs []models.Transaction, viewerID string, reverted map[string]struct{}) []View {
	views := make([]View, 0, len(txs))
	for _, tx := range txs {
		views = append(views, View{
			Transaction: tx,
			Label:       TypeLabel(tx, viewerID),
			Flow:        ClassifyFlow(tx, viewerID),
			CanRevert:   CanRevert(tx, viewerID, reverted),
		})
	}
	return views
}
