package api

import (
	"net/http"

	"github.com/IlyasAtabaev731/wallet/internal/domain/models"
)

func (s *APIServer) depositHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.DepositRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		balance, err := s.wallet.Deposit(r.Context(), userFrom(r.Context()).ID, req.Amount)
		if err != nil {
			s.fail(w, "Deposit failed", err)
			return
		}

		writeJSON(w, http.StatusOK, models.BalanceResponse{Message: "deposit completed", Balance: balance})
	}
}

func (s *APIServer) transferHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.TransferRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		balance, err := s.wallet.Transfer(r.Context(), userFrom(r.Context()).ID, req.ToUserID, req.Amount)
		if err != nil {
			s.fail(w, "Transfer failed", err)
			return
		}

		writeJSON(w, http.StatusOK, models.BalanceResponse{Message: "transfer completed", Balance: balance})
	}
}

func (s *APIServer) revertHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RevertRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		balance, err := s.wallet.Revert(r.Context(), userFrom(r.Context()).ID, req.TransactionID)
		if err != nil {
			s.fail(w, "Revert failed", err)
			return
		}

		writeJSON(w, http.StatusOK, models.BalanceResponse{Message: "transaction reverted", Balance: balance})
	}
}

func (s *APIServer) balanceHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := s.wallet.Balance(r.Context(), userFrom(r.Context()).ID)
		if err != nil {
			s.fail(w, "Balance failed", err)
			return
		}

		writeJSON(w, http.StatusOK, models.BalanceResponse{Balance: balance})
	}
}

func (s *APIServer) transactionsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.wallet.Transactions(r.Context(), userFrom(r.Context()).ID,
			queryInt(r, "page", 1), queryInt(r, "limit", 10))
		if err != nil {
			s.fail(w, "Transactions failed", err)
			return
		}

		writeJSON(w, http.StatusOK, page)
	}
}
