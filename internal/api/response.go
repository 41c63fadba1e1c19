package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/IlyasAtabaev731/wallet/internal/identity"
	"github.com/IlyasAtabaev731/wallet/internal/storage"
	"github.com/IlyasAtabaev731/wallet/internal/wallet"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor maps domain errors to HTTP statuses; anything unknown is a 500
// and its message is not exposed.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrInvalidID),
		errors.Is(err, wallet.ErrSameUser),
		errors.Is(err, identity.ErrValidation),
		errors.Is(err, identity.ErrInvalidCode):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, identity.ErrUserNotConfirmed):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return http.StatusPaymentRequired, wallet.ErrInsufficientFunds.Error()
	case errors.Is(err, wallet.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, wallet.ErrNotRevertible):
		return http.StatusConflict, wallet.ErrNotRevertible.Error()
	case errors.Is(err, identity.ErrUserExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, identity.ErrUnsupported):
		return http.StatusNotImplemented, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func (s *APIServer) fail(w http.ResponseWriter, msg string, err error) {
	status, text := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(msg, "error", err)
	} else {
		s.logger.Debug(msg, "error", err)
	}
	writeError(w, status, text)
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}
