package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/IlyasAtabaev731/wallet/internal/domain/models"
	"github.com/IlyasAtabaev731/wallet/internal/identity"
)

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	identity.SignInResult
	User *models.User `json:"user,omitempty"`
}

type ConfirmRequest struct {
	Email            string `json:"email"`
	ConfirmationCode string `json:"confirmationCode"`
	NewPassword      string `json:"newPassword,omitempty"`
}

type MeResponse struct {
	identity.Identity
	User *models.User `json:"user"`
}

func (s *APIServer) signUpHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req identity.SignUpParams
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := s.provider.SignUp(r.Context(), req)
		if err != nil {
			s.fail(w, "Sign up failed", err)
			return
		}

		writeJSON(w, http.StatusCreated, res)
	}
}

func (s *APIServer) confirmSignUpHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConfirmRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := s.provider.ConfirmSignUp(r.Context(), req.Email, req.ConfirmationCode); err != nil {
			s.fail(w, "Confirm sign up failed", err)
			return
		}

		writeJSON(w, http.StatusOK, messageResponse{Message: "sign up confirmed"})
	}
}

// signInHandler authenticates with the provider and syncs the local user.
// A failed sync fails the sign-in.
func (s *APIServer) signInHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignInRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := s.provider.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			s.fail(w, "Sign in failed", err)
			return
		}
		if !res.SignedIn {
			writeJSON(w, http.StatusOK, SignInResponse{SignInResult: *res})
			return
		}

		id, err := s.provider.Verify(r.Context(), res.Tokens.IDToken)
		if err != nil {
			s.fail(w, "Issued token rejected", err)
			return
		}
		if id.Email == "" {
			id.Email = req.Email
		}

		user, err := s.syncer.Create(r.Context(), models.CreateUserRequest{UserID: id.Subject, Name: id.Name, Email: id.Email})
		if err != nil {
			s.logger.Error("Failed to sync user on sign in", slog.String("user", id.Subject), "error", err)
			writeError(w, http.StatusInternalServerError, "failed to sync user")
			return
		}

		writeJSON(w, http.StatusOK, SignInResponse{SignInResult: *res, User: user})
	}
}

func (s *APIServer) forgotPasswordHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConfirmRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := s.provider.ForgotPassword(r.Context(), req.Email); err != nil {
			s.fail(w, "Forgot password failed", err)
			return
		}

		writeJSON(w, http.StatusOK, messageResponse{Message: "confirmation code sent"})
	}
}

func (s *APIServer) confirmForgotPasswordHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConfirmRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		err := s.provider.ConfirmForgotPassword(r.Context(), req.Email, req.ConfirmationCode, req.NewPassword)
		if err != nil {
			s.fail(w, "Confirm forgot password failed", err)
			return
		}

		writeJSON(w, http.StatusOK, messageResponse{Message: "password updated"})
	}
}

func (s *APIServer) signOutHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identityFrom(r.Context())

		if err := s.provider.SignOut(r.Context(), tokenFrom(r.Context())); err != nil && !errors.Is(err, identity.ErrInvalidCredentials) {
			s.fail(w, "Sign out failed", err)
			return
		}
		s.syncer.Forget(r.Context(), id.Subject)

		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *APIServer) meHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, MeResponse{Identity: identityFrom(r.Context()), User: userFrom(r.Context())})
	}
}
