package api

import (
	"net/http"

	"github.com/IlyasAtabaev731/wallet/internal/domain/models"
	"github.com/gorilla/mux"
)

// createUserHandler is the explicit create-or-sync call. Callers may only
// sync their own subject.
func (s *APIServer) createUserHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateUserRequest
		if err := decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.UserID != identityFrom(r.Context()).Subject {
			writeError(w, http.StatusForbidden, "user_id does not match token subject")
			return
		}

		user, err := s.syncer.Create(r.Context(), req)
		if err != nil {
			s.fail(w, "Failed to create user", err)
			return
		}

		writeJSON(w, http.StatusCreated, user)
	}
}

func (s *APIServer) listUsersHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		p := models.NewPagination(queryInt(r, "page", 1), queryInt(r, "limit", 10), 0)

		users, total, err := s.users.ListUsers(r.Context(), (p.Page-1)*p.Limit, p.Limit)
		if err != nil {
			s.fail(w, "Failed to list users", err)
			return
		}
		if users == nil {
			users = []models.User{}
		}

		writeJSON(w, http.StatusOK, models.UsersPage{
			Users:      users,
			Pagination: models.NewPagination(p.Page, p.Limit, total),
		})
	}
}

func (s *APIServer) userHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.users.GetUser(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			s.fail(w, "Failed to get user", err)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

func (s *APIServer) userByEmailHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.users.GetUserByEmail(r.Context(), mux.Vars(r)["email"])
		if err != nil {
			s.fail(w, "Failed to get user by email", err)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}
