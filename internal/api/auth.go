package api

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"

	"github.com/tracknet-io/tracknet/internal/store"
	"github.com/tracknet-io/tracknet/pkg/topic"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin staff client"`
	BranchID *int64 `json:"branch_id"`
}

type userSummary struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (app *App) login() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req loginRequest
		if err := app.decode(r, &req); err != nil {
			app.writeError(w, http.StatusBadRequest, "Please provide email and password")
			return
		}

		user, err := app.store.UserByEmail(r.Context(), req.Email)
		if err != nil {
			app.writeError(w, http.StatusBadRequest, "Invalid credentials")
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			app.writeError(w, http.StatusBadRequest, "Invalid credentials")
			return
		}

		// single-session policy: the fresh id supersedes any prior one
		// and the old session's connections are told to log out
		sessionID, err := app.authority.Rotate(r.Context(), user.ID, user.ActiveSessionID)
		if err != nil {
			app.logger.Error().Err(err).Str("user", user.ID).Msg("rotate session")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		token, err := app.tokens.Issue(user.ID, user.Role, sessionID)
		if err != nil {
			app.logger.Error().Err(err).Str("user", user.ID).Msg("issue token")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		app.writeJSON(w, http.StatusOK, map[string]any{
			"token": token,
			"user": userSummary{
				ID:       user.ID,
				FullName: user.FullName,
				Email:    user.Email,
				Role:     user.Role,
			},
		})
	}
}

func (app *App) logout() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		user := userFrom(r)

		if err := app.authority.Revoke(r.Context(), user.ID); err != nil {
			app.logger.Error().Err(err).Str("user", user.ID).Msg("revoke session")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		app.writeJSON(w, http.StatusOK, map[string]string{"msg": "Logged out successfully"})
	}
}

func (app *App) register() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req registerRequest
		if err := app.decode(r, &req); err != nil {
			app.writeError(w, http.StatusBadRequest, "Please enter all fields")
			return
		}

		if _, err := app.store.UserByEmail(r.Context(), req.Email); err == nil {
			app.writeError(w, http.StatusBadRequest, "User with that email already exists")
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			app.logger.Error().Err(err).Msg("check existing user")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		role := req.Role
		if role == "" {
			role = store.RoleClient
		}

		// branch assignment only applies to staff accounts
		var branchID *int64
		if role == store.RoleStaff || role == store.RoleAdmin {
			branchID = req.BranchID
		}

		user := &store.User{
			FullName:     req.FullName,
			Email:        req.Email,
			PasswordHash: string(hash),
			Role:         role,
			BranchID:     branchID,
		}
		if err := app.store.CreateUser(r.Context(), user); err != nil {
			app.logger.Error().Err(err).Msg("create user")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		app.notifier.Notify(topic.UsersRoom(), EventUsersUpdated, nil)

		app.writeJSON(w, http.StatusCreated, map[string]any{
			"msg": "User registered successfully!",
			"user": userSummary{
				ID:       user.ID,
				FullName: user.FullName,
				Email:    user.Email,
				Role:     user.Role,
			},
		})
	}
}
