package api

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/tracknet-io/tracknet/internal/store"
	"github.com/tracknet-io/tracknet/pkg/topic"
)

type roleChangeRequest struct {
	Role     string `json:"role" validate:"required,oneof=admin staff client"`
	BranchID *int64 `json:"branch_id"`
}

func (app *App) listUsers() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		users, err := app.store.ListUsers(r.Context())
		if err != nil {
			app.logger.Error().Err(err).Msg("list users")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		if users == nil {
			users = []store.User{}
		}
		app.writeJSON(w, http.StatusOK, users)
	}
}

func (app *App) listClients() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		clients, err := app.store.ListClients(r.Context())
		if err != nil {
			app.logger.Error().Err(err).Msg("list clients")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		if clients == nil {
			clients = []store.User{}
		}
		app.writeJSON(w, http.StatusOK, clients)
	}
}

func (app *App) updateUserRole() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id := p.ByName("id")

		var req roleChangeRequest
		if err := app.decode(r, &req); err != nil {
			app.writeError(w, http.StatusBadRequest, "Invalid role specified.")
			return
		}

		if userFrom(r).ID == id {
			app.writeError(w, http.StatusBadRequest, "You cannot change your own role.")
			return
		}

		var branchID *int64
		if req.Role == store.RoleStaff || req.Role == store.RoleAdmin {
			branchID = req.BranchID
		}

		user, err := app.store.UpdateUserRole(r.Context(), id, req.Role, branchID)
		if errors.Is(err, store.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			app.logger.Error().Err(err).Str("user", id).Msg("update role")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		app.notifier.Notify(topic.UsersRoom(), EventUsersUpdated, nil)

		app.writeJSON(w, http.StatusOK, user)
	}
}

func (app *App) deleteUser() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id := p.ByName("id")

		if userFrom(r).ID == id {
			app.writeError(w, http.StatusBadRequest, "You cannot delete your own account.")
			return
		}

		err := app.store.DeleteUser(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			app.logger.Error().Err(err).Str("user", id).Msg("delete user")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		app.notifier.Notify(topic.UsersRoom(), EventUsersUpdated, nil)

		app.writeJSON(w, http.StatusOK, map[string]string{"msg": "User removed successfully"})
	}
}
