package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/tracknet-io/tracknet/internal/store"
	"github.com/tracknet-io/tracknet/pkg/topic"
)

type branchRequest struct {
	BranchName    string `json:"branch_name" validate:"required"`
	BranchAddress string `json:"branch_address" validate:"required"`
	BranchPhone   string `json:"branch_phone"`
}

func (app *App) listBranches() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		branches, err := app.store.ListBranches(r.Context())
		if err != nil {
			app.logger.Error().Err(err).Msg("list branches")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		if branches == nil {
			branches = []store.Branch{}
		}
		app.writeJSON(w, http.StatusOK, branches)
	}
}

func (app *App) createBranch() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req branchRequest
		if err := app.decode(r, &req); err != nil {
			app.writeError(w, http.StatusBadRequest, "Branch name and address are required.")
			return
		}

		branch := &store.Branch{
			BranchName:    req.BranchName,
			BranchAddress: req.BranchAddress,
			BranchPhone:   req.BranchPhone,
		}
		if err := app.store.CreateBranch(r.Context(), branch); err != nil {
			app.logger.Error().Err(err).Msg("create branch")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		app.notifier.Notify(topic.BranchesRoom(), EventBranchesUpdated, nil)

		app.writeJSON(w, http.StatusCreated, branch)
	}
}

func (app *App) updateBranch() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := strconv.ParseInt(p.ByName("id"), 10, 64)
		if err != nil {
			app.writeError(w, http.StatusBadRequest, "Invalid branch id.")
			return
		}

		var req branchRequest
		if err := app.decode(r, &req); err != nil {
			app.writeError(w, http.StatusBadRequest, "Branch name and address are required.")
			return
		}

		branch := &store.Branch{
			ID:            id,
			BranchName:    req.BranchName,
			BranchAddress: req.BranchAddress,
			BranchPhone:   req.BranchPhone,
		}
		err = app.store.UpdateBranch(r.Context(), branch)
		if errors.Is(err, store.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "Branch not found.")
			return
		}
		if err != nil {
			app.logger.Error().Err(err).Int64("branch", id).Msg("update branch")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		app.notifier.Notify(topic.BranchesRoom(), EventBranchesUpdated, nil)

		app.writeJSON(w, http.StatusOK, branch)
	}
}

func (app *App) deleteBranch() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := strconv.ParseInt(p.ByName("id"), 10, 64)
		if err != nil {
			app.writeError(w, http.StatusBadRequest, "Invalid branch id.")
			return
		}

		err = app.store.DeleteBranch(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "Branch not found.")
			return
		}
		if err != nil {
			app.logger.Error().Err(err).Int64("branch", id).Msg("delete branch")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		app.notifier.Notify(topic.BranchesRoom(), EventBranchesUpdated, nil)

		app.writeJSON(w, http.StatusOK, map[string]string{"msg": "Branch removed."})
	}
}
