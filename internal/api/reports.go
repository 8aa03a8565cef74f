package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *App) reportSummary() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		summary, err := app.store.Summary(r.Context())
		if err != nil {
			app.logger.Error().Err(err).Msg("report summary")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		app.writeJSON(w, http.StatusOK, summary)
	}
}
