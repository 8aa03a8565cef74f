package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/tracknet-io/tracknet/internal/store"
	"github.com/tracknet-io/tracknet/pkg/topic"
)

type rateRequest struct {
	ServiceName string  `json:"service_name" validate:"required"`
	BaseRate    float64 `json:"base_rate" validate:"gte=0"`
}

func (app *App) listRates() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		rates, err := app.store.ListRates(r.Context())
		if err != nil {
			app.logger.Error().Err(err).Msg("list rates")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		if rates == nil {
			rates = []store.Rate{}
		}
		app.writeJSON(w, http.StatusOK, rates)
	}
}

func (app *App) createRate() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req rateRequest
		if err := app.decode(r, &req); err != nil {
			app.writeError(w, http.StatusBadRequest, "Service name and base rate are required.")
			return
		}

		rate := &store.Rate{ServiceName: req.ServiceName, BaseRate: req.BaseRate}
		if err := app.store.CreateRate(r.Context(), rate); err != nil {
			app.logger.Error().Err(err).Msg("create rate")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		app.notifier.Notify(topic.RatesRoom(), EventRatesUpdated, nil)

		app.writeJSON(w, http.StatusCreated, rate)
	}
}

func (app *App) updateRate() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := strconv.ParseInt(p.ByName("id"), 10, 64)
		if err != nil {
			app.writeError(w, http.StatusBadRequest, "Invalid rate id.")
			return
		}

		var req rateRequest
		if err := app.decode(r, &req); err != nil {
			app.writeError(w, http.StatusBadRequest, "Service name and base rate are required.")
			return
		}

		rate := &store.Rate{ID: id, ServiceName: req.ServiceName, BaseRate: req.BaseRate}
		err = app.store.UpdateRate(r.Context(), rate)
		if errors.Is(err, store.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "Rate not found.")
			return
		}
		if err != nil {
			app.logger.Error().Err(err).Int64("rate", id).Msg("update rate")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		app.notifier.Notify(topic.RatesRoom(), EventRatesUpdated, nil)

		app.writeJSON(w, http.StatusOK, rate)
	}
}

func (app *App) deleteRate() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := strconv.ParseInt(p.ByName("id"), 10, 64)
		if err != nil {
			app.writeError(w, http.StatusBadRequest, "Invalid rate id.")
			return
		}

		err = app.store.DeleteRate(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "Rate not found.")
			return
		}
		if err != nil {
			app.logger.Error().Err(err).Int64("rate", id).Msg("delete rate")
			app.writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		app.notifier.Notify(topic.RatesRoom(), EventRatesUpdated, nil)

		app.writeJSON(w, http.StatusOK, map[string]string{"msg": "Rate removed."})
	}
}
