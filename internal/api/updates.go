package api

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/tracknet-io/tracknet/internal/store"
)

type statusUpdateRequest struct {
	ShipmentID   int64  `json:"shipment_id" validate:"required"`
	Location     string `json:"location"`
	StatusUpdate string `json:"status_update" validate:"required,oneof=pending in_transit delivered delayed"`
}

func (app *App) postUpdate() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req statusUpdateRequest
		if err := app.decode(r, &req); err != nil {
			app.writeError(w, http.StatusBadRequest, "Please provide shipment_id and status_update")
			return
		}

		update, err := app.store.AddShipmentUpdate(r.Context(), req.ShipmentID, req.Location, req.StatusUpdate)
		if errors.Is(err, store.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "Shipment not found")
			return
		}
		if err != nil {
			app.logger.Error().Err(err).Int64("shipment", req.ShipmentID).Msg("add update")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		updated, err := app.store.ShipmentByID(r.Context(), req.ShipmentID)
		if err != nil {
			app.logger.Error().Err(err).Int64("shipment", req.ShipmentID).Msg("load shipment")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		_, fullHistory, err := app.store.ShipmentByTracking(r.Context(), updated.TrackingNumber)
		if err != nil {
			app.logger.Error().Err(err).Int64("shipment", req.ShipmentID).Msg("load history")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		app.notifyShipmentChanged(updated, fullHistory)

		app.writeJSON(w, http.StatusCreated, update)
	}
}

func (app *App) updateHistory() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		history, err := app.store.HistoryByTracking(r.Context(), p.ByName("trackingNumber"))
		if err != nil {
			app.logger.Error().Err(err).Msg("load history")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		app.writeJSON(w, http.StatusOK, history)
	}
}
