package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/tracknet-io/tracknet/internal/store"
	"github.com/tracknet-io/tracknet/pkg/topic"
)

type createShipmentRequest struct {
	ClientID            string  `json:"client_id" validate:"required"`
	OriginBranchID      int64   `json:"origin_branch_id" validate:"required"`
	DestinationBranchID int64   `json:"destination_branch_id" validate:"required"`
	EstimatedDelivery   string  `json:"estimated_delivery"`
	WeightKg            float64 `json:"weight_kg" validate:"required,gt=0"`
	ServiceType         string  `json:"service_type" validate:"required"`
	SenderName          string  `json:"sender_name" validate:"required"`
	SenderPhone         string  `json:"sender_phone"`
	ReceiverName        string  `json:"receiver_name" validate:"required"`
	ReceiverPhone       string  `json:"receiver_phone"`
	IsCOD               bool    `json:"is_cod"`
	CODAmount           float64 `json:"cod_amount" validate:"gte=0"`
}

type updateShipmentRequest struct {
	ClientID            *string  `json:"client_id"`
	OriginBranchID      *int64   `json:"origin_branch_id"`
	DestinationBranchID *int64   `json:"destination_branch_id"`
	Status              *string  `json:"status" validate:"omitempty,oneof=pending in_transit delivered delayed"`
	EstimatedDelivery   *string  `json:"estimated_delivery"`
	WeightKg            *float64 `json:"weight_kg" validate:"omitempty,gt=0"`
	ServiceType         *string  `json:"service_type"`
	SenderName          *string  `json:"sender_name"`
	SenderPhone         *string  `json:"sender_phone"`
	ReceiverName        *string  `json:"receiver_name"`
	ReceiverPhone       *string  `json:"receiver_phone"`
	IsCOD               *bool    `json:"is_cod"`
	CODAmount           *float64 `json:"cod_amount"`

	// optional status history entry recorded alongside the edit
	Location            string `json:"location"`
	StatusUpdateMessage string `json:"status_update_message"`
}

type shipmentUpdatePayload struct {
	Shipment *store.Shipment        `json:"shipment"`
	History  []store.ShipmentUpdate `json:"history"`
}

func newTrackingNumber() (string, error) {
	digits, err := gonanoid.Generate("0123456789", 10)
	if err != nil {
		return "", err
	}

	return "TK" + digits, nil
}

// notifyShipmentChanged pushes the full payload to the detail topics and
// pings the staff list room.
func (app *App) notifyShipmentChanged(sh *store.Shipment, history []store.ShipmentUpdate) {
	payload := shipmentUpdatePayload{Shipment: sh, History: history}

	if name, err := topic.Tracking(sh.TrackingNumber); err == nil {
		app.notifier.Notify(name, EventShipmentUpdated, payload)
	}
	app.notifier.Notify(topic.Client(sh.ClientID), EventShipmentUpdated, payload)
	app.notifier.Notify(topic.ShipmentsRoom(), EventShipmentsUpdated, nil)
}

func (app *App) listShipments() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		query := r.URL.Query()
		page, _ := strconv.Atoi(query.Get("page"))
		limit, _ := strconv.Atoi(query.Get("limit"))

		result, err := app.store.ListShipments(r.Context(), page, limit, query.Get("searchTerm"))
		if err != nil {
			app.logger.Error().Err(err).Msg("list shipments")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		app.writeJSON(w, http.StatusOK, result)
	}
}

func (app *App) shipmentStats() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		app.stats(w, r, "")
	}
}

func (app *App) myStats() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		app.stats(w, r, userFrom(r).ID)
	}
}

func (app *App) stats(w http.ResponseWriter, r *http.Request, clientID string) {
	stats, err := app.store.ShipmentStats(r.Context(), clientID)
	if err != nil {
		app.logger.Error().Err(err).Msg("shipment stats")
		app.writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}

	app.writeJSON(w, http.StatusOK, stats)
}

func (app *App) recentActivity() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		entries, err := app.store.RecentActivity(r.Context())
		if err != nil {
			app.logger.Error().Err(err).Msg("recent activity")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		if entries == nil {
			entries = []store.Activity{}
		}
		app.writeJSON(w, http.StatusOK, entries)
	}
}

func (app *App) myShipments() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		shipments, err := app.store.ClientShipments(r.Context(), userFrom(r).ID)
		if err != nil {
			app.logger.Error().Err(err).Msg("client shipments")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		app.writeJSON(w, http.StatusOK, shipments)
	}
}

func (app *App) trackShipment() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		shipment, history, err := app.store.ShipmentByTracking(r.Context(), p.ByName("trackingNumber"))
		if errors.Is(err, store.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "Shipment not found")
			return
		}
		if err != nil {
			app.logger.Error().Err(err).Msg("track shipment")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		app.writeJSON(w, http.StatusOK, shipmentUpdatePayload{Shipment: shipment, History: history})
	}
}

func (app *App) getShipment() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := strconv.ParseInt(p.ByName("id"), 10, 64)
		if err != nil {
			app.writeError(w, http.StatusBadRequest, "Invalid shipment id.")
			return
		}

		shipment, err := app.store.ShipmentByID(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "Shipment not found")
			return
		}
		if err != nil {
			app.logger.Error().Err(err).Int64("shipment", id).Msg("get shipment")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		user := userFrom(r)
		if user.Role != store.RoleAdmin && user.Role != store.RoleStaff && user.ID != shipment.ClientID {
			app.writeError(w, http.StatusForbidden, "User not authorized to view this shipment")
			return
		}

		app.writeJSON(w, http.StatusOK, shipment)
	}
}

func (app *App) createShipment() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req createShipmentRequest
		if err := app.decode(r, &req); err != nil {
			app.writeError(w, http.StatusBadRequest, "Please fill out all required fields.")
			return
		}

		price, err := app.store.PriceFor(r.Context(), req.ServiceType, req.WeightKg)
		if err != nil {
			app.logger.Error().Err(err).Msg("price shipment")
			app.writeError(w, http.StatusInternalServerError, "Server error: Could not create shipment.")
			return
		}

		trackingNumber, err := newTrackingNumber()
		if err != nil {
			app.writeError(w, http.StatusInternalServerError, "Server error: Could not create shipment.")
			return
		}

		shipment := &store.Shipment{
			TrackingNumber:      trackingNumber,
			ClientID:            req.ClientID,
			OriginBranchID:      req.OriginBranchID,
			DestinationBranchID: req.DestinationBranchID,
			EstimatedDelivery:   req.EstimatedDelivery,
			WeightKg:            req.WeightKg,
			ServiceType:         req.ServiceType,
			Price:               price,
			SenderName:          req.SenderName,
			SenderPhone:         req.SenderPhone,
			ReceiverName:        req.ReceiverName,
			ReceiverPhone:       req.ReceiverPhone,
			IsCOD:               req.IsCOD,
			CODAmount:           req.CODAmount,
		}
		if err := app.store.CreateShipment(r.Context(), shipment); err != nil {
			app.logger.Error().Err(err).Msg("create shipment")
			app.writeError(w, http.StatusInternalServerError, "Server error: Could not create shipment.")
			return
		}

		app.notifier.Notify(topic.ShipmentsRoom(), EventShipmentsUpdated, nil)
		app.notifier.Notify(topic.Client(shipment.ClientID), EventClientShipmentsUpdated, nil)

		app.writeJSON(w, http.StatusCreated, shipment)
	}
}

func (app *App) updateShipment() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := strconv.ParseInt(p.ByName("id"), 10, 64)
		if err != nil {
			app.writeError(w, http.StatusBadRequest, "Invalid shipment id.")
			return
		}

		var req updateShipmentRequest
		if err := app.decode(r, &req); err != nil {
			app.writeError(w, http.StatusBadRequest, "Invalid shipment update.")
			return
		}

		current, err := app.store.ShipmentByID(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "Shipment not found")
			return
		}
		if err != nil {
			app.logger.Error().Err(err).Int64("shipment", id).Msg("load shipment")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		changes := &store.ShipmentChanges{
			ClientID:            req.ClientID,
			OriginBranchID:      req.OriginBranchID,
			DestinationBranchID: req.DestinationBranchID,
			Status:              req.Status,
			EstimatedDelivery:   req.EstimatedDelivery,
			WeightKg:            req.WeightKg,
			ServiceType:         req.ServiceType,
			SenderName:          req.SenderName,
			SenderPhone:         req.SenderPhone,
			ReceiverName:        req.ReceiverName,
			ReceiverPhone:       req.ReceiverPhone,
			IsCOD:               req.IsCOD,
			CODAmount:           req.CODAmount,
		}

		if req.WeightKg != nil || req.ServiceType != nil {
			price, err := app.recalculatePrice(r.Context(), current, req.WeightKg, req.ServiceType)
			if err != nil {
				app.logger.Error().Err(err).Int64("shipment", id).Msg("recalculate price")
				app.writeError(w, http.StatusInternalServerError, "Server Error")
				return
			}
			changes.Price = &price
		}

		shipment, err := app.store.UpdateShipment(r.Context(), id, changes)
		if err != nil {
			app.logger.Error().Err(err).Int64("shipment", id).Msg("update shipment")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		if req.StatusUpdateMessage != "" && req.Location != "" {
			// free-text note only; the status column is driven by the
			// validated status field above
			if _, err := app.store.AddHistoryEntry(r.Context(), id, req.Location, req.StatusUpdateMessage); err != nil {
				app.logger.Error().Err(err).Int64("shipment", id).Msg("record status update")
				app.writeError(w, http.StatusInternalServerError, "Server Error")
				return
			}
			// re-read so the response and push carry the entry just added
			shipment, err = app.store.ShipmentByID(r.Context(), id)
			if err != nil {
				app.writeError(w, http.StatusInternalServerError, "Server Error")
				return
			}
		}

		_, history, err := app.store.ShipmentByTracking(r.Context(), shipment.TrackingNumber)
		if err != nil {
			app.logger.Error().Err(err).Int64("shipment", id).Msg("load history")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		app.notifyShipmentChanged(shipment, history)

		app.writeJSON(w, http.StatusOK, shipment)
	}
}

func (app *App) recalculatePrice(ctx context.Context, current *store.Shipment, weightKg *float64, serviceType *string) (float64, error) {
	weight := current.WeightKg
	if weightKg != nil {
		weight = *weightKg
	}

	service := current.ServiceType
	if serviceType != nil {
		service = *serviceType
	}

	return app.store.PriceFor(ctx, service, weight)
}

func (app *App) deleteShipment() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := strconv.ParseInt(p.ByName("id"), 10, 64)
		if err != nil {
			app.writeError(w, http.StatusBadRequest, "Invalid shipment id.")
			return
		}

		clientID, err := app.store.DeleteShipment(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			app.writeError(w, http.StatusNotFound, "Shipment not found")
			return
		}
		if err != nil {
			app.logger.Error().Err(err).Int64("shipment", id).Msg("delete shipment")
			app.writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}

		app.notifier.Notify(topic.ShipmentsRoom(), EventShipmentsUpdated, nil)
		if clientID != "" {
			app.notifier.Notify(topic.Client(clientID), EventClientShipmentsUpdated, nil)
		}

		app.writeJSON(w, http.StatusOK, map[string]string{"msg": "Shipment removed"})
	}
}
