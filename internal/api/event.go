package api

// Server→client event names. Detail topics carry a payload; list rooms
// get a bare ping and receivers re-fetch.
const (
	EventShipmentUpdated        = "shipmentUpdated"
	EventShipmentsUpdated       = "shipments_updated"
	EventUsersUpdated           = "users_updated"
	EventBranchesUpdated        = "branches_updated"
	EventRatesUpdated           = "rates_updated"
	EventClientShipmentsUpdated = "client_shipments_updated"
)
