package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusPending   = "pending"
	StatusInTransit = "in_transit"
	StatusDelivered = "delivered"
	StatusDelayed   = "delayed"
)

type Shipment struct {
	ID                  int64     `json:"id"`
	TrackingNumber      string    `json:"tracking_number"`
	ClientID            string    `json:"client_id"`
	OriginBranchID      int64     `json:"origin_branch_id"`
	DestinationBranchID int64     `json:"destination_branch_id"`
	Status              string    `json:"status"`
	EstimatedDelivery   string    `json:"estimated_delivery,omitempty"`
	WeightKg            float64   `json:"weight_kg"`
	ServiceType         string    `json:"service_type"`
	Price               float64   `json:"price"`
	SenderName          string    `json:"sender_name"`
	SenderPhone         string    `json:"sender_phone,omitempty"`
	ReceiverName        string    `json:"receiver_name"`
	ReceiverPhone       string    `json:"receiver_phone,omitempty"`
	IsCOD               bool      `json:"is_cod"`
	CODAmount           float64   `json:"cod_amount"`
	CreatedAt           time.Time `json:"created_at"`

	OriginBranchName         string `json:"origin_branch_name,omitempty"`
	OriginBranchAddress      string `json:"origin_branch_address,omitempty"`
	DestinationBranchName    string `json:"destination_branch_name,omitempty"`
	DestinationBranchAddress string `json:"destination_branch_address,omitempty"`
}

type ShipmentUpdate struct {
	ID           int64     `json:"id"`
	ShipmentID   int64     `json:"shipment_id"`
	Location     string    `json:"location"`
	StatusUpdate string    `json:"status_update"`
	Timestamp    time.Time `json:"timestamp"`
}

type ShipmentPage struct {
	Shipments  []Shipment `json:"shipments"`
	TotalCount int        `json:"totalCount"`
	TotalPages int        `json:"totalPages"`
}

type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	InTransit int `json:"inTransit"`
	Delivered int `json:"delivered"`
	Delayed   int `json:"delayed"`
}

type Activity struct {
	ID             int64     `json:"id"`
	StatusUpdate   string    `json:"status_update"`
	Location       string    `json:"location"`
	Timestamp      time.Time `json:"timestamp"`
	TrackingNumber string    `json:"tracking_number"`
}

// ShipmentChanges carries a partial update; nil fields are left untouched.
type ShipmentChanges struct {
	ClientID            *string
	OriginBranchID      *int64
	DestinationBranchID *int64
	Status              *string
	EstimatedDelivery   *string
	WeightKg            *float64
	ServiceType         *string
	Price               *float64
	SenderName          *string
	SenderPhone         *string
	ReceiverName        *string
	ReceiverPhone       *string
	IsCOD               *bool
	CODAmount           *float64
}

const shipmentColumns = `
	s.id, s.tracking_number, s.client_id, s.origin_branch_id, s.destination_branch_id,
	s.status, s.estimated_delivery, s.weight_kg, s.service_type, s.price,
	s.sender_name, s.sender_phone, s.receiver_name, s.receiver_phone,
	s.is_cod, s.cod_amount, s.created_at`

const shipmentJoinedColumns = shipmentColumns + `,
	COALESCE(origin.branch_name, ''), COALESCE(origin.branch_address, ''),
	COALESCE(dest.branch_name, ''), COALESCE(dest.branch_address, '')`

const shipmentJoins = `
	LEFT JOIN branches origin ON s.origin_branch_id = origin.id
	LEFT JOIN branches dest ON s.destination_branch_id = dest.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(row rowScanner, joined bool) (*Shipment, error) {
	var sh Shipment

	dest := []any{
		&sh.ID, &sh.TrackingNumber, &sh.ClientID, &sh.OriginBranchID, &sh.DestinationBranchID,
		&sh.Status, &sh.EstimatedDelivery, &sh.WeightKg, &sh.ServiceType, &sh.Price,
		&sh.SenderName, &sh.SenderPhone, &sh.ReceiverName, &sh.ReceiverPhone,
		&sh.IsCOD, &sh.CODAmount, &sh.CreatedAt,
	}
	if joined {
		dest = append(dest,
			&sh.OriginBranchName, &sh.OriginBranchAddress,
			&sh.DestinationBranchName, &sh.DestinationBranchAddress,
		)
	}

	err := row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning shipment: %w", err)
	}

	return &sh, nil
}

// CreateShipment inserts the shipment and its initial status update in
// one transaction. The first update is located at the origin branch.
func (s *Store) CreateShipment(ctx context.Context, sh *Shipment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	sh.Status = StatusPending
	sh.CreatedAt = time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO shipments (
			tracking_number, client_id, origin_branch_id, destination_branch_id,
			status, estimated_delivery, weight_kg, service_type, price,
			sender_name, sender_phone, receiver_name, receiver_phone,
			is_cod, cod_amount, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sh.TrackingNumber, sh.ClientID, sh.OriginBranchID, sh.DestinationBranchID,
		sh.Status, sh.EstimatedDelivery, sh.WeightKg, sh.ServiceType, sh.Price,
		sh.SenderName, sh.SenderPhone, sh.ReceiverName, sh.ReceiverPhone,
		sh.IsCOD, sh.CODAmount, sh.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting shipment: %w", err)
	}

	sh.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	location := "Origin Facility"
	var address string
	err = tx.QueryRowContext(ctx, `SELECT branch_address FROM branches WHERE id = ?`, sh.OriginBranchID).Scan(&address)
	if err == nil {
		location = address
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("looking up origin branch: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO shipment_updates (shipment_id, location, status_update)
		VALUES (?, ?, ?)`,
		sh.ID, location, "Shipment created and pending pickup.")
	if err != nil {
		return fmt.Errorf("inserting initial update: %w", err)
	}

	return tx.Commit()
}

// ListShipments returns one page of shipments, newest first, optionally
// filtered by a search term over tracking number and party names/phones.
func (s *Store) ListShipments(ctx context.Context, page, limit int, searchTerm string) (*ShipmentPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var where string
	var params []any
	if searchTerm != "" {
		pattern := "%" + searchTerm + "%"
		where = `WHERE s.tracking_number LIKE ? OR s.sender_name LIKE ? OR s.receiver_name LIKE ?
			OR s.sender_phone LIKE ? OR s.receiver_phone LIKE ?`
		params = []any{pattern, pattern, pattern, pattern, pattern}
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shipments s `+where, params...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting shipments: %w", err)
	}

	query := `SELECT ` + shipmentJoinedColumns + ` FROM shipments s ` + shipmentJoins + ` ` + where +
		` ORDER BY s.created_at DESC, s.id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(params, limit, (page-1)*limit)...)
	if err != nil {
		return nil, fmt.Errorf("listing shipments: %w", err)
	}
	defer rows.Close()

	result := &ShipmentPage{
		Shipments:  []Shipment{},
		TotalCount: total,
		TotalPages: (total + limit - 1) / limit,
	}
	for rows.Next() {
		sh, err := scanShipment(rows, true)
		if err != nil {
			return nil, err
		}
		result.Shipments = append(result.Shipments, *sh)
	}

	return result, rows.Err()
}

// ShipmentStats aggregates status counts; an empty clientID means all
// shipments, otherwise only the client's own.
func (s *Store) ShipmentStats(ctx context.Context, clientID string) (*Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'in_transit' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'delivered' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'delayed' THEN 1 ELSE 0 END), 0)
		FROM shipments`

	var params []any
	if clientID != "" {
		query += ` WHERE client_id = ?`
		params = append(params, clientID)
	}

	var st Stats
	err := s.db.QueryRowContext(ctx, query, params...).
		Scan(&st.Total, &st.Pending, &st.InTransit, &st.Delivered, &st.Delayed)
	if err != nil {
		return nil, fmt.Errorf("aggregating stats: %w", err)
	}

	return &st, nil
}

// RecentActivity returns the five newest status updates across all
// shipments.
func (s *Store) RecentActivity(ctx context.Context) ([]Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT su.id, su.status_update, su.location, su.timestamp, s.tracking_number
		FROM shipment_updates su
		JOIN shipments s ON su.shipment_id = s.id
		ORDER BY su.timestamp DESC, su.id DESC
		LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("listing recent activity: %w", err)
	}
	defer rows.Close()

	var entries []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.StatusUpdate, &a.Location, &a.Timestamp, &a.TrackingNumber); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		entries = append(entries, a)
	}

	return entries, rows.Err()
}

func (s *Store) ClientShipments(ctx context.Context, clientID string) ([]Shipment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shipmentJoinedColumns+` FROM shipments s `+shipmentJoins+
			` WHERE s.client_id = ? ORDER BY s.created_at DESC, s.id DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("listing client shipments: %w", err)
	}
	defer rows.Close()

	shipments := []Shipment{}
	for rows.Next() {
		sh, err := scanShipment(rows, true)
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, *sh)
	}

	return shipments, rows.Err()
}

// ShipmentByTracking returns the shipment and its status history, newest
// update first.
func (s *Store) ShipmentByTracking(ctx context.Context, trackingNumber string) (*Shipment, []ShipmentUpdate, error) {
	sh, err := scanShipment(s.db.QueryRowContext(ctx,
		`SELECT `+shipmentJoinedColumns+` FROM shipments s `+shipmentJoins+
			` WHERE s.tracking_number = ?`, trackingNumber), true)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.history(ctx, sh.ID)
	if err != nil {
		return nil, nil, err
	}

	return sh, history, nil
}

func (s *Store) ShipmentByID(ctx context.Context, id int64) (*Shipment, error) {
	return scanShipment(s.db.QueryRowContext(ctx,
		`SELECT `+shipmentJoinedColumns+` FROM shipments s `+shipmentJoins+
			` WHERE s.id = ?`, id), true)
}

func (s *Store) history(ctx context.Context, shipmentID int64) ([]ShipmentUpdate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shipment_id, location, status_update, timestamp
		FROM shipment_updates WHERE shipment_id = ?
		ORDER BY timestamp DESC, id DESC`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	updates := []ShipmentUpdate{}
	for rows.Next() {
		var u ShipmentUpdate
		if err := rows.Scan(&u.ID, &u.ShipmentID, &u.Location, &u.StatusUpdate, &u.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning update row: %w", err)
		}
		updates = append(updates, u)
	}

	return updates, rows.Err()
}

// HistoryByTracking returns the update history for a tracking number,
// oldest first.
func (s *Store) HistoryByTracking(ctx context.Context, trackingNumber string) ([]ShipmentUpdate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT su.id, su.shipment_id, su.location, su.status_update, su.timestamp
		FROM shipment_updates su
		JOIN shipments s ON su.shipment_id = s.id
		WHERE s.tracking_number = ?
		ORDER BY su.timestamp ASC, su.id ASC`, trackingNumber)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	updates := []ShipmentUpdate{}
	for rows.Next() {
		var u ShipmentUpdate
		if err := rows.Scan(&u.ID, &u.ShipmentID, &u.Location, &u.StatusUpdate, &u.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning update row: %w", err)
		}
		updates = append(updates, u)
	}

	return updates, rows.Err()
}

// UpdateShipment applies a partial update and returns the shipment with
// joined branch names.
func (s *Store) UpdateShipment(ctx context.Context, id int64, changes *ShipmentChanges) (*Shipment, error) {
	assignments := []string{}
	params := []any{}

	add := func(column string, value any) {
		assignments = append(assignments, column+" = ?")
		params = append(params, value)
	}

	if changes.ClientID != nil {
		add("client_id", *changes.ClientID)
	}
	if changes.OriginBranchID != nil {
		add("origin_branch_id", *changes.OriginBranchID)
	}
	if changes.DestinationBranchID != nil {
		add("destination_branch_id", *changes.DestinationBranchID)
	}
	if changes.Status != nil {
		add("status", *changes.Status)
	}
	if changes.EstimatedDelivery != nil {
		add("estimated_delivery", *changes.EstimatedDelivery)
	}
	if changes.WeightKg != nil {
		add("weight_kg", *changes.WeightKg)
	}
	if changes.ServiceType != nil {
		add("service_type", *changes.ServiceType)
	}
	if changes.Price != nil {
		add("price", *changes.Price)
	}
	if changes.SenderName != nil {
		add("sender_name", *changes.SenderName)
	}
	if changes.SenderPhone != nil {
		add("sender_phone", *changes.SenderPhone)
	}
	if changes.ReceiverName != nil {
		add("receiver_name", *changes.ReceiverName)
	}
	if changes.ReceiverPhone != nil {
		add("receiver_phone", *changes.ReceiverPhone)
	}
	if changes.IsCOD != nil {
		add("is_cod", *changes.IsCOD)
	}
	if changes.CODAmount != nil {
		add("cod_amount", *changes.CODAmount)
	}

	if len(assignments) > 0 {
		params = append(params, id)
		res, err := s.db.ExecContext(ctx,
			`UPDATE shipments SET `+strings.Join(assignments, ", ")+` WHERE id = ?`, params...)
		if err != nil {
			return nil, fmt.Errorf("updating shipment: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrNotFound
		}
	}

	return s.ShipmentByID(ctx, id)
}

// AddShipmentUpdate appends a status update and sets the shipment's
// current status in one transaction.
func (s *Store) AddShipmentUpdate(ctx context.Context, shipmentID int64, location, statusUpdate string) (*ShipmentUpdate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO shipment_updates (shipment_id, location, status_update)
		VALUES (?, ?, ?)`, shipmentID, location, statusUpdate)
	if err != nil {
		return nil, fmt.Errorf("inserting update: %w", err)
	}

	updateID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	upd, err := tx.ExecContext(ctx,
		`UPDATE shipments SET status = ? WHERE id = ?`, statusUpdate, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("updating shipment status: %w", err)
	}
	if n, _ := upd.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	var u ShipmentUpdate
	err = tx.QueryRowContext(ctx, `
		SELECT id, shipment_id, location, status_update, timestamp
		FROM shipment_updates WHERE id = ?`, updateID).
		Scan(&u.ID, &u.ShipmentID, &u.Location, &u.StatusUpdate, &u.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("reading back update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &u, nil
}

// AddHistoryEntry appends a free-text history row without touching the
// shipment's current status. Status changes go through UpdateShipment or
// AddShipmentUpdate.
func (s *Store) AddHistoryEntry(ctx context.Context, shipmentID int64, location, note string) (*ShipmentUpdate, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM shipments WHERE id = ?`, shipmentID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up shipment: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO shipment_updates (shipment_id, location, status_update)
		VALUES (?, ?, ?)`, shipmentID, location, note)
	if err != nil {
		return nil, fmt.Errorf("inserting history entry: %w", err)
	}

	entryID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	var u ShipmentUpdate
	err = s.db.QueryRowContext(ctx, `
		SELECT id, shipment_id, location, status_update, timestamp
		FROM shipment_updates WHERE id = ?`, entryID).
		Scan(&u.ID, &u.ShipmentID, &u.Location, &u.StatusUpdate, &u.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("reading back history entry: %w", err)
	}

	return &u, nil
}

// DeleteShipment removes the shipment and returns the owning client id
// so the caller can notify the right topic.
func (s *Store) DeleteShipment(ctx context.Context, id int64) (string, error) {
	var clientID string
	err := s.db.QueryRowContext(ctx, `SELECT client_id FROM shipments WHERE id = ?`, id).Scan(&clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up shipment: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM shipment_updates WHERE shipment_id = ?`, id); err != nil {
		return "", fmt.Errorf("deleting updates: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM shipments WHERE id = ?`, id); err != nil {
		return "", fmt.Errorf("deleting shipment: %w", err)
	}

	return clientID, nil
}
