package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
)

// Pricing constants: every service charges per kilogram on top of its
// base rate; unknown services fall back to the default base.
const (
	perKgRate       = 1.5
	defaultBaseRate = 5.00
)

type Rate struct {
	ID          int64   `json:"id"`
	ServiceName string  `json:"service_name"`
	BaseRate    float64 `json:"base_rate"`
}

func (s *Store) ListRates(ctx context.Context) ([]Rate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, service_name, base_rate FROM service_rates ORDER BY service_name`)
	if err != nil {
		return nil, fmt.Errorf("listing rates: %w", err)
	}
	defer rows.Close()

	var rates []Rate
	for rows.Next() {
		var r Rate
		if err := rows.Scan(&r.ID, &r.ServiceName, &r.BaseRate); err != nil {
			return nil, fmt.Errorf("scanning rate row: %w", err)
		}
		rates = append(rates, r)
	}

	return rates, rows.Err()
}

func (s *Store) CreateRate(ctx context.Context, r *Rate) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO service_rates (service_name, base_rate) VALUES (?, ?)`,
		r.ServiceName, r.BaseRate)
	if err != nil {
		return fmt.Errorf("inserting rate: %w", err)
	}

	r.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdateRate(ctx context.Context, r *Rate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE service_rates SET service_name = ?, base_rate = ? WHERE id = ?`,
		r.ServiceName, r.BaseRate, r.ID)
	if err != nil {
		return fmt.Errorf("updating rate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Store) DeleteRate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM service_rates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting rate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

// PriceFor computes the shipping price for a service and weight, rounded
// to cents.
func (s *Store) PriceFor(ctx context.Context, serviceType string, weightKg float64) (float64, error) {
	base := defaultBaseRate

	err := s.db.QueryRowContext(ctx, `
		SELECT base_rate FROM service_rates WHERE service_name = ?`, serviceType).Scan(&base)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("looking up rate: %w", err)
	}

	price := base + weightKg*perKgRate
	return math.Round(price*100) / 100, nil
}
