package store

import (
	"context"
	"fmt"
)

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DailyRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type ReportSummary struct {
	DailyShipments  []DailyCount   `json:"dailyShipments"`
	StatusBreakdown []StatusCount  `json:"statusBreakdown"`
	DailyRevenue    []DailyRevenue `json:"dailyRevenue"`
}

// Summary aggregates the last seven days of shipment volume and revenue
// plus the overall status breakdown.
func (s *Store) Summary(ctx context.Context) (*ReportSummary, error) {
	summary := &ReportSummary{
		DailyShipments:  []DailyCount{},
		StatusBreakdown: []StatusCount{},
		DailyRevenue:    []DailyRevenue{},
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date(created_at), COUNT(*)
		FROM shipments
		WHERE created_at >= datetime('now', '-7 days')
		GROUP BY date(created_at)
		ORDER BY date(created_at) ASC`)
	if err != nil {
		return nil, fmt.Errorf("daily shipments: %w", err)
	}
	for rows.Next() {
		var c DailyCount
		if err := rows.Scan(&c.Date, &c.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning daily count: %w", err)
		}
		summary.DailyShipments = append(summary.DailyShipments, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM shipments GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		summary.StatusBreakdown = append(summary.StatusBreakdown, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT date(created_at), SUM(price)
		FROM shipments
		WHERE created_at >= datetime('now', '-7 days')
		GROUP BY date(created_at)
		ORDER BY date(created_at) ASC`)
	if err != nil {
		return nil, fmt.Errorf("daily revenue: %w", err)
	}
	for rows.Next() {
		var r DailyRevenue
		if err := rows.Scan(&r.Date, &r.Revenue); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning daily revenue: %w", err)
		}
		summary.DailyRevenue = append(summary.DailyRevenue, r)
	}
	rows.Close()

	return summary, rows.Err()
}
