package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Branch struct {
	ID            int64  `json:"id"`
	BranchName    string `json:"branch_name"`
	BranchAddress string `json:"branch_address"`
	BranchPhone   string `json:"branch_phone,omitempty"`
}

func (s *Store) ListBranches(ctx context.Context) ([]Branch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, branch_name, branch_address, branch_phone FROM branches ORDER BY branch_name`)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	defer rows.Close()

	var branches []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.BranchName, &b.BranchAddress, &b.BranchPhone); err != nil {
			return nil, fmt.Errorf("scanning branch row: %w", err)
		}
		branches = append(branches, b)
	}

	return branches, rows.Err()
}

func (s *Store) BranchByID(ctx context.Context, id int64) (*Branch, error) {
	var b Branch
	err := s.db.QueryRowContext(ctx, `
		SELECT id, branch_name, branch_address, branch_phone FROM branches WHERE id = ?`, id).
		Scan(&b.ID, &b.BranchName, &b.BranchAddress, &b.BranchPhone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning branch: %w", err)
	}

	return &b, nil
}

func (s *Store) CreateBranch(ctx context.Context, b *Branch) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO branches (branch_name, branch_address, branch_phone) VALUES (?, ?, ?)`,
		b.BranchName, b.BranchAddress, b.BranchPhone)
	if err != nil {
		return fmt.Errorf("inserting branch: %w", err)
	}

	b.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdateBranch(ctx context.Context, b *Branch) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE branches SET branch_name = ?, branch_address = ?, branch_phone = ? WHERE id = ?`,
		b.BranchName, b.BranchAddress, b.BranchPhone, b.ID)
	if err != nil {
		return fmt.Errorf("updating branch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *Store) DeleteBranch(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM branches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting branch: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}
