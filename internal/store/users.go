package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleClient = "client"
)

type User struct {
	ID              string    `json:"id"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            string    `json:"role"`
	BranchID        *int64    `json:"branch_id,omitempty"`
	BranchName      string    `json:"branch_name,omitempty"`
	ActiveSessionID string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateUser inserts the user, assigning a fresh id.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, full_name, email, password_hash, role, branch_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.FullName, u.Email, u.PasswordHash, u.Role, u.BranchID, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, full_name, email, password_hash, role, branch_id, active_session_id, created_at
		FROM users WHERE email = ?`, email))
}

func (s *Store) UserByID(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, full_name, email, password_hash, role, branch_id, active_session_id, created_at
		FROM users WHERE id = ?`, id))
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var u User
	var branchID sql.NullInt64
	var sessionID sql.NullString

	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &branchID, &sessionID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	if branchID.Valid {
		u.BranchID = &branchID.Int64
	}
	u.ActiveSessionID = sessionID.String

	return &u, nil
}

// ListUsers returns every account with its branch name, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.full_name, u.email, u.role, u.created_at, COALESCE(b.branch_name, '')
		FROM users u
		LEFT JOIN branches b ON u.branch_id = b.id
		ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Role, &u.CreatedAt, &u.BranchName); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// ListClients returns id and name of every client account, for pickers.
func (s *Store) ListClients(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_name FROM users WHERE role = 'client' ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FullName); err != nil {
			return nil, fmt.Errorf("scanning client row: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

func (s *Store) UpdateUserRole(ctx context.Context, id, role string, branchID *int64) (*User, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET role = ?, branch_id = ? WHERE id = ?`, role, branchID, id)
	if err != nil {
		return nil, fmt.Errorf("updating user role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	return s.UserByID(ctx, id)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}

// SetActiveSession overwrites the account's single active session id.
// An empty id clears it (logout).
func (s *Store) SetActiveSession(ctx context.Context, userID, sessionID string) error {
	var value any
	if sessionID != "" {
		value = sessionID
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET active_session_id = ? WHERE id = ?`, value, userID)
	if err != nil {
		return fmt.Errorf("setting active session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return nil
}
