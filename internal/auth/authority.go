package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tracknet-io/tracknet/internal/realtime"
	"github.com/tracknet-io/tracknet/pkg/topic"
)

// EventForceLogout is pushed to the evicted session's topic so an open
// tab can terminate itself immediately.
const EventForceLogout = "force_logout"

const evictionMessage = "This account has been logged in from another device. This session has been terminated."

// ErrSessionMismatch means the credential's embedded session id no
// longer matches the account's active one.
var ErrSessionMismatch = errors.New("session superseded")

type EvictionNotice struct {
	Msg string `json:"msg"`
}

// SessionStore persists the single active session id per account.
type SessionStore interface {
	SetActiveSession(ctx context.Context, userID, sessionID string) error
}

// Authority owns the one-active-session-per-account invariant. The
// persisted id is the source of truth; the eviction push is a UX
// courtesy on top of it.
type Authority struct {
	store    SessionStore
	notifier realtime.Notifier
	logger   zerolog.Logger
}

func NewAuthority(store SessionStore, notifier realtime.Notifier, logger zerolog.Logger) *Authority {
	return &Authority{store: store, notifier: notifier, logger: logger}
}

// Rotate issues a fresh session id for the account and persists it. If a
// prior session existed, its live connections are told to log out; a
// first login evicts nothing.
func (a *Authority) Rotate(ctx context.Context, userID, oldSessionID string) (string, error) {
	sessionID := uuid.NewString()

	if err := a.store.SetActiveSession(ctx, userID, sessionID); err != nil {
		return "", fmt.Errorf("persisting session: %w", err)
	}

	if oldSessionID != "" {
		a.logger.Info().Str("user", userID).Msg("evicting previous session")
		a.notifier.Notify(topic.Session(oldSessionID), EventForceLogout, EvictionNotice{Msg: evictionMessage})
	}

	return sessionID, nil
}

// Revoke clears the account's active session. No eviction push is
// needed: the credential fails the passive check on its next use.
func (a *Authority) Revoke(ctx context.Context, userID string) error {
	if err := a.store.SetActiveSession(ctx, userID, ""); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	return nil
}

// ValidateSession is the passive single-session check: the id embedded
// in a credential must equal the account's current one. A credential
// without a session id is always invalid.
func ValidateSession(claimed, current string) error {
	if claimed == "" || claimed != current {
		return ErrSessionMismatch
	}

	return nil
}
