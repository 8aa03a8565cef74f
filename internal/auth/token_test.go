package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracknet-io/tracknet/internal/auth"
)

func TestIssueAndParse(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)

	raw, err := issuer.Issue("u1", "staff", "s1")
	require.NoError(t, err)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, "s1", claims.SessionID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	other := auth.NewTokenIssuer("other-secret", time.Hour)

	raw, err := issuer.Issue("u1", "staff", "s1")
	require.NoError(t, err)

	_, err = other.Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", -time.Minute)

	raw, err := issuer.Issue("u1", "staff", "s1")
	require.NoError(t, err)

	_, err = issuer.Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)

	_, err := issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
