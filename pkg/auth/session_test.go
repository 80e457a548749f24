package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	a := NewSessionAuth("test-secret", false)
	userID := uuid.New()

	token := a.MintToken(userID, time.Hour)

	sessionUser, err := a.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID, sessionUser.ID)
	assert.True(t, sessionUser.ExpiresAt.After(time.Now()))
}

func TestSessionToken_TamperedSignature(t *testing.T) {
	a := NewSessionAuth("test-secret", false)
	token := a.MintToken(uuid.New(), time.Hour)

	parts := strings.SplitN(token, ".", 2)
	tampered := parts[0] + "." + strings.Repeat("0", len(parts[1]))

	_, err := a.ValidateToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionToken_WrongSecret(t *testing.T) {
	minter := NewSessionAuth("secret-a", false)
	validator := NewSessionAuth("secret-b", false)

	_, err := validator.ValidateToken(minter.MintToken(uuid.New(), time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionToken_Expired(t *testing.T) {
	a := NewSessionAuth("test-secret", false)
	token := a.MintToken(uuid.New(), -time.Minute)

	_, err := a.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSessionToken_DebugModeSkipsSignature(t *testing.T) {
	minter := NewSessionAuth("secret-a", false)
	validator := NewSessionAuth("secret-b", true)
	userID := uuid.New()

	sessionUser, err := validator.ValidateToken(minter.MintToken(userID, time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, userID, sessionUser.ID)
}

func TestSessionToken_Garbage(t *testing.T) {
	a := NewSessionAuth("test-secret", false)

	for _, token := range []string{"", "no-dot-here", "a.b", "!!!.deadbeef"} {
		_, err := a.ValidateToken(token)
		assert.Error(t, err, token)
	}
}
