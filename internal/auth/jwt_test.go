package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.GenerateToken(42)
	assert.NoError(t, err)

	claims, err := m.ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	token, err := m.GenerateToken(42)
	assert.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute)

	token, err := m.GenerateToken(42)
	assert.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.Error(t, err)
}
