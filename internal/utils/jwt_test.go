package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("test-secret", 42, "a@b.com", "organizer", 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	claims, err := ParseAccessToken("test-secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "organizer", claims.Role)
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("secret-one", 1, "x@y.com", "user", 15)
	require.NoError(t, err)

	_, err = ParseAccessToken("secret-two", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenExpired(t *testing.T) {
	tok, err := NewAccessToken("test-secret", 1, "x@y.com", "user", -1)
	require.NoError(t, err)

	_, err = ParseAccessToken("test-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenHashIsStable(t *testing.T) {
	ref, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, ref.Raw, 96)

	h1 := HashRefreshRaw(ref.Raw)
	h2 := HashRefreshRaw(ref.Raw)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, ref.Raw, h1)
}

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("secret", 4) // min cost keeps the test fast
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "secret"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}
