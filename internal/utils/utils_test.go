package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("pw123", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "pw123", hash)
	assert.True(t, VerifyPassword(hash, "pw123"))
	assert.False(t, VerifyPassword(hash, "pw124"))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestSessionToken_RoundTrip(t *testing.T) {
	tok, err := NewSessionToken("secret", 42, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

	claims, err := ParseSessionToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, tok.ID, claims.ID)
}

func TestParseSessionToken_Rejects(t *testing.T) {
	valid, err := NewSessionToken("secret", 1, time.Hour)
	require.NoError(t, err)
	expired, err := NewSessionToken("secret", 1, -time.Minute)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		raw    string
	}{
		{name: "wrong secret", secret: "other", raw: valid.Token},
		{name: "expired", secret: "secret", raw: expired.Token},
		{name: "garbage", secret: "secret", raw: "not-a-jwt"},
		{name: "alg none", secret: "secret", raw: unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSessionToken(tt.secret, tt.raw)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}

func TestHashTokenID(t *testing.T) {
	h := HashTokenID("abc")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashTokenID("abc"))
	assert.NotEqual(t, h, HashTokenID("abd"))
}
