package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	userID := uuid.New()

	t.Run("Round trip", func(t *testing.T) {
		token, err := tm.GenerateAccessToken(userID, "sam@campus.edu")
		require.NoError(t, err)

		claims, err := tm.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "sam@campus.edu", claims.Email)
		assert.Equal(t, TokenTypeAccess, claims.Type)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour)
		token, err := other.GenerateAccessToken(userID, "")
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := &tokenManager{
			secret:    []byte(testSecret),
			accessTTL: time.Minute,
			now:       func() time.Time { return time.Now().Add(-2 * time.Hour) },
		}
		token, err := expired.GenerateAccessToken(userID, "")
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Subject only", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":  userID.String(),
			"type": "access",
			"aud":  tokenAudience,
			"exp":  time.Now().Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		got, err := tm.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, got.UserID)
	})

	t.Run("Wrong type", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":  userID.String(),
			"type": "refresh",
			"aud":  tokenAudience,
			"exp":  time.Now().Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
