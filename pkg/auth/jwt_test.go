package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truongngoctrac/claims-platform/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", "claims-platform")
	actor := model.Actor{ID: uuid.New(), Role: model.RoleStaff}

	token, err := svc.GenerateAccessToken(actor, time.Hour)
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewJWTService("secret", "claims-platform")
	actor := model.Actor{ID: uuid.New(), Role: model.RoleUser}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTService("other", "claims-platform").GenerateAccessToken(actor, time.Hour)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(actor, -time.Minute)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := NewJWTService("secret", "someone-else").GenerateAccessToken(actor, time.Hour)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := &Claims{
			Role: "guest",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   actor.ID.String(),
				Issuer:    "claims-platform",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}
