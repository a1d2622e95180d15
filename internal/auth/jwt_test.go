package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTAuthenticator_RoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("secret", "reviewapi", "reviewapi", time.Hour)

	token, err := a.GenerateToken("user-1")
	require.NoError(t, err)

	sub, err := a.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestJWTAuthenticator_Rejects(t *testing.T) {
	a := NewJWTAuthenticator("secret", "reviewapi", "reviewapi", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTAuthenticator("other", "reviewapi", "reviewapi", time.Hour)
		token, err := other.GenerateToken("user-1")
		require.NoError(t, err)

		_, err = a.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewJWTAuthenticator("secret", "reviewapi", "reviewapi", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := past.GenerateToken("user-1")
		require.NoError(t, err)

		_, err = a.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewJWTAuthenticator("secret", "reviewapi", "someone-else", time.Hour)
		token, err := other.GenerateToken("user-1")
		require.NoError(t, err)

		_, err = a.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = a.ValidateToken(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := a.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))

	p := &Principal{ID: "u1", Name: "Ana"}
	assert.Same(t, p, FromContext(WithPrincipal(ctx, p)))
}
