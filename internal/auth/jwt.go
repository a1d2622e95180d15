package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Authenticator issues and verifies bearer tokens. Tokens carry only the
// account ID; display names and roles are looked up server-side.
type Authenticator interface {
	GenerateToken(userID string) (string, error)
	ValidateToken(token string) (string, error)
}

type JWTAuthenticator struct {
	secret []byte
	iss    string
	aud    string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTAuthenticator(secret, iss, aud string, ttl time.Duration) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret: []byte(secret),
		iss:    iss,
		aud:    aud,
		ttl:    ttl,
		now:    time.Now,
	}
}

var _ Authenticator = (*JWTAuthenticator)(nil)

// GenerateToken signs an HS256 access token for userID.
func (a *JWTAuthenticator) GenerateToken(userID string) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    a.iss,
		Audience:  jwt.ClaimStrings{a.aud},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken verifies signature, expiry, issuer and audience and returns the subject.
func (a *JWTAuthenticator) ValidateToken(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(a.iss),
		jwt.WithAudience(a.aud),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
