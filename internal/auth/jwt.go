package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired means the token was valid but is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed means the token could not be decoded at all.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrInvalidSignature means the token signature did not verify.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrMissingToken means no token was supplied with the request.
	ErrMissingToken = errors.New("authorization token required")
)

// DefaultTokenTTL matches the long-lived sessions this API issues.
const DefaultTokenTTL = 365 * 24 * time.Hour

// TokenManager issues and verifies signed session tokens.
type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// Claims are the session claims carried by a token.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// NewTokenManager creates a token manager signing with the given symmetric
// secret. Tokens expire ttl after issuance.
func NewTokenManager(secretKey string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Issue creates a signed token carrying the user id, issued now and expiring
// after the configured TTL.
func (m *TokenManager) Issue(userID int64) (string, error) {
	issuedAt := m.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the user id it carries.
// It fails closed: any decode error, signature mismatch or expiry yields a
// typed error, never a partial identity.
func (m *TokenManager) Verify(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return 0, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		default:
			return 0, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return 0, ErrTokenMalformed
	}
	return claims.UserID, nil
}
