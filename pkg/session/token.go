package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or shape checks
var ErrInvalidToken = errors.New("invalid session token")

// Claims are carried inside the session cookie
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// SessionID is the registry key the token is bound to
func (c *Claims) SessionID() string {
	return c.ID
}

// TokenManager signs and verifies session tokens
type TokenManager struct {
	signingKey []byte
	issuer     string
}

// NewTokenManager creates a TokenManager using HS256 with the given key
func NewTokenManager(signingKey, issuer string) *TokenManager {
	return &TokenManager{signingKey: []byte(signingKey), issuer: issuer}
}

// Issue creates a signed token for the session
func (m *TokenManager) Issue(userID uint, sessionID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates the token and returns its claims
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return m.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
