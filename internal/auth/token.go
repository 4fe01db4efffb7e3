// Package auth issues and verifies the bearer tokens that carry a request's
// identity, and houses the capability checks gating mutation endpoints.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/teamforge/collabd/internal/apperrors"
)

// Role is the coarse account role carried in tokens.
type Role string

const (
	RoleUser         Role = "user"
	RoleProjectOwner Role = "project_owner"
	RoleAdmin        Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleProjectOwner, RoleAdmin:
		return true
	}
	return false
}

// Identity is the authenticated caller attached to each request.
type Identity struct {
	UserID string
	Role   Role
}

// Claims is the JWT payload for collabd tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenIssuer creates an issuer with the given signing secret and
// token lifetime.
func NewTokenIssuer(secret []byte, ttl time.Duration, issuer string) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, issuer: issuer}
}

// Issue creates a signed token for the identity.
func (t *TokenIssuer) Issue(id Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: id.UserID,
		Role:   string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    t.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses a token string and returns the identity it carries.
func (t *TokenIssuer) Verify(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return Identity{}, apperrors.Wrap(apperrors.KindUnauthorized, "invalid or expired token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, apperrors.New(apperrors.KindUnauthorized, "invalid or expired token")
	}

	id := Identity{UserID: claims.UserID, Role: Role(claims.Role)}
	if id.UserID == "" || !id.Role.Valid() {
		return Identity{}, apperrors.New(apperrors.KindUnauthorized, "invalid or expired token")
	}
	return id, nil
}
