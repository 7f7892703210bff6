// Package auth validates bearer tokens for the HTTP layer.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated principal extracted from a valid token.
type Identity struct {
	Valid bool   `json:"valid"`
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
}

// TokenVerifier validates an Authorization header value and returns the
// caller's identity.
type TokenVerifier interface {
	ValidateToken(header string) (Identity, error)
}

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// JWTVerifier validates HS256-signed JWTs against a shared secret.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier with the given signing secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// ValidateToken parses "Bearer <token>" headers. The subject claim becomes
// the user ID; the email claim is optional.
func (v *JWTVerifier) ValidateToken(header string) (Identity, error) {
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return Identity{}, ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	uid, err := claims.GetSubject()
	if err != nil || uid == "" {
		return Identity{}, fmt.Errorf("%w: missing subject claim", ErrInvalidToken)
	}

	identity := Identity{
		Valid: true,
		UID:   uid,
	}

	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}

	return identity, nil
}
