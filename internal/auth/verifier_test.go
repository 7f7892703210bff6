package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	return token
}

func TestValidateToken(t *testing.T) {
	verifier := NewJWTVerifier("test-secret")

	token := signToken(t, "test-secret", jwt.MapClaims{
		"sub":   "user-1",
		"email": "user@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	identity, err := verifier.ValidateToken("Bearer " + token)
	require.NoError(t, err)

	assert.True(t, identity.Valid)
	assert.Equal(t, "user-1", identity.UID)
	assert.Equal(t, "user@example.com", identity.Email)
}

func TestValidateToken_EmailOptional(t *testing.T) {
	verifier := NewJWTVerifier("test-secret")

	token := signToken(t, "test-secret", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	identity, err := verifier.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Empty(t, identity.Email)
}

func TestValidateToken_MissingHeader(t *testing.T) {
	verifier := NewJWTVerifier("test-secret")

	tests := []struct {
		name   string
		header string
	}{
		{name: "empty", header: ""},
		{name: "no scheme", header: "just-a-token"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "bearer without token", header: "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.ValidateToken(tt.header)
			assert.ErrorIs(t, err, ErrMissingToken)
		})
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	verifier := NewJWTVerifier("test-secret")

	token := signToken(t, "other-secret", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := verifier.ValidateToken("Bearer " + token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	verifier := NewJWTVerifier("test-secret")

	token := signToken(t, "test-secret", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := verifier.ValidateToken("Bearer " + token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_MissingSubject(t *testing.T) {
	verifier := NewJWTVerifier("test-secret")

	token := signToken(t, "test-secret", jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := verifier.ValidateToken("Bearer " + token)
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.Contains(t, err.Error(), "subject")
}

func TestValidateToken_RejectsUnsignedAlgorithm(t *testing.T) {
	verifier := NewJWTVerifier("test-secret")

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = verifier.ValidateToken("Bearer " + token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
