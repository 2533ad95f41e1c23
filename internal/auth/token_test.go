package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueValidate_RoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	token, expiresAt, err := tm.Issue("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	subject, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestTokenManager_Validate_Empty(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	for _, token := range []string{"", "   "} {
		_, err := tm.Validate(token)
		assert.ErrorIs(t, err, ErrTokenEmpty)
	}
}

func TestTokenManager_Validate_Expired(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManager_Validate_WrongKey(t *testing.T) {
	issuer := NewTokenManager("right-secret", 15)
	verifier := NewTokenManager("wrong-secret", 15)

	token, _, err := issuer.Issue("alice")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenManager_Validate_Malformed(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	_, err := tm.Validate("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenManager_Validate_Tampered(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	token, _, err := tm.Issue("alice")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = tm.Validate(tampered)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenManager_Validate_UnsupportedAlgorithm(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, ErrTokenUnsupported)
}

func TestTokenManager_Validate_MissingSubject(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)

	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
