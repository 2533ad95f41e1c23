package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, ComparePassword(hash, "correct horse battery staple"))
	assert.Error(t, ComparePassword(hash, "correct horse battery stable"))
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	first, err := HashPassword("same password", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("same password", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, ComparePassword(first, "same password"))
	assert.NoError(t, ComparePassword(second, "same password"))
}

func TestComparePassword_MalformedDigest(t *testing.T) {
	assert.Error(t, ComparePassword("not a bcrypt digest", "anything"))
	assert.Error(t, ComparePassword("", "anything"))
}
