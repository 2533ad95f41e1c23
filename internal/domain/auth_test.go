package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshToken_Usable(t *testing.T) {
	now := time.Now()
	token := &RefreshToken{ExpiresAt: now.Add(time.Hour)}

	assert.True(t, token.Usable(now))
	assert.True(t, token.Usable(now.Add(time.Hour-time.Nanosecond)))

	// Exactly at the expiry instant the token fails closed.
	assert.False(t, token.Usable(now.Add(time.Hour)))
	assert.False(t, token.Usable(now.Add(2*time.Hour)))

	revoked := &RefreshToken{ExpiresAt: now.Add(time.Hour), Revoked: true}
	assert.False(t, revoked.Usable(now))

	var nilToken *RefreshToken
	assert.False(t, nilToken.Usable(now))
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("ADMIN"))
	assert.Equal(t, RoleUser, ParseRole("USER"))
	assert.Equal(t, RoleUser, ParseRole("superuser"))
	assert.Equal(t, RoleUser, ParseRole(""))
}
