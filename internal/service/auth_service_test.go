package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/config"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/events"
	apperrors "github.com/spec-kit/task-service/pkg/util/errorutil"
)

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 15,
			RefreshTokenTTLHours:  1,
			BcryptCost:            bcrypt.MinCost,
		},
	}
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo, *fakeRefreshRepo) {
	t.Helper()
	users := newFakeUserRepo()
	refresh := newFakeRefreshRepo()
	svc := NewAuthService(testConfig(), AuthDependencies{
		UserRepo:         users,
		RefreshTokenRepo: refresh,
		Dispatcher:       events.NewInMemoryDispatcher(),
		Logger:           zap.NewNop(),
	})
	return svc, users, refresh
}

func seedUser(t *testing.T, users *fakeUserRepo, username, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return users.add(username, hash, role)
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestLoginUnknownUsername(t *testing.T) {
	svc, _, refresh := newAuthFixture(t)

	result, err := svc.Login(context.Background(), "ghost", "whatever123")
	assert.Nil(t, result)
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
	assert.Equal(t, 0, refresh.countForUser("ghost"))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, users, refresh := newAuthFixture(t)
	user := seedUser(t, users, "alice", "correct-horse", domain.RoleUser)

	result, err := svc.Login(context.Background(), "alice", "wrong-horse")
	assert.Nil(t, result)
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
	assert.Equal(t, 0, refresh.countForUser(user.ID))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	seedUser(t, users, "alice", "correct-horse", domain.RoleUser)

	_, unknownErr := svc.Login(context.Background(), "ghost", "whatever123")
	_, wrongErr := svc.Login(context.Background(), "alice", "wrong-horse")

	var unknownDE, wrongDE *apperrors.DomainError
	require.ErrorAs(t, unknownErr, &unknownDE)
	require.ErrorAs(t, wrongErr, &wrongDE)
	assert.Equal(t, unknownDE.Code, wrongDE.Code)
	assert.Equal(t, unknownDE.Message, wrongDE.Message)
	assert.Equal(t, unknownDE.HTTPStatus, wrongDE.HTTPStatus)
}

func TestLoginSuccess(t *testing.T) {
	svc, users, refresh := newAuthFixture(t)
	user := seedUser(t, users, "alice", "correct-horse", domain.RoleAdmin)

	before := time.Now()
	result, err := svc.Login(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)
	require.NotNil(t, result)

	subject, err := svc.TokenManager().Validate(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
	assert.Equal(t, user.ID, result.User.ID)
	assert.Equal(t, domain.RoleAdmin, result.User.Role)
	assert.NotEmpty(t, result.RefreshToken)

	record, err := refresh.GetByToken(context.Background(), result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, record.UserID)
	assert.False(t, record.Revoked)
	// Row expiry tracks the configured refresh TTL of one hour.
	assert.WithinDuration(t, before.Add(time.Hour), record.ExpiresAt, 5*time.Second)
}

func TestLoginTwiceYieldsIndependentTokens(t *testing.T) {
	svc, users, refresh := newAuthFixture(t)
	user := seedUser(t, users, "alice", "correct-horse", domain.RoleUser)

	first, err := svc.Login(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 2, refresh.countForUser(user.ID))

	// Both sessions stay usable independently.
	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	assert.NoError(t, err)
	_, err = svc.Refresh(context.Background(), second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshReturnsSameRefreshToken(t *testing.T) {
	svc, users, refresh := newAuthFixture(t)
	user := seedUser(t, users, "alice", "correct-horse", domain.RoleUser)

	login, err := svc.Login(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)

	result, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, login.RefreshToken, result.RefreshToken)

	subject, err := svc.TokenManager().Validate(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)

	// No rotation: still a single stored row, and the exchange repeats.
	assert.Equal(t, 1, refresh.countForUser(user.ID))
	again, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, login.RefreshToken, again.RefreshToken)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	result, err := svc.Refresh(context.Background(), "never-issued")
	assert.Nil(t, result)
	assert.Equal(t, "REFRESH_NOT_FOUND", domainCode(t, err))
}

func TestRefreshExpiredTokenDeletesRow(t *testing.T) {
	svc, users, refresh := newAuthFixture(t)
	user := seedUser(t, users, "alice", "correct-horse", domain.RoleUser)

	record := &domain.RefreshToken{
		Token:     "stale-token",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Second),
	}
	require.NoError(t, refresh.Create(context.Background(), record))

	result, err := svc.Refresh(context.Background(), "stale-token")
	assert.Nil(t, result)
	assert.Equal(t, "REFRESH_EXPIRED", domainCode(t, err))

	// Lazy cleanup: the expired row is gone after presentation.
	_, err = refresh.GetByToken(context.Background(), "stale-token")
	assert.Error(t, err)
	assert.Equal(t, 0, refresh.countForUser(user.ID))
}

func TestRefreshRevokedTokenKeepsRow(t *testing.T) {
	svc, users, refresh := newAuthFixture(t)
	user := seedUser(t, users, "alice", "correct-horse", domain.RoleUser)

	login, err := svc.Login(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)
	require.NoError(t, refresh.Revoke(context.Background(), login.RefreshToken))

	result, err := svc.Refresh(context.Background(), login.RefreshToken)
	assert.Nil(t, result)
	assert.Equal(t, "REFRESH_EXPIRED", domainCode(t, err))

	// Revoked but unexpired rows stay until the sweeper or owner deletion.
	assert.Equal(t, 1, refresh.countForUser(user.ID))
}

func TestRefreshTokenOfDeletedUser(t *testing.T) {
	svc, users, refresh := newAuthFixture(t)
	user := seedUser(t, users, "alice", "correct-horse", domain.RoleUser)

	record := &domain.RefreshToken{
		Token:     "orphan-token",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, refresh.Create(context.Background(), record))
	require.NoError(t, users.Delete(context.Background(), user.ID))

	result, err := svc.Refresh(context.Background(), "orphan-token")
	assert.Nil(t, result)
	assert.Equal(t, "REFRESH_NOT_FOUND", domainCode(t, err))
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, users, _ := newAuthFixture(t)
	seedUser(t, users, "alice", "correct-horse", domain.RoleUser)

	login, err := svc.Login(context.Background(), "alice", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken))

	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.Equal(t, "REFRESH_EXPIRED", domainCode(t, err))
}

func TestLogoutUnknownToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	err := svc.Logout(context.Background(), "never-issued")
	assert.Equal(t, "REFRESH_NOT_FOUND", domainCode(t, err))
}
