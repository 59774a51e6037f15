package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/authz"
	"github.com/example/campus-scheduler/internal/testfixtures"
)

type authEnv struct {
	service  *application.AuthService
	users    *testfixtures.MemoryUserStore
	sessions *testfixtures.MemorySessionStore
	clock    *testfixtures.Clock
	user     application.User
}

const authTestPassword = "opensesame1"

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()

	env := &authEnv{
		users:    testfixtures.NewMemoryUserStore(),
		sessions: testfixtures.NewMemorySessionStore(),
		clock:    testfixtures.NewClock(time.Time{}),
	}
	hash, err := application.HashPassword(authTestPassword, application.DefaultArgon2idParams)
	require.NoError(t, err)
	env.user = testfixtures.NewUser(authz.RoleRegistrar)
	env.users.Seed(env.user, hash)

	ids := testfixtures.NewIDGenerator("tok")
	env.service = application.NewAuthService(
		env.users, env.sessions, nil, ids.NextFunc(), env.clock.NowFunc(), time.Hour, nil,
	)
	return env
}

func (env *authEnv) login(t *testing.T) application.Session {
	t.Helper()
	result, err := env.service.Authenticate(context.Background(), application.AuthenticateParams{
		Email:    env.user.Email,
		Password: authTestPassword,
	})
	require.NoError(t, err)
	return result.Session
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues a session for valid credentials", func(t *testing.T) {
		t.Parallel()
		env := newAuthEnv(t)

		result, err := env.service.Authenticate(context.Background(), application.AuthenticateParams{
			Email:    env.user.Email,
			Password: authTestPassword,
		})
		require.NoError(t, err)
		assert.Equal(t, env.user.ID, result.Session.UserID)
		assert.NotEmpty(t, result.Session.Token)
		assert.Equal(t, env.clock.Now().Add(time.Hour), result.Session.ExpiresAt)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		t.Parallel()
		env := newAuthEnv(t)

		_, err := env.service.Authenticate(context.Background(), application.AuthenticateParams{
			Email:    env.user.Email,
			Password: "wrong",
		})
		assert.ErrorIs(t, err, application.ErrInvalidCredentials)
	})

	t.Run("rejects unknown accounts without leaking existence", func(t *testing.T) {
		t.Parallel()
		env := newAuthEnv(t)

		_, err := env.service.Authenticate(context.Background(), application.AuthenticateParams{
			Email:    "ghost@campus.test",
			Password: authTestPassword,
		})
		assert.ErrorIs(t, err, application.ErrInvalidCredentials)
	})

	t.Run("rejects disabled accounts", func(t *testing.T) {
		t.Parallel()
		env := newAuthEnv(t)
		disabled := env.user
		disabled.Disabled = true
		env.users.Seed(disabled, "irrelevant")

		_, err := env.service.Authenticate(context.Background(), application.AuthenticateParams{
			Email:    env.user.Email,
			Password: authTestPassword,
		})
		assert.ErrorIs(t, err, application.ErrAccountDisabled)
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	t.Run("returns a principal with a role snapshot", func(t *testing.T) {
		t.Parallel()
		env := newAuthEnv(t)
		session := env.login(t)

		principal, err := env.service.ValidateSession(context.Background(), session.Token)
		require.NoError(t, err)
		assert.Equal(t, env.user.ID, principal.UserID)
		assert.Equal(t, []authz.Role{authz.RoleRegistrar}, principal.Roles)
	})

	t.Run("expires sessions after the TTL", func(t *testing.T) {
		t.Parallel()
		env := newAuthEnv(t)
		session := env.login(t)

		env.clock.Advance(61 * time.Minute)
		_, err := env.service.ValidateSession(context.Background(), session.Token)
		assert.ErrorIs(t, err, application.ErrSessionExpired)
	})

	t.Run("rejects revoked sessions", func(t *testing.T) {
		t.Parallel()
		env := newAuthEnv(t)
		session := env.login(t)

		require.NoError(t, env.service.RevokeSession(context.Background(), session.Token))
		_, err := env.service.ValidateSession(context.Background(), session.Token)
		assert.ErrorIs(t, err, application.ErrSessionRevoked)
	})

	t.Run("rejects unknown tokens", func(t *testing.T) {
		t.Parallel()
		env := newAuthEnv(t)

		_, err := env.service.ValidateSession(context.Background(), "no-such-token")
		assert.ErrorIs(t, err, application.ErrUnauthorized)
	})
}

func TestAuthService_RefreshSession(t *testing.T) {
	t.Parallel()

	t.Run("rotates the token and extends the window", func(t *testing.T) {
		t.Parallel()
		env := newAuthEnv(t)
		session := env.login(t)

		env.clock.Advance(30 * time.Minute)
		result, err := env.service.RefreshSession(context.Background(), application.RefreshSessionParams{Token: session.Token})
		require.NoError(t, err)
		assert.NotEqual(t, session.Token, result.Session.Token)
		assert.Equal(t, env.clock.Now().Add(time.Hour), result.Session.ExpiresAt)

		// The old token no longer resolves.
		_, err = env.service.ValidateSession(context.Background(), session.Token)
		assert.ErrorIs(t, err, application.ErrUnauthorized)

		_, err = env.service.ValidateSession(context.Background(), result.Session.Token)
		assert.NoError(t, err)
	})

	t.Run("refuses to refresh an expired session", func(t *testing.T) {
		t.Parallel()
		env := newAuthEnv(t)
		session := env.login(t)

		env.clock.Advance(2 * time.Hour)
		_, err := env.service.RefreshSession(context.Background(), application.RefreshSessionParams{Token: session.Token})
		assert.ErrorIs(t, err, application.ErrSessionExpired)
	})
}
