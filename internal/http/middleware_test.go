package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/authz"
	"github.com/example/campus-scheduler/internal/logging"
)

type fakeSessionValidator struct {
	principal application.Principal
	err       error
	seenToken string
}

func (f *fakeSessionValidator) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	f.seenToken = token
	return f.principal, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	t.Run("rejects requests without a token before calling the next handler", func(t *testing.T) {
		t.Parallel()

		handler := RequireSession(&fakeSessionValidator{}, discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("next handler must not run without credentials")
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/venues", nil))

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("maps validator auth failures to 401", func(t *testing.T) {
		t.Parallel()

		for _, sentinel := range []error{
			application.ErrUnauthorized,
			application.ErrSessionExpired,
			application.ErrSessionRevoked,
			application.ErrInvalidCredentials,
		} {
			validator := &fakeSessionValidator{err: sentinel}
			handler := RequireSession(validator, discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("next handler must not run on auth failure")
			}))

			recorder := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/venues", nil)
			req.Header.Set("Authorization", "Bearer bad-token")
			handler.ServeHTTP(recorder, req)

			assert.Equal(t, http.StatusUnauthorized, recorder.Code, "sentinel %v", sentinel)
		}
	})

	t.Run("maps a disabled account to 403", func(t *testing.T) {
		t.Parallel()

		handler := RequireSession(&fakeSessionValidator{err: application.ErrAccountDisabled}, discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("next handler must not run for disabled accounts")
		}))

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/venues", nil)
		req.Header.Set("Authorization", "Bearer some-token")
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("maps unexpected validator failures to 500", func(t *testing.T) {
		t.Parallel()

		handler := RequireSession(&fakeSessionValidator{err: errors.New("store offline")}, discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("next handler must not run on validator failure")
		}))

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/venues", nil)
		req.Header.Set("Authorization", "Bearer some-token")
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})

	t.Run("injects the principal into the request context", func(t *testing.T) {
		t.Parallel()

		want := application.Principal{UserID: "user-42", Roles: []authz.Role{authz.RoleRegistrar}}
		validator := &fakeSessionValidator{principal: want}

		var got application.Principal
		handler := RequireSession(validator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			require.True(t, ok)
			got = principal
			w.WriteHeader(http.StatusOK)
		}))

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/venues", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "valid-token"})
		handler.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, want, got)
		assert.Equal(t, "valid-token", validator.seenToken)
	})

	t.Run("prefers the bearer header over the cookie", func(t *testing.T) {
		t.Parallel()

		validator := &fakeSessionValidator{principal: application.Principal{UserID: "user-1"}}
		handler := RequireSession(validator, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/venues", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "cookie-token"})
		handler.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "header-token", validator.seenToken)
	})

	t.Run("lets sign-in and refresh requests through untouched", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{"/sessions", "/sessions/", "/sessions/refresh"} {
			called := false
			handler := RequireSession(&fakeSessionValidator{err: application.ErrUnauthorized}, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, path, nil))

			assert.True(t, called, "POST %s must bypass session validation", path)
		}
	})

	t.Run("does not bypass non-POST session paths", func(t *testing.T) {
		t.Parallel()

		handler := RequireSession(&fakeSessionValidator{err: application.ErrUnauthorized}, discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("next handler must not run for unauthenticated GET /sessions")
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/sessions", nil))

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("attaches a request scoped logger to the context", func(t *testing.T) {
		t.Parallel()

		var attached *slog.Logger
		handler := RequestLogger(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attached = logging.FromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/venues", nil))

		require.NotNil(t, attached, "handlers must see the logger via logging.FromContext")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}
