package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqnet/incident-server/internal/models"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func authedRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/reports/mine", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestRequireAuth(t *testing.T) {
	var gotCaller Caller
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCaller, _ = CallerFrom(r.Context())
		reached = true
	})
	handler := RequireAuth(testSecret)(next)

	t.Run("valid HS256 token passes and sets the caller", func(t *testing.T) {
		reached = false
		token := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1", "role": "ADMIN"})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(token))

		require.True(t, reached)
		assert.Equal(t, "user-1", gotCaller.ID)
		assert.Equal(t, models.RoleAdmin, gotCaller.Role)
	})

	t.Run("unknown role degrades to citizen", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1", "role": "superuser"})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(token))
		assert.Equal(t, models.RoleUser, gotCaller.Role)
	})

	t.Run("other HMAC algorithms are rejected even with the right secret", func(t *testing.T) {
		reached = false
		token := signToken(t, jwt.SigningMethodHS512, jwt.MapClaims{"sub": "user-1", "role": "ADMIN"})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(token))

		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing subject is rejected", func(t *testing.T) {
		reached = false
		token := signToken(t, jwt.SigningMethodHS256, jwt.MapClaims{"role": "ADMIN"})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(token))

		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		reached = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(""))

		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		reached = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest("not.a.jwt"))

		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
