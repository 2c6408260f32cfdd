package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func mustMakeJWT(t *testing.T, secret string, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTAuth(t *testing.T) {
	userID := uuid.New()
	valid := mustMakeJWT(t, testSecret, jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}, jwt.SigningMethodHS256)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{name: "valid token", header: "Bearer " + valid, expectedStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + valid, expectedStatus: http.StatusOK},
		{name: "missing header", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, expectedStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", expectedStatus: http.StatusUnauthorized},
		{
			name: "wrong secret",
			header: "Bearer " + mustMakeJWT(t, "other-secret", jwt.MapClaims{
				"sub": userID.String(),
			}, jwt.SigningMethodHS256),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "expired",
			header: "Bearer " + mustMakeJWT(t, testSecret, jwt.MapClaims{
				"sub": userID.String(),
				"exp": time.Now().Add(-time.Minute).Unix(),
			}, jwt.SigningMethodHS256),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "other HMAC algorithm",
			header: "Bearer " + mustMakeJWT(t, testSecret, jwt.MapClaims{
				"sub": userID.String(),
			}, jwt.SigningMethodHS512),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "subject is not a user id",
			header: "Bearer " + mustMakeJWT(t, testSecret, jwt.MapClaims{
				"sub": "42",
			}, jwt.SigningMethodHS256),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got uuid.UUID
			handler := JWTAuth(testSecret, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, userID, got)
			}
		})
	}
}

func TestOptionalJWT(t *testing.T) {
	handlerFor := func(called *bool, authed *bool) http.Handler {
		return OptionalJWT(testSecret, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*called = true
			_, *authed = UserIDFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))
	}

	t.Run("anonymous", func(t *testing.T) {
		var called, authed bool
		w := httptest.NewRecorder()
		handlerFor(&called, &authed).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, called)
		assert.False(t, authed)
	})

	t.Run("authenticated", func(t *testing.T) {
		var called, authed bool
		req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		req.Header.Set("Authorization", "Bearer "+mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": uuid.NewString()}, jwt.SigningMethodHS256))
		w := httptest.NewRecorder()
		handlerFor(&called, &authed).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, authed)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		var called, authed bool
		req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		w := httptest.NewRecorder()
		handlerFor(&called, &authed).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, called)
	})
}
