package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var errInvalidToken = errors.New("invalid token")

// APIKeyAuth validates the API key from the X-API-Key header.
func APIKeyAuth(apiKey string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			providedKey := r.Header.Get("X-API-Key")
			if providedKey == "" {
				logger.Warn().Str("path", r.URL.Path).Msg("missing API key")
				writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "Missing API key")
				return
			}

			if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
				logger.Warn().
					Str("path", r.URL.Path).
					Str("provided_key", providedKey[:min(8, len(providedKey))]).
					Msg("invalid API key")
				writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// JWTAuth requires a valid HS256 bearer token whose sub claim is a user id.
func JWTAuth(secret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return bearerAuth(secret, true, logger)
}

// OptionalJWT authenticates the user when a bearer token is present. A
// present but invalid token is still rejected.
func OptionalJWT(secret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return bearerAuth(secret, false, logger)
}

func bearerAuth(secret string, required bool, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" {
				if required {
					writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			userID, err := parseBearer(authz, secret)
			if err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("rejected bearer token")
				writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func parseBearer(authz, secret string) (uuid.UUID, error) {
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return uuid.Nil, errInvalidToken
	}
	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return uuid.Nil, errInvalidToken
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return uuid.Nil, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errInvalidToken
	}
	userID, err := uuid.Parse(sub)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, errInvalidToken
	}
	return userID, nil
}

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}
