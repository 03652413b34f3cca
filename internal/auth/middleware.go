package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/thanakrit-dev/election-be/internal/models"
)

type contextKey string

const (
	claimsKey   = contextKey("authClaims")
	rawTokenKey = contextKey("authRawToken")
)

// ClaimsFromContext returns the claims stored by the middleware, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// RawTokenFromContext returns the verbatim token string stored by the
// middleware. The refresh flow needs it to compare against the stored hash.
func RawTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(rawTokenKey).(string)
	return token, ok
}

// RequireAccess protects routes with a valid access token.
func (m *TokenManager) RequireAccess(next http.Handler) http.Handler {
	return m.require(next, m.ParseAccess, http.StatusUnauthorized)
}

// RequireRefresh protects the refresh endpoint with a valid refresh token.
// Failures are 403 so a client knows re-authentication is needed.
func (m *TokenManager) RequireRefresh(next http.Handler) http.Handler {
	return m.require(next, m.ParseRefresh, http.StatusForbidden)
}

func (m *TokenManager) require(next http.Handler, parse func(string) (*Claims, error), failStatus int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractToken(r)
		if tokenStr == "" {
			http.Error(w, "access denied", failStatus)
			return
		}

		claims, err := parse(tokenStr)
		if err != nil {
			http.Error(w, "access denied", failStatus)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		ctx = context.WithValue(ctx, rawTokenKey, tokenStr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route on the authenticated account's role. It must sit
// inside RequireAccess.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || claims.Role != role {
				http.Error(w, "access denied", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads the bearer token from the Authorization header, falling
// back to the "token" cookie.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	cookie, err := r.Cookie("token")
	if err == nil {
		return cookie.Value
	}
	return ""
}
