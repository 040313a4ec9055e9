package utils

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const claimsKey contextKey = "claims"

// CurrentUser extracts the bearer token and verifies it. Returns nil for a
// missing, malformed or expired token.
func CurrentUser(r *http.Request) *Claims {
	authHeader := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return nil
	}
	tokenString := strings.TrimSpace(authHeader[len(prefix):])
	if tokenString == "" {
		return nil
	}
	claims, err := VerifyToken(tokenString)
	if err != nil {
		return nil
	}
	return claims
}

// ClaimsFromContext returns the claims stashed by RequireAuth/RequireAdmin.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// RequireAuth short-circuits with 401 when the caller has no valid identity.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := CurrentUser(r)
		if claims == nil {
			WriteUnauthorized(w)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin short-circuits with 401 for anonymous callers and 403 for
// authenticated callers without an admin role.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := CurrentUser(r)
		if claims == nil {
			WriteUnauthorized(w)
			return
		}
		if !claims.IsAdmin() {
			WriteForbidden(w, "Admin access required")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// CanModify is the single ownership check used before every post/comment
// mutation. Admins bypass ownership everywhere.
func CanModify(ownerID uint, claims *Claims) bool {
	if claims == nil {
		return false
	}
	return claims.UserID == ownerID || claims.IsAdmin()
}
