package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator defines the interface for validating bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	InstitutionID string
	ClientID      string
}

type contextKeyInstitutionID struct{}
type contextKeyClientID struct{}

// Context keys for storing authenticated caller information.
var (
	ContextKeyInstitutionID = contextKeyInstitutionID{}
	ContextKeyClientID      = contextKeyClientID{}
)

// GetInstitutionID retrieves the authenticated institution from the context.
func GetInstitutionID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyInstitutionID).(string)
	if !ok {
		return ""
	}
	return id
}

// GetClientID retrieves the calling client from the context.
func GetClientID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyClientID).(string)
	if !ok {
		return ""
	}
	return id
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				if logger != nil {
					logger.WarnContext(r.Context(), "token validation failed",
						"request_id", GetRequestID(r.Context()),
						"error", err.Error(),
					)
				}
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyInstitutionID, claims.InstitutionID)
			ctx = context.WithValue(ctx, ContextKeyClientID, claims.ClientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
