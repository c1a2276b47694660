// CLAUDE:SUMMARY Reusable HTTP middleware for the domshot command API: security headers, body limit, request IDs, bcrypt bearer token.
// Package shield provides the HTTP middleware stack in front of the
// domshot command API.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.APIStack() {
//	    r.Use(mw)
//	}
//	r.Use(shield.RequireBearer(tokenHash, logger))
package shield

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// DefaultMaxBody bounds request bodies in APIStack.
const DefaultMaxBody = 64 * 1024

// APIStack returns the standard middleware stack for a JSON API.
// Ordered: SecurityHeaders → MaxBody → RequestID.
func APIStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders(APIHeaders()),
		MaxBody(DefaultMaxBody),
		RequestID,
	}
}

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
