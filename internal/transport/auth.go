package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rpggio/syncteam/internal/domain/session"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

type identityKey struct{}

// IdentityResolver resolves the signed-in user from a bearer token.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*session.Identity, error)
}

// IdentityFromContext returns the caller identity from context, if present.
func IdentityFromContext(ctx context.Context) (*session.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*session.Identity)
	return id, ok && id != nil
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *session.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// bearerToken reads the token from the Authorization header. Browsers cannot
// set headers on websocket upgrades, so the token query parameter is accepted
// as a fallback.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")); token != "" && token != auth {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			id, err := resolver.Resolve(r.Context(), token)
			if err != nil || id == nil || id.UserID == "" {
				writeError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
