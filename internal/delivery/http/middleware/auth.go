package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/velesk/marketplace-api/internal/auth"
	"github.com/velesk/marketplace-api/internal/delivery/http/response"
	"github.com/velesk/marketplace-api/internal/domain"
	"github.com/velesk/marketplace-api/internal/pkg/logger"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityFrom returns the authenticated identity stored by Authenticate
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(domain.Identity)
	return ident, ok
}

// Authenticate returns a middleware that resolves the caller's identity from
// the Authorization: Bearer header and stores it in the request context.
// Requests without a valid token are rejected with 401.
func Authenticate(jwtManager *auth.JWTManager, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Error(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				response.Error(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			ident, err := jwtManager.ResolveIdentity(parts[1])
			if err != nil {
				log.WithFields(map[string]interface{}{
					"path": r.URL.Path,
				}).Debugf("Token rejected: %v", err)
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, *ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns a middleware that rejects authenticated callers whose
// role is not in the allowed set. Must run after Authenticate.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFrom(r.Context())
			if !ok {
				response.Error(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			if _, ok := allowed[ident.Role]; !ok {
				response.Error(w, http.StatusForbidden, "Insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity stores an identity in the context. Exposed for handler tests
// that bypass the Authenticate middleware.
func WithIdentity(ctx context.Context, ident domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}
