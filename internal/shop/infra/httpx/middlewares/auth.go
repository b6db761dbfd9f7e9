package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jcmexdev/storefront/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/storefront/internal/shop/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/shop/core/ports"
)

// TokenCookie is the cookie set at login.
const TokenCookie = "token"

type Authenticator interface {
	Authenticate(token string) (ports.Claims, error)
}

// BearerToken reads the token from the Authorization header, falling back to
// the login cookie.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate rejects requests without a valid token and stores the
// caller's id and role in the context.
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := auth.Authenticate(BearerToken(r))
			if err != nil {
				slog.DebugContext(r.Context(), "authentication failed", "path", r.URL.Path, "error", err)
				reject(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			ctx := context.WithValue(r.Context(), constants.ContextKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, constants.ContextKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must run after Authenticate.
func RequireRole(role entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Role(r.Context()) != role {
				reject(w, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func UserID(ctx context.Context) string {
	id, _ := ctx.Value(constants.ContextKeyUserID).(string)
	return id
}

func Role(ctx context.Context) entity.Role {
	role, _ := ctx.Value(constants.ContextKeyRole).(entity.Role)
	return role
}
