// internal/auth/middleware.go
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/multishowcase/showcase-backend/internal/common/apperr"
	"github.com/multishowcase/showcase-backend/internal/common/utils"
)

type contextKey string

const claimsContextKey contextKey = "auth_claims"

// ClaimsFromContext returns the authenticated identity, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// WithClaims is exported for handler tests.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// TokenFromRequest extracts the credential: the access_token cookie wins,
// then the id_token cookie, then a Bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie("access_token"); err == nil && c.Value != "" {
		return c.Value
	}
	if c, err := r.Cookie("id_token"); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// Middleware authenticates requests and stores claims on the context. Every
// verified identity is upserted into the local users table before the handler
// runs, so a first request from any pool user creates their row and later
// requests reconcile email and display name drift.
type Middleware struct {
	verifier Verifier
	cache    *ClaimsCache
	store    UserStore
}

func NewMiddleware(verifier Verifier, cache *ClaimsCache, store UserStore) *Middleware {
	return &Middleware{verifier: verifier, cache: cache, store: store}
}

func (m *Middleware) resolve(r *http.Request) (*Claims, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, apperr.ErrUnauthenticated
	}
	if claims, ok := m.cache.Get(r.Context(), token); ok {
		return claims, nil
	}
	claims, err := m.verifier.Verify(r.Context(), token)
	if err != nil {
		return nil, err
	}
	m.cache.Set(r.Context(), token, claims)
	return claims, nil
}

func (m *Middleware) sync(r *http.Request, claims *Claims) error {
	if m.store == nil {
		return nil
	}
	return m.store.SyncUser(r.Context(), claims.Sub, claims.Username, claims.Email, claims.Name)
}

// Authenticate rejects requests without a valid credential.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.resolve(r)
		if err != nil {
			utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if err := m.sync(r, claims); err != nil {
			utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// OptionalAuthenticate attaches claims when a valid credential is present
// and lets the request through either way. The local row upsert is best
// effort here; anonymous access cannot depend on it.
func (m *Middleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := m.resolve(r); err == nil {
			_ = m.sync(r, claims)
			r = r.WithContext(WithClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin gates a handler on the admin Cognito group. It must run
// inside Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || !claims.IsAdmin() {
			utils.ErrorResponse(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
