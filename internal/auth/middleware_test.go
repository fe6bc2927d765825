package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multishowcase/showcase-backend/internal/common/apperr"
)

type stubVerifier struct {
	claims *Claims
	calls  int
}

func (v *stubVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	v.calls++
	if v.claims == nil {
		return nil, fmt.Errorf("%w: bad token", apperr.ErrUnauthenticated)
	}
	return v.claims, nil
}

type stubStore struct {
	calls int
	subs  []string
	names []string
	err   error
}

func (s *stubStore) SyncUser(ctx context.Context, sub, username, email, displayName string) error {
	s.calls++
	s.subs = append(s.subs, sub)
	s.names = append(s.names, displayName)
	return s.err
}

func TestTokenFromRequestPrecedence(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: "id_token", Value: "id-cookie"})
	assert.Equal(t, "id-cookie", TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: "access_token", Value: "access-cookie"})
	assert.Equal(t, "access-cookie", TokenFromRequest(r))
}

func TestAuthenticateRejectsMissingCredential(t *testing.T) {
	mw := NewMiddleware(&stubVerifier{}, nil, nil)

	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":false`)
}

func TestAuthenticateAttachesClaims(t *testing.T) {
	verifier := &stubVerifier{claims: &Claims{Sub: "s1", Username: "alice"}}
	mw := NewMiddleware(verifier, nil, nil)

	var got *Claims
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest("GET", "/api/me", nil)
	r.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
}

func TestOptionalAuthenticateLetsAnonymousThrough(t *testing.T) {
	mw := NewMiddleware(&stubVerifier{}, nil, nil)

	ran := false
	handler := mw.OptionalAuthenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
		_, ok := ClaimsFromContext(r.Context())
		assert.False(t, ok)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/feed", nil))
	assert.True(t, ran)
}

func TestAuthenticateUpsertsLocalRowPerRequest(t *testing.T) {
	verifier := &stubVerifier{claims: &Claims{Sub: "s1", Username: "alice", Email: "a@example.com", Name: "Alice"}}
	store := &stubStore{}
	mw := NewMiddleware(verifier, nil, store)

	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest("GET", "/api/me", nil)
		r.Header.Set("Authorization", "Bearer sometoken")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 3, store.calls)
	assert.Equal(t, []string{"s1", "s1", "s1"}, store.subs)
	assert.Equal(t, "Alice", store.names[0])
}

func TestAuthenticateSurfacesSyncFailure(t *testing.T) {
	verifier := &stubVerifier{claims: &Claims{Sub: "s1", Username: "alice"}}
	store := &stubStore{err: fmt.Errorf("%w: username is already taken", apperr.ErrConflict)}
	mw := NewMiddleware(verifier, nil, store)

	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest("GET", "/api/me", nil)
	r.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username is already taken")
}

func TestOptionalAuthenticateSyncsViewer(t *testing.T) {
	verifier := &stubVerifier{claims: &Claims{Sub: "s2", Username: "bob"}}
	store := &stubStore{}
	mw := NewMiddleware(verifier, nil, store)

	handler := mw.OptionalAuthenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "bob", claims.Username)
	}))

	r := httptest.NewRequest("GET", "/api/feed", nil)
	r.Header.Set("Authorization", "Bearer sometoken")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, 1, store.calls)
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("forbidden without admin group", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/admin/reports", nil)
		r = r.WithContext(WithClaims(r.Context(), &Claims{Username: "alice"}))
		rec := httptest.NewRecorder()
		RequireAdmin(ok).ServeHTTP(rec, r)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("allowed with admin group", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/admin/reports", nil)
		r = r.WithContext(WithClaims(r.Context(), &Claims{Username: "root", Groups: []string{"admin"}}))
		rec := httptest.NewRecorder()
		RequireAdmin(ok).ServeHTTP(rec, r)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
