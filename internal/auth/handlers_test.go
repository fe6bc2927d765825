package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogoutClearsAllCookies(t *testing.T) {
	h := NewHandler(nil, nil, false)

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest("POST", "/api/auth/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	cleared := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			cleared[c.Name] = true
		}
		assert.True(t, c.HttpOnly, c.Name)
	}
	for _, name := range []string{"access_token", "id_token", "refresh_token"} {
		assert.True(t, cleared[name], name)
	}
}

func TestSessionReflectsClaims(t *testing.T) {
	h := NewHandler(nil, nil, false)

	r := httptest.NewRequest("GET", "/api/auth/session", nil)
	r = r.WithContext(WithClaims(r.Context(), &Claims{
		Sub:      "s1",
		Username: "alice",
		Email:    "alice@example.com",
		Groups:   []string{"admin"},
	}))
	rec := httptest.NewRecorder()
	h.Session(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"username":"alice"`)
	assert.Contains(t, body, `"is_admin":true`)
}

func TestSessionWithoutClaims(t *testing.T) {
	h := NewHandler(nil, nil, false)

	rec := httptest.NewRecorder()
	h.Session(rec, httptest.NewRequest("GET", "/api/auth/session", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupWithoutProviderIsUpstreamFailure(t *testing.T) {
	h := NewHandler(nil, nil, false)

	body := strings.NewReader(`{"username":"alice99","email":"alice@example.com","password":"longenough1"}`)
	r := httptest.NewRequest("POST", "/api/auth/signup", body)
	rec := httptest.NewRecorder()
	h.Signup(rec, r)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSignupRejectsWhitespacePassword(t *testing.T) {
	h := NewHandler(nil, nil, false)

	body := strings.NewReader(`{"username":"alice99","email":"alice@example.com","password":"has space here"}`)
	r := httptest.NewRequest("POST", "/api/auth/signup", body)
	rec := httptest.NewRecorder()
	h.Signup(rec, r)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password")
}

func TestSignupRejectsMalformedBody(t *testing.T) {
	h := NewHandler(nil, nil, false)

	r := httptest.NewRequest("POST", "/api/auth/signup", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Signup(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
