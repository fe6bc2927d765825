// internal/auth/handlers.go
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/multishowcase/showcase-backend/internal/common/apperr"
	"github.com/multishowcase/showcase-backend/internal/common/utils"
)

// UserStore is the slice of the users repository the auth surface needs.
// It is implemented by internal/users and wired in main to avoid a cycle.
type UserStore interface {
	SyncUser(ctx context.Context, sub, username, email, displayName string) error
}

type Handler struct {
	provider *IdentityProvider
	store    UserStore
	secure   bool
}

func NewHandler(provider *IdentityProvider, store UserStore, secureCookies bool) *Handler {
	return &Handler{provider: provider, store: store, secure: secureCookies}
}

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *Handler) requireProvider(w http.ResponseWriter) bool {
	if h.provider == nil {
		utils.ErrorResponse(w, http.StatusBadGateway, "Authentication provider is not configured")
		return false
	}
	return true
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if !h.requireProvider(w) {
		return
	}

	sub, err := h.provider.SignUp(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	if h.store != nil {
		if err := h.store.SyncUser(r.Context(), sub, req.Username, req.Email, ""); err != nil {
			utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
			return
		}
	}
	utils.SuccessResponse(w, http.StatusCreated, "Account created, confirmation code sent", map[string]string{
		"username": req.Username,
	})
}

func (h *Handler) ConfirmSignup(w http.ResponseWriter, r *http.Request) {
	var req ConfirmSignupRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if !h.requireProvider(w) {
		return
	}

	if err := h.provider.ConfirmSignUp(r.Context(), req.Username, req.Code); err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.MessageResponse(w, http.StatusOK, "Account confirmed")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if !h.requireProvider(w) {
		return
	}

	tokens, err := h.provider.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}

	expiry := time.Duration(tokens.ExpiresIn) * time.Second
	h.setCookie(w, "access_token", tokens.AccessToken, expiry)
	h.setCookie(w, "id_token", tokens.IDToken, expiry)
	if tokens.RefreshToken != "" {
		h.setCookie(w, "refresh_token", tokens.RefreshToken, 30*24*time.Hour)
	}

	utils.SuccessResponse(w, http.StatusOK, "Logged in", map[string]interface{}{
		"expires_in": tokens.ExpiresIn,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{"access_token", "id_token", "refresh_token"} {
		h.clearCookie(w, name)
	}
	utils.MessageResponse(w, http.StatusOK, "Logged out")
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if !h.requireProvider(w) {
		return
	}

	if err := h.provider.ForgotPassword(r.Context(), req.Username); err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.MessageResponse(w, http.StatusOK, "Password reset code sent")
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if !h.requireProvider(w) {
		return
	}

	if err := h.provider.ConfirmForgotPassword(r.Context(), req.Username, req.Code, req.NewPassword); err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.MessageResponse(w, http.StatusOK, "Password has been reset")
}

// Session reports the authenticated identity from the request credential.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Session active", MeResponse{
		Sub:      claims.Sub,
		Username: claims.Username,
		Email:    claims.Email,
		Name:     claims.Name,
		Groups:   claims.Groups,
		IsAdmin:  claims.IsAdmin(),
	})
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
