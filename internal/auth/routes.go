// internal/auth/routes.go
package auth

import (
	"net/http"

	"github.com/gorilla/mux"
)

func RegisterRoutes(router *mux.Router, handler *Handler, mw *Middleware) {
	api := router.PathPrefix("/api/auth").Subrouter()

	api.HandleFunc("/signup", handler.Signup).Methods(http.MethodPost)
	api.HandleFunc("/confirm", handler.ConfirmSignup).Methods(http.MethodPost)
	api.HandleFunc("/login", handler.Login).Methods(http.MethodPost)
	api.HandleFunc("/logout", handler.Logout).Methods(http.MethodPost)
	api.HandleFunc("/forgot-password", handler.ForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/reset-password", handler.ResetPassword).Methods(http.MethodPost)

	api.Handle("/session", mw.Authenticate(http.HandlerFunc(handler.Session))).Methods(http.MethodGet)
}
