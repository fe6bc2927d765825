// internal/users/routes.go
package users

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/multishowcase/showcase-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, mw *auth.Middleware) {
	api := router.PathPrefix("/api").Subrouter()

	api.Handle("/me", mw.Authenticate(http.HandlerFunc(handler.Me))).Methods(http.MethodGet)
	api.Handle("/me", mw.Authenticate(http.HandlerFunc(handler.UpdateMe))).Methods(http.MethodPut)
	api.Handle("/me", mw.Authenticate(http.HandlerFunc(handler.DeleteMe))).Methods(http.MethodDelete)

	api.Handle("/users/{username}", mw.OptionalAuthenticate(http.HandlerFunc(handler.Profile))).Methods(http.MethodGet)
	api.Handle("/users/{username}/follow", mw.Authenticate(http.HandlerFunc(handler.Follow))).Methods(http.MethodPost)
	api.Handle("/users/{username}/follow", mw.Authenticate(http.HandlerFunc(handler.Unfollow))).Methods(http.MethodDelete)

	api.Handle("/uploads", mw.Authenticate(http.HandlerFunc(handler.Upload))).Methods(http.MethodPost)
	api.Handle("/uploads/presign", mw.Authenticate(http.HandlerFunc(handler.PresignUpload))).Methods(http.MethodPost)
}
