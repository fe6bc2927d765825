// internal/posts/routes.go
package posts

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/multishowcase/showcase-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, mw *auth.Middleware) {
	api := router.PathPrefix("/api").Subrouter()

	api.Handle("/feed", mw.OptionalAuthenticate(http.HandlerFunc(handler.Feed))).Methods(http.MethodGet)
	api.Handle("/explore", mw.OptionalAuthenticate(http.HandlerFunc(handler.Explore))).Methods(http.MethodGet)
	api.HandleFunc("/tags", handler.Tags).Methods(http.MethodGet)

	api.Handle("/posts", mw.Authenticate(http.HandlerFunc(handler.Create))).Methods(http.MethodPost)
	api.Handle("/groups/{id}/posts", mw.Authenticate(http.HandlerFunc(handler.CreateInGroup))).Methods(http.MethodPost)
	api.Handle("/posts/{id}", mw.OptionalAuthenticate(http.HandlerFunc(handler.Get))).Methods(http.MethodGet)
	api.Handle("/posts/{id}", mw.Authenticate(http.HandlerFunc(handler.Delete))).Methods(http.MethodDelete)
	api.Handle("/posts/{id}/status", mw.Authenticate(http.HandlerFunc(handler.UpdateStatus))).Methods(http.MethodPatch)

	api.Handle("/posts/{id}/like", mw.Authenticate(http.HandlerFunc(handler.Like))).Methods(http.MethodPost)
	api.Handle("/posts/{id}/like", mw.Authenticate(http.HandlerFunc(handler.Unlike))).Methods(http.MethodDelete)

	api.Handle("/posts/{id}/comments", mw.OptionalAuthenticate(http.HandlerFunc(handler.Comments))).Methods(http.MethodGet)
	api.Handle("/comments", mw.Authenticate(http.HandlerFunc(handler.CreateComment))).Methods(http.MethodPost)
	api.Handle("/comments/{id}", mw.Authenticate(http.HandlerFunc(handler.DeleteComment))).Methods(http.MethodDelete)
}
