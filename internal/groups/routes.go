// internal/groups/routes.go
package groups

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/multishowcase/showcase-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, mw *auth.Middleware) {
	api := router.PathPrefix("/api/groups").Subrouter()

	api.Handle("", mw.Authenticate(http.HandlerFunc(handler.Create))).Methods(http.MethodPost)
	api.Handle("", mw.OptionalAuthenticate(http.HandlerFunc(handler.List))).Methods(http.MethodGet)
	api.Handle("/{id}", mw.OptionalAuthenticate(http.HandlerFunc(handler.Get))).Methods(http.MethodGet)
	api.Handle("/{id}", mw.Authenticate(http.HandlerFunc(handler.Update))).Methods(http.MethodPut)
	api.Handle("/{id}", mw.Authenticate(http.HandlerFunc(handler.Delete))).Methods(http.MethodDelete)
	api.Handle("/{id}/members", mw.Authenticate(http.HandlerFunc(handler.Members))).Methods(http.MethodGet)
	api.Handle("/{id}/join", mw.Authenticate(http.HandlerFunc(handler.Join))).Methods(http.MethodPost)
	api.Handle("/{id}/leave", mw.Authenticate(http.HandlerFunc(handler.Leave))).Methods(http.MethodPost)
	api.Handle("/{id}/requests", mw.Authenticate(http.HandlerFunc(handler.Requests))).Methods(http.MethodGet)
	api.Handle("/{id}/requests/{requestId}/approve", mw.Authenticate(http.HandlerFunc(handler.Approve))).Methods(http.MethodPost)
	api.Handle("/{id}/requests/{requestId}/reject", mw.Authenticate(http.HandlerFunc(handler.Reject))).Methods(http.MethodPost)
}
