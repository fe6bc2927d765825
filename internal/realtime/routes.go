// internal/realtime/routes.go
package realtime

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/multishowcase/showcase-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, sse *SSEHandler, ws *WSHandler, mw *auth.Middleware) {
	api := router.PathPrefix("/api/events").Subrouter()
	api.Handle("", mw.OptionalAuthenticate(sse)).Methods(http.MethodGet)
	api.Handle("/ws", mw.OptionalAuthenticate(ws)).Methods(http.MethodGet)
}
