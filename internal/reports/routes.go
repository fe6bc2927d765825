// internal/reports/routes.go
package reports

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/multishowcase/showcase-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, mw *auth.Middleware) {
	router.Handle("/api/reports", mw.Authenticate(http.HandlerFunc(handler.Create))).Methods(http.MethodPost)

	admin := mw.Authenticate(auth.RequireAdmin(
		http.StripPrefix("/api/admin", handler.AdminRouter())))
	router.PathPrefix("/api/admin").Handler(admin)
}
