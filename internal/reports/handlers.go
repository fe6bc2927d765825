// internal/reports/handlers.go
package reports

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/multishowcase/showcase-backend/internal/auth"
	"github.com/multishowcase/showcase-backend/internal/common/apperr"
	"github.com/multishowcase/showcase-backend/internal/common/utils"
)

type UserResolver interface {
	ResolveID(ctx context.Context, sub string) (uuid.UUID, error)
}

// Store is the persistence surface the handlers need, satisfied by
// *Repository.
type Store interface {
	Create(ctx context.Context, reporterID uuid.UUID, req CreateReportRequest) (*Report, error)
	List(ctx context.Context, status string, limit, offset int) ([]*Report, error)
	Resolve(ctx context.Context, reportID, adminID uuid.UUID, req UpdateReportRequest) (*Report, error)
	Actions(ctx context.Context, limit, offset int) ([]*AdminAction, error)
}

type Handler struct {
	repo     Store
	resolver UserResolver
}

func NewHandler(repo Store, resolver UserResolver) *Handler {
	return &Handler{repo: repo, resolver: resolver}
}

func (h *Handler) requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	id, err := h.resolver.ResolveID(r.Context(), claims.Sub)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return uuid.Nil, false
	}
	return id, true
}

// Create files a report from any authenticated user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.repo.Create(r.Context(), userID, req)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusCreated, "Report submitted", report)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	list, err := h.repo.List(r.Context(), q.Get("status"), limit, offset)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Reports loaded", list)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	reportID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	var req UpdateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.repo.Resolve(r.Context(), reportID, adminID, req)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Report updated", report)
}

func (h *Handler) actions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	list, err := h.repo.Actions(r.Context(), limit, offset)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Admin actions loaded", list)
}

// AdminRouter builds the moderation sub-router. The caller mounts it behind
// the authentication and admin gates.
func (h *Handler) AdminRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/reports", h.list)
	r.Put("/reports/{id}", h.resolve)
	r.Get("/actions", h.actions)
	return r
}
