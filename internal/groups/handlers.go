// internal/groups/handlers.go
package groups

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/multishowcase/showcase-backend/internal/auth"
	"github.com/multishowcase/showcase-backend/internal/common/apperr"
	"github.com/multishowcase/showcase-backend/internal/common/utils"
)

type UserResolver interface {
	ResolveID(ctx context.Context, sub string) (uuid.UUID, error)
}

type Handler struct {
	service  *Service
	resolver UserResolver
}

func NewHandler(service *Service, resolver UserResolver) *Handler {
	return &Handler{service: service, resolver: resolver}
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

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	group, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusCreated, "Group created", group)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	groups, err := h.service.List(r.Context(), q.Get("search"), limit, offset)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Groups loaded", groups)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "id")
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid group id")
		return
	}

	var viewerID *uuid.UUID
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		if id, err := h.resolver.ResolveID(r.Context(), claims.Sub); err == nil {
			viewerID = &id
		}
	}

	group, err := h.service.Get(r.Context(), groupID, viewerID)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Group loaded", group)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid group id")
		return
	}

	var req UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	group, err := h.service.Update(r.Context(), groupID, userID, req)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Group updated", group)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid group id")
		return
	}

	if err := h.service.Delete(r.Context(), groupID, userID); err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.MessageResponse(w, http.StatusOK, "Group deleted")
}

func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid group id")
		return
	}

	members, err := h.service.Members(r.Context(), groupID, userID)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Members loaded", members)
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid group id")
		return
	}

	if err := h.service.RequestJoin(r.Context(), groupID, userID); err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Join request submitted", map[string]string{
		"status": RequestPending,
	})
}

func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid group id")
		return
	}

	deleted, err := h.service.Leave(r.Context(), groupID, userID)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	if deleted {
		utils.MessageResponse(w, http.StatusOK, "You left and the empty group was deleted")
		return
	}
	utils.MessageResponse(w, http.StatusOK, "You left the group")
}

func (h *Handler) Requests(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid group id")
		return
	}

	requests, err := h.service.PendingRequests(r.Context(), groupID, userID)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Join requests loaded", requests)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	requestID, err := pathID(r, "requestId")
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	if err := h.service.Approve(r.Context(), requestID, userID); err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.MessageResponse(w, http.StatusOK, "Request approved")
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	requestID, err := pathID(r, "requestId")
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	if err := h.service.Reject(r.Context(), requestID, userID); err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.MessageResponse(w, http.StatusOK, "Request rejected")
}
