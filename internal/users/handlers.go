// internal/users/handlers.go
package users

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/multishowcase/showcase-backend/internal/auth"
	"github.com/multishowcase/showcase-backend/internal/common/apperr"
	"github.com/multishowcase/showcase-backend/internal/common/utils"
)

const maxUploadBytes = 25 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	user, err := h.service.GetBySub(r.Context(), claims.Sub)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Profile loaded", user)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), claims.Sub, req)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Profile updated", user)
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := h.service.DeleteAccount(r.Context(), claims.Sub); err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.MessageResponse(w, http.StatusOK, "Account deleted")
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	viewerSub := ""
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		viewerSub = claims.Sub
	}

	profile, err := h.service.ProfileByUsername(r.Context(), username, viewerSub)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Profile loaded", profile)
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	username := mux.Vars(r)["username"]

	if err := h.service.Follow(r.Context(), claims.Sub, username); err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.MessageResponse(w, http.StatusOK, "Now following "+username)
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	username := mux.Vars(r)["username"]

	if err := h.service.Unfollow(r.Context(), claims.Sub, username); err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.MessageResponse(w, http.StatusOK, "Unfollowed "+username)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := h.service.Upload(r.Context(), claims.Username, header.Filename, contentType, file)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusCreated, "File uploaded", result)
}

func (h *Handler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req PresignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.PresignUpload(r.Context(), claims.Username, req)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Upload URL issued", result)
}
