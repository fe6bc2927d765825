// internal/posts/handlers.go
package posts

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/multishowcase/showcase-backend/internal/auth"
	"github.com/multishowcase/showcase-backend/internal/common/apperr"
	"github.com/multishowcase/showcase-backend/internal/common/utils"
)

// UserResolver maps identity claims to local user rows.
type UserResolver interface {
	ResolveID(ctx context.Context, sub string) (uuid.UUID, error)
	ResolveUsernameID(ctx context.Context, username string) (uuid.UUID, error)
}

type Handler struct {
	service  *Service
	resolver UserResolver
}

func NewHandler(service *Service, resolver UserResolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

// viewerID resolves the optional authenticated viewer to a local user id.
func (h *Handler) viewerID(r *http.Request) *uuid.UUID {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return nil
	}
	id, err := h.resolver.ResolveID(r.Context(), claims.Sub)
	if err != nil {
		return nil
	}
	return &id
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

func parseFeedOptions(r *http.Request) FeedOptions {
	q := r.URL.Query()
	opts := FeedOptions{
		CategorySlug: q.Get("category"),
		Search:       strings.TrimSpace(q.Get("search")),
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		opts.Offset = v
	}
	if id, err := uuid.Parse(q.Get("group_id")); err == nil {
		opts.GroupID = &id
	}
	if q.Get("exclude_group_posts") == "true" {
		opts.ExcludeGroupPosts = true
	}
	if raw := q.Get("statuses"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == StatusPublished || s == StatusUnpublished {
				opts.Statuses = append(opts.Statuses, s)
			}
		}
	}
	return opts
}

// Feed serves the unified feed. The home feed excludes group posts unless a
// group filter is set.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	opts := parseFeedOptions(r)
	opts.ViewerID = h.viewerID(r)

	if author := r.URL.Query().Get("author"); author != "" {
		id, err := h.resolver.ResolveUsernameID(r.Context(), author)
		if err != nil {
			utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
			return
		}
		opts.AuthorID = &id
	}

	page, err := h.service.Feed(r.Context(), opts)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Feed loaded", page)
}

// Explore serves the category list alongside a first page of recent posts.
func (h *Handler) Explore(w http.ResponseWriter, r *http.Request) {
	opts := parseFeedOptions(r)
	opts.ViewerID = h.viewerID(r)
	opts.ExcludeGroupPosts = true

	page, err := h.service.Feed(r.Context(), opts)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Explore loaded", map[string]interface{}{
		"categories": Categories(),
		"feed":       page,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	post, err := h.service.Get(r.Context(), postID, h.viewerID(r))
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Post loaded", post)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, nil)
}

// CreateInGroup posts into the group named by the path, overriding any group
// id in the body.
func (h *Handler) CreateInGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid group id")
		return
	}
	h.create(w, r, &groupID)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, groupID *uuid.UUID) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if groupID != nil {
		req.GroupID = groupID
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if (req.Title == nil || *req.Title == "") && (req.Body == nil || *req.Body == "") && len(req.Media) == 0 {
		utils.ErrorResponse(w, http.StatusBadRequest, "A post needs a title, body or media")
		return
	}

	post, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusCreated, "Post created", post)
}

// Tags lists the fixed category set.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	utils.SuccessResponse(w, http.StatusOK, "Categories loaded", Categories())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	postID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := h.service.Delete(r.Context(), postID, userID, claims.IsAdmin()); err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.MessageResponse(w, http.StatusOK, "Post deleted")
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	postID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	var req UpdatePostStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdateStatus(r.Context(), postID, userID, req.Status); err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.MessageResponse(w, http.StatusOK, "Post status updated")
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	postID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	count, err := h.service.Like(r.Context(), postID, userID)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Post liked", map[string]int{"like_count": count})
}

func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	postID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	count, err := h.service.Unlike(r.Context(), postID, userID)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Post unliked", map[string]int{"like_count": count})
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := h.service.AddComment(r.Context(), userID, req)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusCreated, "Comment added", comment)
}

func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	postID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid post id")
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	comments, err := h.service.Comments(r.Context(), postID, limit, offset)
	if err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.SuccessResponse(w, http.StatusOK, "Comments loaded", comments)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUserID(w, r)
	if !ok {
		return
	}
	commentID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Invalid comment id")
		return
	}

	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := h.service.DeleteComment(r.Context(), commentID, userID, claims.IsAdmin()); err != nil {
		utils.ErrorResponse(w, apperr.StatusCode(err), apperr.Message(err))
		return
	}
	utils.MessageResponse(w, http.StatusOK, "Comment deleted")
}
