// internal/posts/service.go
package posts

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/multishowcase/showcase-backend/internal/common/apperr"
	"github.com/multishowcase/showcase-backend/internal/storage"
)

// Broadcaster pushes mutation events to connected clients, optionally scoped
// to a group context.
type Broadcaster interface {
	Publish(eventType string, payload interface{}, groupID *uuid.UUID)
}

// GroupGate answers membership questions for group-scoped posts.
type GroupGate interface {
	IsMemberOrOwner(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
}

// Store is the persistence surface the service needs, satisfied by
// *Repository.
type Store interface {
	Feed(ctx context.Context, opts FeedOptions) (*FeedPage, error)
	GetView(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*PostView, error)
	Create(ctx context.Context, authorID uuid.UUID, req CreatePostRequest, resolveURL func(key string) string) (uuid.UUID, error)
	Owner(ctx context.Context, postID uuid.UUID) (authorID uuid.UUID, groupID *uuid.UUID, err error)
	MediaKeys(ctx context.Context, postID uuid.UUID) ([]string, error)
	Delete(ctx context.Context, postID uuid.UUID) error
	UpdateStatus(ctx context.Context, postID uuid.UUID, status string) error
	Like(ctx context.Context, postID, userID uuid.UUID) (liked bool, err error)
	Unlike(ctx context.Context, postID, userID uuid.UUID) error
	LikeCount(ctx context.Context, postID uuid.UUID) (int, error)
	AddComment(ctx context.Context, userID uuid.UUID, req CreateCommentRequest) (*Comment, error)
	Comments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*Comment, error)
	CommentOwner(ctx context.Context, commentID uuid.UUID) (uuid.UUID, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
}

type Service struct {
	repo         Store
	store        storage.Storage
	broadcaster  Broadcaster
	groups       GroupGate
	defaultLimit int
	maxLimit     int
}

func NewService(repo Store, store storage.Storage, broadcaster Broadcaster, groups GroupGate, defaultLimit, maxLimit int) *Service {
	if defaultLimit <= 0 {
		defaultLimit = feedDefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = feedMaxLimit
	}
	return &Service{
		repo:         repo,
		store:        store,
		broadcaster:  broadcaster,
		groups:       groups,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Feed applies the configured page limits and the visibility rules before
// hitting the repository: only the author may see unpublished posts, and
// only on their own author-filtered view.
func (s *Service) Feed(ctx context.Context, opts FeedOptions) (*FeedPage, error) {
	if opts.Limit <= 0 {
		opts.Limit = s.defaultLimit
	}
	if opts.Limit > s.maxLimit {
		opts.Limit = s.maxLimit
	}
	if containsStatus(opts.Statuses, StatusUnpublished) {
		ownView := opts.ViewerID != nil && opts.AuthorID != nil && *opts.ViewerID == *opts.AuthorID
		if !ownView {
			opts.Statuses = []string{StatusPublished}
		}
	}
	return s.repo.Feed(ctx, opts)
}

func containsStatus(statuses []string, status string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s *Service) Get(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*PostView, error) {
	post, err := s.repo.GetView(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	if post.Status == StatusUnpublished {
		if viewerID == nil || *viewerID != post.AuthorID {
			return nil, fmt.Errorf("%w: post not found", apperr.ErrNotFound)
		}
	}
	return post, nil
}

// Create verifies group membership and media existence, writes the post in
// one transaction, then broadcasts the denormalized view. The category
// arrives as a slug and is stored as its display label.
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, req CreatePostRequest) (*PostView, error) {
	if req.Category != "" {
		label, ok := CategoryLabel(req.Category)
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, req.Category)
		}
		req.Category = label
	}

	if req.GroupID != nil {
		allowed, err := s.groups.IsMemberOrOwner(ctx, *req.GroupID, authorID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: you must be a member of this group to post in it", apperr.ErrForbidden)
		}
	}

	if err := s.verifyMediaExists(ctx, req.Media); err != nil {
		return nil, err
	}

	postID, err := s.repo.Create(ctx, authorID, req, s.store.URLForKey)
	if err != nil {
		return nil, err
	}

	post, err := s.repo.GetView(ctx, postID, nil)
	if err != nil {
		return nil, err
	}

	if post.Status == StatusPublished {
		s.broadcaster.Publish("new_post", post, post.GroupID)
	}
	return post, nil
}

// verifyMediaExists rejects descriptors whose storage keys do not resolve to
// a stored object, naming every missing key.
func (s *Service) verifyMediaExists(ctx context.Context, media []MediaDescriptor) error {
	var missing []string
	for _, m := range media {
		if m.StorageKey == "" {
			continue
		}
		exists, err := s.store.HeadExists(ctx, m.StorageKey)
		if err != nil {
			return fmt.Errorf("%w: could not verify uploaded media", apperr.ErrUpstream)
		}
		if !exists {
			missing = append(missing, m.StorageKey)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: media not found in storage: %s",
			apperr.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// Delete is gated on ownership or admin. Storage cleanup is best effort and
// happens after commit, so a failed object delete never resurrects rows.
func (s *Service) Delete(ctx context.Context, postID, callerID uuid.UUID, callerIsAdmin bool) error {
	authorID, groupID, err := s.repo.Owner(ctx, postID)
	if err != nil {
		return err
	}
	if authorID != callerID && !callerIsAdmin {
		return fmt.Errorf("%w: only the author or an admin can delete this post", apperr.ErrForbidden)
	}

	keys, err := s.repo.MediaKeys(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, postID); err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			log.Printf("failed to delete storage object %s: %v", key, err)
		}
	}

	s.broadcaster.Publish("post_deleted", map[string]interface{}{"post_id": postID}, groupID)
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, postID, callerID uuid.UUID, status string) error {
	authorID, _, err := s.repo.Owner(ctx, postID)
	if err != nil {
		return err
	}
	if authorID != callerID {
		return fmt.Errorf("%w: only the author can change this post's status", apperr.ErrForbidden)
	}
	return s.repo.UpdateStatus(ctx, postID, status)
}

func (s *Service) Like(ctx context.Context, postID, userID uuid.UUID) (int, error) {
	_, groupID, err := s.repo.Owner(ctx, postID)
	if err != nil {
		return 0, err
	}
	liked, err := s.repo.Like(ctx, postID, userID)
	if err != nil {
		return 0, err
	}
	count, err := s.repo.LikeCount(ctx, postID)
	if err != nil {
		return 0, err
	}
	if liked {
		s.broadcaster.Publish("post_liked", map[string]interface{}{
			"post_id":    postID,
			"like_count": count,
		}, groupID)
	}
	return count, nil
}

func (s *Service) Unlike(ctx context.Context, postID, userID uuid.UUID) (int, error) {
	_, groupID, err := s.repo.Owner(ctx, postID)
	if err != nil {
		return 0, err
	}
	if err := s.repo.Unlike(ctx, postID, userID); err != nil {
		return 0, err
	}
	count, err := s.repo.LikeCount(ctx, postID)
	if err != nil {
		return 0, err
	}
	s.broadcaster.Publish("post_unliked", map[string]interface{}{
		"post_id":    postID,
		"like_count": count,
	}, groupID)
	return count, nil
}

func (s *Service) AddComment(ctx context.Context, userID uuid.UUID, req CreateCommentRequest) (*Comment, error) {
	_, groupID, err := s.repo.Owner(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	comment, err := s.repo.AddComment(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	s.broadcaster.Publish("new_comment", comment, groupID)
	return comment, nil
}

func (s *Service) Comments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*Comment, error) {
	return s.repo.Comments(ctx, postID, limit, offset)
}

func (s *Service) DeleteComment(ctx context.Context, commentID, callerID uuid.UUID, callerIsAdmin bool) error {
	ownerID, err := s.repo.CommentOwner(ctx, commentID)
	if err != nil {
		return err
	}
	if ownerID != callerID && !callerIsAdmin {
		return fmt.Errorf("%w: only the author or an admin can delete this comment", apperr.ErrForbidden)
	}
	return s.repo.DeleteComment(ctx, commentID)
}
