// internal/users/service.go
package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/multishowcase/showcase-backend/internal/common/apperr"
	"github.com/multishowcase/showcase-backend/internal/storage"
)

// Store is the persistence surface the service needs, satisfied by
// *Repository.
type Store interface {
	SyncUser(ctx context.Context, sub, username, email, displayName string) error
	GetBySub(ctx context.Context, sub string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*User, error)
	Stats(ctx context.Context, userID uuid.UUID, includeUnpublished bool) (ProfileStats, error)
	IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	Follow(ctx context.Context, followerID, followingID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

// IdentityAdmin covers the user pool administration calls the service
// forwards to. Nil means there is no pool behind this deployment.
type IdentityAdmin interface {
	UpdateEmail(ctx context.Context, username, email string) error
	DeleteUser(ctx context.Context, username string) error
}

type Service struct {
	repo       Store
	store      storage.Storage
	pool       IdentityAdmin
	presignTTL time.Duration
}

func NewService(repo Store, store storage.Storage, pool IdentityAdmin, presignTTL time.Duration) *Service {
	return &Service{repo: repo, store: store, pool: pool, presignTTL: presignTTL}
}

func (s *Service) SyncUser(ctx context.Context, sub, username, email, displayName string) error {
	return s.repo.SyncUser(ctx, sub, username, email, displayName)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*User, error) {
	return s.repo.GetBySub(ctx, sub)
}

// ProfileByUsername assembles the public profile, including the viewer's
// follow relationship when a viewer is present. Viewing your own profile
// includes unpublished posts in the count.
func (s *Service) ProfileByUsername(ctx context.Context, username string, viewerSub string) (*Profile, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: *user}
	if viewerSub != "" {
		viewer, err := s.repo.GetBySub(ctx, viewerSub)
		if err == nil {
			profile.IsSelf = viewer.ID == user.ID
			if !profile.IsSelf {
				profile.IsFollowing, err = s.repo.IsFollowing(ctx, viewer.ID, user.ID)
				if err != nil {
					return nil, err
				}
			}
		}
	}

	profile.Stats, err = s.repo.Stats(ctx, user.ID, profile.IsSelf)
	if err != nil {
		return nil, err
	}

	if !profile.IsSelf {
		profile.Email = "" // public view never exposes email
	}
	return profile, nil
}

// UpdateProfile applies the local change. An email change goes to the user
// pool first so a pool rejection leaves the row untouched.
func (s *Service) UpdateProfile(ctx context.Context, sub string, req UpdateProfileRequest) (*User, error) {
	user, err := s.repo.GetBySub(ctx, sub)
	if err != nil {
		return nil, err
	}
	if req.Email != nil && *req.Email != user.Email && s.pool != nil {
		if err := s.pool.UpdateEmail(ctx, user.Username, *req.Email); err != nil {
			return nil, err
		}
	}
	return s.repo.UpdateProfile(ctx, user.ID, req)
}

func (s *Service) Follow(ctx context.Context, followerSub, username string) error {
	follower, err := s.repo.GetBySub(ctx, followerSub)
	if err != nil {
		return err
	}
	target, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.repo.Follow(ctx, follower.ID, target.ID)
}

func (s *Service) Unfollow(ctx context.Context, followerSub, username string) error {
	follower, err := s.repo.GetBySub(ctx, followerSub)
	if err != nil {
		return err
	}
	target, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.repo.Unfollow(ctx, follower.ID, target.ID)
}

// DeleteAccount removes the pool identity first: if Cognito refuses, no
// local rows are touched. A pool user that is already gone does not block
// local cleanup.
func (s *Service) DeleteAccount(ctx context.Context, sub string) error {
	user, err := s.repo.GetBySub(ctx, sub)
	if err != nil {
		return err
	}
	if s.pool != nil {
		if err := s.pool.DeleteUser(ctx, user.Username); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("identity pool cleanup failed: %w", err)
		}
	}
	return s.repo.DeleteAccount(ctx, user.ID)
}

// Upload stores a file under the caller's namespace and returns its key and
// public URL.
func (s *Service) Upload(ctx context.Context, username, filename, contentType string, body io.Reader) (*UploadResponse, error) {
	key := storage.UploadKey(username, filename, time.Now())
	url, err := s.store.Put(ctx, key, body, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	return &UploadResponse{Key: key, URL: url}, nil
}

// PresignUpload issues a short-lived direct upload URL.
func (s *Service) PresignUpload(ctx context.Context, username string, req PresignRequest) (*PresignResponse, error) {
	key := storage.UploadKey(username, req.Filename, time.Now())
	uploadURL, err := s.store.PresignedPutURL(ctx, key, req.ContentType, s.presignTTL)
	if err != nil {
		return nil, err
	}
	return &PresignResponse{
		Key:       key,
		UploadURL: uploadURL,
		PublicURL: s.store.URLForKey(key),
	}, nil
}

// ResolveID maps a Cognito sub to the local user id.
func (s *Service) ResolveID(ctx context.Context, sub string) (uuid.UUID, error) {
	user, err := s.repo.GetBySub(ctx, sub)
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}

// ResolveUsernameID maps a username to the local user id.
func (s *Service) ResolveUsernameID(ctx context.Context, username string) (uuid.UUID, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}
