// internal/groups/service.go
package groups

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/multishowcase/showcase-backend/internal/common/apperr"
)

// Store is the persistence surface the service needs, satisfied by
// *Repository.
type Store interface {
	Create(ctx context.Context, ownerID uuid.UUID, req CreateGroupRequest) (*Group, error)
	Get(ctx context.Context, groupID uuid.UUID) (*GroupView, error)
	List(ctx context.Context, search string, limit, offset int) ([]*GroupView, error)
	Update(ctx context.Context, groupID uuid.UUID, req UpdateGroupRequest) (*Group, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	Members(ctx context.Context, groupID uuid.UUID) ([]*Member, error)
	RequestJoin(ctx context.Context, groupID, userID uuid.UUID) error
	RequestStatus(ctx context.Context, groupID, userID uuid.UUID) (string, error)
	PendingRequests(ctx context.Context, groupID uuid.UUID) ([]*JoinRequest, error)
	Approve(ctx context.Context, requestID uuid.UUID) error
	Reject(ctx context.Context, requestID uuid.UUID) error
	RequestGroup(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error)
	Leave(ctx context.Context, groupID, userID uuid.UUID) (deleted bool, err error)
	DeleteGroup(ctx context.Context, groupID uuid.UUID) error
}

type Service struct {
	repo Store
}

func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req CreateGroupRequest) (*Group, error) {
	return s.repo.Create(ctx, ownerID, req)
}

// Get loads the group and, for an authenticated viewer, their relationship
// to it.
func (s *Service) Get(ctx context.Context, groupID uuid.UUID, viewerID *uuid.UUID) (*GroupView, error) {
	group, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if viewerID != nil {
		group.IsOwner = group.OwnerID == *viewerID
		group.IsMember, err = s.repo.IsMember(ctx, groupID, *viewerID)
		if err != nil {
			return nil, err
		}
		if !group.IsMember {
			group.RequestStatus, err = s.repo.RequestStatus(ctx, groupID, *viewerID)
			if err != nil {
				return nil, err
			}
		}
	}
	return group, nil
}

func (s *Service) List(ctx context.Context, search string, limit, offset int) ([]*GroupView, error) {
	return s.repo.List(ctx, search, limit, offset)
}

func (s *Service) Update(ctx context.Context, groupID, callerID uuid.UUID, req UpdateGroupRequest) (*Group, error) {
	if err := s.requireOwner(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, groupID, req)
}

func (s *Service) Members(ctx context.Context, groupID uuid.UUID, viewerID uuid.UUID) ([]*Member, error) {
	allowed, err := s.IsMemberOrOwner(ctx, groupID, viewerID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: only members can view the member list", apperr.ErrForbidden)
	}
	return s.repo.Members(ctx, groupID)
}

// RequestJoin moves the caller's request to pending. Members and owners have
// nothing to request.
func (s *Service) RequestJoin(ctx context.Context, groupID, userID uuid.UUID) error {
	allowed, err := s.IsMemberOrOwner(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if allowed {
		return fmt.Errorf("%w: you are already a member of this group", apperr.ErrConflict)
	}
	return s.repo.RequestJoin(ctx, groupID, userID)
}

func (s *Service) PendingRequests(ctx context.Context, groupID, callerID uuid.UUID) ([]*JoinRequest, error) {
	if err := s.requireOwner(ctx, groupID, callerID); err != nil {
		return nil, err
	}
	return s.repo.PendingRequests(ctx, groupID)
}

func (s *Service) Approve(ctx context.Context, requestID, callerID uuid.UUID) error {
	groupID, err := s.repo.RequestGroup(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.requireOwner(ctx, groupID, callerID); err != nil {
		return err
	}
	return s.repo.Approve(ctx, requestID)
}

func (s *Service) Reject(ctx context.Context, requestID, callerID uuid.UUID) error {
	groupID, err := s.repo.RequestGroup(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.requireOwner(ctx, groupID, callerID); err != nil {
		return err
	}
	return s.repo.Reject(ctx, requestID)
}

func (s *Service) Leave(ctx context.Context, groupID, userID uuid.UUID) (deleted bool, err error) {
	return s.repo.Leave(ctx, groupID, userID)
}

// Delete tears the group down outright, owner only.
func (s *Service) Delete(ctx context.Context, groupID, callerID uuid.UUID) error {
	if err := s.requireOwner(ctx, groupID, callerID); err != nil {
		return err
	}
	return s.repo.DeleteGroup(ctx, groupID)
}

// IsMemberOrOwner implements the gate used by group-scoped post creation.
func (s *Service) IsMemberOrOwner(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	group, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return false, err
	}
	if group.OwnerID == userID {
		return true, nil
	}
	return s.repo.IsMember(ctx, groupID, userID)
}

func (s *Service) requireOwner(ctx context.Context, groupID, callerID uuid.UUID) error {
	group, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != callerID {
		return fmt.Errorf("%w: only the group owner can do that", apperr.ErrForbidden)
	}
	return nil
}
