// internal/groups/models.go
package groups

import (
	"time"

	"github.com/google/uuid"
)

const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

type Group struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	OwnerID     uuid.UUID `db:"owner_id" json:"owner_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GroupView is a group enriched with the viewer's relationship to it.
type GroupView struct {
	Group
	OwnerUsername string `db:"owner_username" json:"owner_username"`
	MemberCount   int    `db:"member_count" json:"member_count"`
	IsOwner       bool   `json:"is_owner"`
	IsMember      bool   `json:"is_member"`
	RequestStatus string `json:"request_status,omitempty"`
}

type Member struct {
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Username    string    `db:"username" json:"username"`
	DisplayName *string   `db:"display_name" json:"display_name,omitempty"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}

type JoinRequest struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	GroupID     uuid.UUID  `db:"group_id" json:"group_id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	RespondedAt *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	Username    string     `db:"username" json:"username"`
	DisplayName *string    `db:"display_name" json:"display_name,omitempty"`
	AvatarURL   *string    `db:"avatar_url" json:"avatar_url,omitempty"`
}

type CreateGroupRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type UpdateGroupRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}
