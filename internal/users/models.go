// internal/users/models.go
package users

import (
	"time"

	"github.com/google/uuid"
)

// User is the local row mirroring a Cognito identity.
type User struct {
	ID          uuid.UUID `db:"id" json:"id"`
	CognitoSub  string    `db:"cognito_sub" json:"-"`
	Username    string    `db:"username" json:"username"`
	Email       string    `db:"email" json:"email,omitempty"`
	DisplayName *string   `db:"display_name" json:"display_name,omitempty"`
	Bio         *string   `db:"bio" json:"bio,omitempty"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ProfileStats are the counters shown on a profile page.
type ProfileStats struct {
	Posts     int `db:"posts" json:"posts"`
	Followers int `db:"followers" json:"followers"`
	Following int `db:"following" json:"following"`
}

// Profile is the public view of a user.
type Profile struct {
	User
	Stats       ProfileStats `json:"stats"`
	IsFollowing bool         `json:"is_following"`
	IsSelf      bool         `json:"is_self"`
}

type UpdateProfileRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=30,alphanum"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=80"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,max=1024,url"`
	Email       *string `json:"email" validate:"omitempty,email"`
}

type UploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type PresignRequest struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,max=100"`
}

type PresignResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
}
