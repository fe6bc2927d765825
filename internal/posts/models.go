// internal/posts/models.go
package posts

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPublished   = "published"
	StatusUnpublished = "unpublished"
)

// MediaItem is one ordered attachment on a post.
type MediaItem struct {
	MediaType        string `json:"media_type"`
	OrderIndex       int    `json:"order_index"`
	StorageKey       string `json:"storage_key,omitempty"`
	URL              string `json:"url"`
	OriginalFilename string `json:"original_filename,omitempty"`
	FileSize         int64  `json:"file_size,omitempty"`
	ContentType      string `json:"content_type,omitempty"`
}

// PostView is the denormalized feed row: the post plus author identity,
// ordered media, engagement counts and the viewer's follow relationship.
type PostView struct {
	ID                uuid.UUID   `db:"id" json:"id"`
	AuthorID          uuid.UUID   `db:"author_id" json:"author_id"`
	Title             *string     `db:"title" json:"title,omitempty"`
	Body              *string     `db:"body" json:"body,omitempty"`
	Category          *string     `db:"category" json:"category,omitempty"`
	Status            string      `db:"status" json:"status"`
	GroupID           *uuid.UUID  `db:"group_id" json:"group_id,omitempty"`
	PublishedAt       *time.Time  `db:"published_at" json:"published_at,omitempty"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
	AuthorUsername    string      `db:"author_username" json:"author_username"`
	AuthorDisplayName *string     `db:"author_display_name" json:"author_display_name,omitempty"`
	AuthorAvatarURL   *string     `db:"author_avatar_url" json:"author_avatar_url,omitempty"`
	RawMedia          []byte      `db:"media" json:"-"`
	Media             []MediaItem `db:"-" json:"media"`
	CommentCount      int         `db:"comment_count" json:"comment_count"`
	LikeCount         int         `db:"like_count" json:"like_count"`
	IsFollowingAuthor bool        `json:"is_following_author"`
}

// DecodeMedia unpacks the aggregated media JSON produced by the feed query.
func (p *PostView) DecodeMedia() error {
	p.Media = []MediaItem{}
	if len(p.RawMedia) == 0 {
		return nil
	}
	return json.Unmarshal(p.RawMedia, &p.Media)
}

// FeedPage is one page of the feed plus the pagination hint.
type FeedPage struct {
	Posts   []*PostView `json:"posts"`
	HasMore bool        `json:"has_more"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}

// FeedOptions are the feed query filters. Statuses defaults to published
// only; the zero value of every other filter means "no filter".
type FeedOptions struct {
	Limit             int
	Offset            int
	CategorySlug      string
	Search            string
	AuthorID          *uuid.UUID
	GroupID           *uuid.UUID
	ViewerID          *uuid.UUID
	Statuses          []string
	ExcludeGroupPosts bool
}

type MediaDescriptor struct {
	MediaType        string `json:"media_type" validate:"required,oneof=image video link"`
	StorageKey       string `json:"storage_key" validate:"required_unless=MediaType link,max=1024"`
	URL              string `json:"url" validate:"omitempty,max=2048"`
	OrderIndex       int    `json:"order_index" validate:"gte=0"`
	OriginalFilename string `json:"original_filename" validate:"omitempty,max=255"`
	FileSize         int64  `json:"file_size" validate:"gte=0"`
	ContentType      string `json:"content_type" validate:"omitempty,max=100"`
}

type CreatePostRequest struct {
	Title    *string           `json:"title" validate:"omitempty,max=200"`
	Body     *string           `json:"body" validate:"omitempty,max=10000"`
	Status   string            `json:"status" validate:"required,oneof=published unpublished"`
	Category string            `json:"category" validate:"omitempty,oneof=2d-art 3d-model graphic-design animation game ux-ui"`
	GroupID  *uuid.UUID        `json:"group_id"`
	Media    []MediaDescriptor `json:"media" validate:"omitempty,max=12,dive"`
}

type UpdatePostStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=published unpublished"`
}

type Comment struct {
	ID                uuid.UUID `db:"id" json:"id"`
	PostID            uuid.UUID `db:"post_id" json:"post_id"`
	UserID            uuid.UUID `db:"user_id" json:"user_id"`
	Body              string    `db:"body" json:"body"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	AuthorUsername    string    `db:"author_username" json:"author_username"`
	AuthorDisplayName *string   `db:"author_display_name" json:"author_display_name,omitempty"`
	AuthorAvatarURL   *string   `db:"author_avatar_url" json:"author_avatar_url,omitempty"`
}

type CreateCommentRequest struct {
	PostID uuid.UUID `json:"post_id" validate:"required"`
	Body   string    `json:"body" validate:"required,min=1,max=2000"`
}
