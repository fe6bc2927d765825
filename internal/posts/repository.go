// internal/posts/repository.go
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/multishowcase/showcase-backend/internal/common/apperr"
	"github.com/multishowcase/showcase-backend/internal/common/metrics"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Feed runs the unified feed query and then batch-resolves the viewer's
// follow relationship to every distinct author on the page.
func (r *Repository) Feed(ctx context.Context, opts FeedOptions) (*FeedPage, error) {
	query, args := buildFeedQuery(opts)

	start := time.Now()
	var rows []*PostView
	err := r.db.SelectContext(ctx, &rows, query, args...)
	metrics.FeedQueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("feed query failed: %w", err)
	}
	for _, row := range rows {
		if err := row.DecodeMedia(); err != nil {
			return nil, fmt.Errorf("failed to decode media for post %s: %w", row.ID, err)
		}
	}

	if opts.ViewerID != nil && len(rows) > 0 {
		if err := r.resolveFollowStatus(ctx, *opts.ViewerID, rows); err != nil {
			return nil, err
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = feedDefaultLimit
	}
	if limit > feedMaxLimit {
		limit = feedMaxLimit
	}
	return &FeedPage{
		Posts:   rows,
		HasMore: len(rows) == limit,
		Limit:   limit,
		Offset:  opts.Offset,
	}, nil
}

func (r *Repository) resolveFollowStatus(ctx context.Context, viewerID uuid.UUID, rows []*PostView) error {
	seen := make(map[uuid.UUID]bool, len(rows))
	authorIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if !seen[row.AuthorID] {
			seen[row.AuthorID] = true
			authorIDs = append(authorIDs, row.AuthorID)
		}
	}

	var followed []uuid.UUID
	err := r.db.SelectContext(ctx, &followed, `
		SELECT following_id FROM follows
		WHERE follower_id = $1 AND following_id = ANY($2)`,
		viewerID, pq.Array(authorIDs))
	if err != nil {
		return fmt.Errorf("failed to resolve follow status: %w", err)
	}

	followedSet := make(map[uuid.UUID]bool, len(followed))
	for _, id := range followed {
		followedSet[id] = true
	}
	for _, row := range rows {
		row.IsFollowingAuthor = followedSet[row.AuthorID]
	}
	return nil
}

// GetView loads one post through the same enrichment path as the feed.
func (r *Repository) GetView(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*PostView, error) {
	var post PostView
	err := r.db.GetContext(ctx, &post, `
		SELECT p.id, p.author_id, p.title, p.body, p.category, p.status, p.group_id,
			p.published_at, p.created_at, p.updated_at,
			u.username AS author_username,
			u.display_name AS author_display_name,
			u.avatar_url AS author_avatar_url,
			COALESCE((
				SELECT json_agg(json_build_object(
					'media_type', pm.media_type,
					'order_index', pm.order_index,
					'storage_key', pm.storage_key,
					'url', pm.storage_url,
					'original_filename', pm.original_filename,
					'file_size', pm.file_size,
					'content_type', pm.content_type
				) ORDER BY pm.order_index)
				FROM post_media pm WHERE pm.post_id = p.id
			), '[]'::json) AS media,
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count,
			(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: post not found", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if err := post.DecodeMedia(); err != nil {
		return nil, fmt.Errorf("failed to decode media: %w", err)
	}
	if viewerID != nil && *viewerID != post.AuthorID {
		var following bool
		err := r.db.GetContext(ctx, &following, `
			SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`,
			*viewerID, post.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve follow status: %w", err)
		}
		post.IsFollowingAuthor = following
	}
	return &post, nil
}

// Create inserts the post and its media rows in one transaction. published_at
// is set only when the post goes in as published.
func (r *Repository) Create(ctx context.Context, authorID uuid.UUID, req CreatePostRequest, resolveURL func(key string) string) (uuid.UUID, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var publishedAt *time.Time
	if req.Status == StatusPublished {
		now := time.Now().UTC()
		publishedAt = &now
	}

	var category *string
	if req.Category != "" {
		category = &req.Category
	}

	var postID uuid.UUID
	err = tx.GetContext(ctx, &postID, `
		INSERT INTO posts (author_id, title, body, category, status, group_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		authorID, req.Title, req.Body, category, req.Status, req.GroupID, publishedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert post: %w", err)
	}

	if len(req.Media) > 0 {
		if err := insertMedia(ctx, tx, postID, req.Media, resolveURL); err != nil {
			return uuid.Nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit post: %w", err)
	}
	return postID, nil
}

func insertMedia(ctx context.Context, tx *sqlx.Tx, postID uuid.UUID, media []MediaDescriptor, resolveURL func(key string) string) error {
	var (
		placeholders []string
		args         []interface{}
	)
	for i, m := range media {
		url := m.URL
		if url == "" && m.StorageKey != "" {
			url = resolveURL(m.StorageKey)
		}
		base := i * 8
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args, postID, m.MediaType, m.OrderIndex, m.StorageKey, url,
			m.OriginalFilename, m.FileSize, m.ContentType)
	}

	query := `
		INSERT INTO post_media
			(post_id, media_type, order_index, storage_key, storage_url, original_filename, file_size, content_type)
		VALUES ` + strings.Join(placeholders, ", ")

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert post media: %w", err)
	}
	return nil
}

// Owner returns the post's author id and group context.
func (r *Repository) Owner(ctx context.Context, postID uuid.UUID) (authorID uuid.UUID, groupID *uuid.UUID, err error) {
	var row struct {
		AuthorID uuid.UUID  `db:"author_id"`
		GroupID  *uuid.UUID `db:"group_id"`
	}
	err = r.db.GetContext(ctx, &row, `SELECT author_id, group_id FROM posts WHERE id = $1`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, nil, fmt.Errorf("%w: post not found", apperr.ErrNotFound)
	}
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to load post owner: %w", err)
	}
	return row.AuthorID, row.GroupID, nil
}

// MediaKeys lists the storage keys attached to a post, for backend cleanup.
func (r *Repository) MediaKeys(ctx context.Context, postID uuid.UUID) ([]string, error) {
	var keys []string
	err := r.db.SelectContext(ctx, &keys, `
		SELECT storage_key FROM post_media
		WHERE post_id = $1 AND storage_key <> ''`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list media keys: %w", err)
	}
	return keys, nil
}

// Delete removes the post with explicit deletes of its dependents so storage
// cleanup stays symmetric with row cleanup.
func (r *Repository) Delete(ctx context.Context, postID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM likes WHERE post_id = $1`,
		`DELETE FROM comments WHERE post_id = $1`,
		`DELETE FROM post_media WHERE post_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, postID); err != nil {
			return fmt.Errorf("failed to delete post dependents: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: post not found", apperr.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit post deletion: %w", err)
	}
	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, postID uuid.UUID, status string) error {
	query := `
		UPDATE posts SET
			status = $2,
			published_at = CASE WHEN $2 = 'published' THEN COALESCE(published_at, NOW()) ELSE NULL END,
			updated_at = NOW()
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, postID, status)
	if err != nil {
		return fmt.Errorf("failed to update post status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: post not found", apperr.ErrNotFound)
	}
	return nil
}

// Like is idempotent: a second like from the same user is a no-op.
func (r *Repository) Like(ctx context.Context, postID, userID uuid.UUID) (liked bool, err error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING`,
		postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to like post: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repository) Unlike(ctx context.Context, postID, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return fmt.Errorf("failed to unlike post: %w", err)
	}
	return nil
}

func (r *Repository) LikeCount(ctx context.Context, postID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

func (r *Repository) AddComment(ctx context.Context, userID uuid.UUID, req CreateCommentRequest) (*Comment, error) {
	var comment Comment
	err := r.db.GetContext(ctx, &comment, `
		WITH inserted AS (
			INSERT INTO comments (post_id, user_id, body)
			VALUES ($1, $2, $3)
			RETURNING *
		)
		SELECT i.id, i.post_id, i.user_id, i.body, i.created_at,
			u.username AS author_username,
			u.display_name AS author_display_name,
			u.avatar_url AS author_avatar_url
		FROM inserted i
		JOIN users u ON u.id = i.user_id`,
		req.PostID, userID, req.Body)
	if err != nil {
		if apperr.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: post not found", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return &comment, nil
}

func (r *Repository) Comments(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var comments []*Comment
	err := r.db.SelectContext(ctx, &comments, `
		SELECT c.id, c.post_id, c.user_id, c.body, c.created_at,
			u.username AS author_username,
			u.display_name AS author_display_name,
			u.avatar_url AS author_avatar_url
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC
		LIMIT $2 OFFSET $3`,
		postID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (r *Repository) CommentOwner(ctx context.Context, commentID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := r.db.GetContext(ctx, &ownerID, `SELECT user_id FROM comments WHERE id = $1`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("%w: comment not found", apperr.ErrNotFound)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load comment owner: %w", err)
	}
	return ownerID, nil
}

func (r *Repository) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: comment not found", apperr.ErrNotFound)
	}
	return nil
}
