// internal/users/repository.go
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/multishowcase/showcase-backend/internal/common/apperr"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// SyncUser upserts the local row for a Cognito identity. Username and email
// fall back to values derived from the sub when the token carries neither.
// On conflict only claim-carried email and display name are reconciled;
// synthesized fallbacks and the username never overwrite an existing row,
// so access tokens without an email claim cannot clobber the real address.
func (r *Repository) SyncUser(ctx context.Context, sub, username, email, displayName string) error {
	if sub == "" {
		return fmt.Errorf("%w: missing subject", apperr.ErrValidation)
	}
	if username == "" {
		short := sub
		if len(short) > 8 {
			short = short[:8]
		}
		username = "user_" + short
	}
	insertEmail := email
	if insertEmail == "" {
		insertEmail = fmt.Sprintf("user-%s@placeholder.invalid", sub)
	}

	query := `
		INSERT INTO users (cognito_sub, username, email, display_name)
		VALUES ($1, $2, $3, NULLIF($5, ''))
		ON CONFLICT (cognito_sub) DO UPDATE SET
			email = COALESCE(NULLIF($4, ''), users.email),
			display_name = COALESCE(NULLIF($5, ''), users.display_name),
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, sub, username, insertEmail, email, displayName)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return fmt.Errorf("%w: username is already taken", apperr.ErrConflict)
		}
		return fmt.Errorf("failed to sync user: %w", err)
	}
	return nil
}

func (r *Repository) GetBySub(ctx context.Context, sub string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE cognito_sub = $1`, sub)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET
			display_name = COALESCE($2, display_name),
			bio = COALESCE($3, bio),
			avatar_url = COALESCE($4, avatar_url),
			email = COALESCE($5, email),
			username = COALESCE($6, username),
			updated_at = NOW()
		WHERE id = $1
		RETURNING *`,
		userID, req.DisplayName, req.Bio, req.AvatarURL, req.Email, req.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username is already taken", apperr.ErrConflict)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &user, nil
}

// Stats counts published posts for public profiles; the owner's own profile
// counts unpublished work too.
func (r *Repository) Stats(ctx context.Context, userID uuid.UUID, includeUnpublished bool) (ProfileStats, error) {
	var stats ProfileStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM posts WHERE author_id = $1 AND ($2 OR status = 'published')) AS posts,
			(SELECT COUNT(*) FROM follows WHERE following_id = $1) AS followers,
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1) AS following`,
		userID, includeUnpublished)
	if err != nil {
		return stats, fmt.Errorf("failed to load profile stats: %w", err)
	}
	return stats, nil
}

func (r *Repository) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`,
		followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return exists, nil
}

func (r *Repository) Follow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return fmt.Errorf("%w: you cannot follow yourself", apperr.ErrValidation)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO follows (follower_id, following_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, following_id) DO NOTHING`,
		followerID, followingID)
	if err != nil {
		return fmt.Errorf("failed to follow user: %w", err)
	}
	return nil
}

func (r *Repository) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID)
	if err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
	}
	return nil
}

// DeleteAccount removes the user and everything they own. Dependent rows go
// first so the deletes never trip foreign keys mid-transaction.
func (r *Repository) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM likes WHERE user_id = $1`,
		`DELETE FROM likes WHERE post_id IN (SELECT id FROM posts WHERE author_id = $1)`,
		`DELETE FROM comments WHERE user_id = $1`,
		`DELETE FROM comments WHERE post_id IN (SELECT id FROM posts WHERE author_id = $1)`,
		`DELETE FROM post_media WHERE post_id IN (SELECT id FROM posts WHERE author_id = $1)`,
		`DELETE FROM group_join_requests WHERE user_id = $1`,
		`DELETE FROM group_members WHERE user_id = $1`,
		`DELETE FROM follows WHERE follower_id = $1 OR following_id = $1`,
		`DELETE FROM posts WHERE author_id = $1`,
		`DELETE FROM groups WHERE owner_id = $1 AND NOT EXISTS (
			SELECT 1 FROM group_members WHERE group_id = groups.id AND user_id <> $1)`,
		`UPDATE groups SET owner_id = (
			SELECT user_id FROM group_members
			WHERE group_id = groups.id AND user_id <> $1
			ORDER BY joined_at ASC LIMIT 1)
		WHERE owner_id = $1`,
		`DELETE FROM reports WHERE reporter_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
			return fmt.Errorf("failed to delete account data: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit account deletion: %w", err)
	}
	return nil
}
