// internal/groups/repository.go
package groups

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

// Create inserts the group and its owner's membership row together.
func (r *Repository) Create(ctx context.Context, ownerID uuid.UUID, req CreateGroupRequest) (*Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var group Group
	err = tx.GetContext(ctx, &group, `
		INSERT INTO groups (name, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING *`,
		req.Name, req.Description, ownerID)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a group with that name already exists", apperr.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`,
		group.ID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit group: %w", err)
	}
	return &group, nil
}

func (r *Repository) Get(ctx context.Context, groupID uuid.UUID) (*GroupView, error) {
	var group GroupView
	err := r.db.GetContext(ctx, &group, `
		SELECT g.*, u.username AS owner_username,
			(SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = g.id) AS member_count
		FROM groups g
		JOIN users u ON u.id = g.owner_id
		WHERE g.id = $1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: group not found", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]*GroupView, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	query := `
		SELECT g.*, u.username AS owner_username,
			(SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = g.id) AS member_count
		FROM groups g
		JOIN users u ON u.id = g.owner_id`
	args := []interface{}{limit, offset}
	if search != "" {
		query += ` WHERE g.name ILIKE $3 OR g.description ILIKE $3`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY g.created_at DESC LIMIT $1 OFFSET $2`

	var groups []*GroupView
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (r *Repository) Update(ctx context.Context, groupID uuid.UUID, req UpdateGroupRequest) (*Group, error) {
	var group Group
	err := r.db.GetContext(ctx, &group, `
		UPDATE groups SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			updated_at = NOW()
		WHERE id = $1
		RETURNING *`,
		groupID, req.Name, req.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: group not found", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	return &group, nil
}

func (r *Repository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
		groupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

func (r *Repository) Members(ctx context.Context, groupID uuid.UUID) ([]*Member, error) {
	var members []*Member
	err := r.db.SelectContext(ctx, &members, `
		SELECT gm.user_id, u.username, u.display_name, u.avatar_url, gm.joined_at
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// RequestJoin upserts the caller's join request back to pending. A fresh
// request and a re-request after rejection land in the same row.
func (r *Repository) RequestJoin(ctx context.Context, groupID, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO group_join_requests (group_id, user_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (group_id, user_id) DO UPDATE SET
			status = 'pending',
			responded_at = NULL,
			created_at = NOW()`,
		groupID, userID)
	if err != nil {
		if apperr.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: group not found", apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to request join: %w", err)
	}
	return nil
}

func (r *Repository) RequestStatus(ctx context.Context, groupID, userID uuid.UUID) (string, error) {
	var status string
	err := r.db.GetContext(ctx, &status, `
		SELECT status FROM group_join_requests WHERE group_id = $1 AND user_id = $2`,
		groupID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load request status: %w", err)
	}
	return status, nil
}

func (r *Repository) PendingRequests(ctx context.Context, groupID uuid.UUID) ([]*JoinRequest, error) {
	var requests []*JoinRequest
	err := r.db.SelectContext(ctx, &requests, `
		SELECT jr.id, jr.group_id, jr.user_id, jr.status, jr.created_at, jr.responded_at,
			u.username, u.display_name, u.avatar_url
		FROM group_join_requests jr
		JOIN users u ON u.id = jr.user_id
		WHERE jr.group_id = $1 AND jr.status = 'pending'
		ORDER BY jr.created_at ASC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	return requests, nil
}

// Approve flips a pending request to approved and inserts the membership in
// the same transaction.
func (r *Repository) Approve(ctx context.Context, requestID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var req struct {
		GroupID uuid.UUID `db:"group_id"`
		UserID  uuid.UUID `db:"user_id"`
	}
	err = tx.GetContext(ctx, &req, `
		UPDATE group_join_requests
		SET status = 'approved', responded_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING group_id, user_id`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: no pending request with that id", apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to approve request: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (group_id, user_id) DO NOTHING`,
		req.GroupID, req.UserID)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit approval: %w", err)
	}
	return nil
}

func (r *Repository) Reject(ctx context.Context, requestID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE group_join_requests
		SET status = 'rejected', responded_at = NOW()
		WHERE id = $1 AND status = 'pending'`, requestID)
	if err != nil {
		return fmt.Errorf("failed to reject request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: no pending request with that id", apperr.ErrNotFound)
	}
	return nil
}

func (r *Repository) RequestGroup(ctx context.Context, requestID uuid.UUID) (uuid.UUID, error) {
	var groupID uuid.UUID
	err := r.db.GetContext(ctx, &groupID, `
		SELECT group_id FROM group_join_requests WHERE id = $1`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("%w: join request not found", apperr.ErrNotFound)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load join request: %w", err)
	}
	return groupID, nil
}

// DeleteGroup removes the group and its rows regardless of membership.
// Group posts survive with their group context cleared.
func (r *Repository) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM group_join_requests WHERE group_id = $1`,
		`DELETE FROM group_members WHERE group_id = $1`,
		`UPDATE posts SET group_id = NULL WHERE group_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, groupID); err != nil {
			return fmt.Errorf("failed to delete group rows: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: group not found", apperr.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group deletion: %w", err)
	}
	return nil
}

// Leave removes the member. When the leaver owns the group, ownership moves
// to the earliest-joined remaining member; with nobody left, the group and
// its rows are deleted.
func (r *Repository) Leave(ctx context.Context, groupID, userID uuid.UUID) (deleted bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var ownerID uuid.UUID
	err = tx.GetContext(ctx, &ownerID, `SELECT owner_id FROM groups WHERE id = $1 FOR UPDATE`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: group not found", apperr.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock group: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove membership: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 && ownerID != userID {
		return false, fmt.Errorf("%w: you are not a member of this group", apperr.ErrValidation)
	}

	if ownerID == userID {
		var nextOwner uuid.UUID
		err = tx.GetContext(ctx, &nextOwner, `
			SELECT user_id FROM group_members
			WHERE group_id = $1
			ORDER BY joined_at ASC
			LIMIT 1`, groupID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			for _, stmt := range []string{
				`DELETE FROM group_join_requests WHERE group_id = $1`,
				`UPDATE posts SET group_id = NULL WHERE group_id = $1`,
				`DELETE FROM groups WHERE id = $1`,
			} {
				if _, err := tx.ExecContext(ctx, stmt, groupID); err != nil {
					return false, fmt.Errorf("failed to delete group: %w", err)
				}
			}
			deleted = true
		case err != nil:
			return false, fmt.Errorf("failed to find next owner: %w", err)
		default:
			_, err = tx.ExecContext(ctx, `
				UPDATE groups SET owner_id = $2, updated_at = NOW() WHERE id = $1`,
				groupID, nextOwner)
			if err != nil {
				return false, fmt.Errorf("failed to transfer ownership: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit leave: %w", err)
	}
	return deleted, nil
}
