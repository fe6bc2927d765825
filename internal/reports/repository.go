// internal/reports/repository.go
package reports

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

func (r *Repository) Create(ctx context.Context, reporterID uuid.UUID, req CreateReportRequest) (*Report, error) {
	var report Report
	err := r.db.GetContext(ctx, &report, `
		INSERT INTO reports (reporter_id, report_type, target_id, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING *`,
		reporterID, req.ReportType, req.TargetID, req.Reason)
	if err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: you have already reported this", apperr.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}

func (r *Repository) List(ctx context.Context, status string, limit, offset int) ([]*Report, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `
		SELECT r.*, u.username AS reporter_username
		FROM reports r
		JOIN users u ON u.id = r.reporter_id`
	args := []interface{}{limit, offset}
	if status != "" {
		query += ` WHERE r.status = $3`
		args = append(args, status)
	}
	query += ` ORDER BY r.created_at DESC LIMIT $1 OFFSET $2`

	var list []*Report
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return list, nil
}

// Resolve updates the report status and records the admin action in the same
// transaction so the audit trail never drifts from the report state.
func (r *Repository) Resolve(ctx context.Context, reportID, adminID uuid.UUID, req UpdateReportRequest) (*Report, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var report Report
	err = tx.GetContext(ctx, &report, `
		UPDATE reports SET status = $2, responded_by = $3, responded_at = NOW()
		WHERE id = $1
		RETURNING *`, reportID, req.Status, adminID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: report not found", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO admin_actions (admin_id, action_type, target_type, target_id, report_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		adminID, "report_"+req.Status, report.ReportType, report.TargetID, report.ID, req.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to record admin action: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit report update: %w", err)
	}
	return &report, nil
}

func (r *Repository) Actions(ctx context.Context, limit, offset int) ([]*AdminAction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var actions []*AdminAction
	err := r.db.SelectContext(ctx, &actions, `
		SELECT a.*, u.username AS admin_username
		FROM admin_actions a
		JOIN users u ON u.id = a.admin_id
		ORDER BY a.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin actions: %w", err)
	}
	return actions, nil
}
