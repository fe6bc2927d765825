// internal/reports/models.go
package reports

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusOpen      = "open"
	StatusReviewed  = "reviewed"
	StatusDismissed = "dismissed"
	StatusActioned  = "actioned"
)

type Report struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	ReporterID       uuid.UUID  `db:"reporter_id" json:"reporter_id"`
	ReportType       string     `db:"report_type" json:"report_type"`
	TargetID         uuid.UUID  `db:"target_id" json:"target_id"`
	Reason           string     `db:"reason" json:"reason"`
	Status           string     `db:"status" json:"status"`
	RespondedBy      *uuid.UUID `db:"responded_by" json:"responded_by,omitempty"`
	RespondedAt      *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	ReporterUsername string     `db:"reporter_username" json:"reporter_username,omitempty"`
}

type AdminAction struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	AdminID       uuid.UUID  `db:"admin_id" json:"admin_id"`
	ActionType    string     `db:"action_type" json:"action_type"`
	TargetType    string     `db:"target_type" json:"target_type"`
	TargetID      uuid.UUID  `db:"target_id" json:"target_id"`
	ReportID      *uuid.UUID `db:"report_id" json:"report_id,omitempty"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	AdminUsername string     `db:"admin_username" json:"admin_username,omitempty"`
}

type CreateReportRequest struct {
	ReportType string    `json:"report_type" validate:"required,oneof=post user comment group"`
	TargetID   uuid.UUID `json:"target_id" validate:"required"`
	Reason     string    `json:"reason" validate:"required,min=3,max=2000"`
}

type UpdateReportRequest struct {
	Status string  `json:"status" validate:"required,oneof=reviewed dismissed actioned"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}
