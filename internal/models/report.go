package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReportStatusPending   = "pending"
	ReportStatusReviewed  = "reviewed"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"

	ReportTypeScam       = "scam"
	ReportTypeHarassment = "harassment"
)

type Report struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ReporterID     uuid.UUID  `db:"reporter_id" json:"reporter_id"`
	ReportedUserID uuid.UUID  `db:"reported_user_id" json:"reported_user_id"`
	ListingID      *uuid.UUID `db:"listing_id" json:"listing_id,omitempty"`
	ReportType     string     `db:"report_type" json:"report_type"`
	Reason         string     `db:"reason" json:"reason"`
	Evidence       *string    `db:"evidence" json:"evidence,omitempty"`
	Status         string     `db:"status" json:"status"`
	AdminNotes     *string    `db:"admin_notes" json:"admin_notes,omitempty"`
	ReviewedBy     *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
