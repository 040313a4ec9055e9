package models

import (
	"time"
)

const (
	ReportStatusPending  = "pending"
	ReportStatusApproved = "approved"
	ReportStatusRejected = "rejected"

	ReportedTypePost    = "post"
	ReportedTypeComment = "comment"
)

// Report carries the moderation workflow. One report per
// (reporter, reported_type, reported_id), enforced by the unique index.
type Report struct {
	ID             uint       `gorm:"primaryKey" json:"report_id"`
	ReporterUserID uint       `gorm:"column:reporter_user_id;not null;uniqueIndex:idx_report_unique" json:"reporter_user_id"`
	ReportedType   string     `gorm:"column:reported_type;size:20;not null;uniqueIndex:idx_report_unique" json:"reported_type"`
	ReportedID     uint       `gorm:"column:reported_id;not null;uniqueIndex:idx_report_unique" json:"reported_id"`
	Reason         string     `gorm:"column:reason;size:255;not null" json:"reason"`
	Description    string     `gorm:"column:description;type:text" json:"description,omitempty"`
	Status         string     `gorm:"column:status;size:20;not null;default:pending;index" json:"status"`
	ReviewedBy     *uint      `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	Reporter *User `gorm:"foreignKey:ReporterUserID" json:"reporter,omitempty"`
	Reviewer *User `gorm:"foreignKey:ReviewedBy" json:"reviewer,omitempty"`
}

func ValidReportStatus(status string) bool {
	switch status {
	case ReportStatusPending, ReportStatusApproved, ReportStatusRejected:
		return true
	}
	return false
}

func ValidReportedType(t string) bool {
	return t == ReportedTypePost || t == ReportedTypeComment
}
