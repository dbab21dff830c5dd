package models

import (
	"time"

	"gorm.io/datatypes"
)

// ThumbnailJobEvent is one append-only audit entry for a job. Rows are
// cascade-deleted with their job and never mutated individually.
type ThumbnailJobEvent struct {
	ID             uint   `gorm:"primaryKey"`
	ThumbnailJobID uint   `gorm:"not null;index:idx_job_events_job_occurred,priority:1"`
	EventType      string `gorm:"type:varchar(100);not null"`
	Message        string `gorm:"type:text"`
	Metadata       datatypes.JSON
	ErrorMessage   *string   `gorm:"type:text"`
	OccurredAt     time.Time `gorm:"not null;index:idx_job_events_job_occurred,priority:2"`
}
