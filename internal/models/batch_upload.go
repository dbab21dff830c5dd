package models

import (
	"time"

	"github.com/google/uuid"
)

// BatchUpload is bookkeeping for one file of a bulk upload session.
// During a dedup merge these rows are re-pointed from the loser to the
// survivor on a best-effort basis.
type BatchUpload struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	BatchID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ModelID     uint      `gorm:"not null;index"`
	FileName    string    `gorm:"type:varchar(255);not null"`
	ContentHash string    `gorm:"type:varchar(64);not null"`
	UploadedAt  time.Time `gorm:"not null"`
}

func NewBatchUpload(batchID uuid.UUID, modelID uint, fileName, contentHash string, now time.Time) *BatchUpload {
	return &BatchUpload{
		ID:          uuid.New(),
		BatchID:     batchID,
		ModelID:     modelID,
		FileName:    fileName,
		ContentHash: contentHash,
		UploadedAt:  now,
	}
}
