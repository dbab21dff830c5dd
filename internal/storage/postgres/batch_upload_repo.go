package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Papyszoo/Modelibr-sub005/internal/dedup"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

type BatchUploadRepository struct {
	db *gorm.DB
}

func NewBatchUploadRepository(db *gorm.DB) *BatchUploadRepository {
	return &BatchUploadRepository{db: db}
}

var _ dedup.BatchUploadRepoInterface = (*BatchUploadRepository)(nil)

// Create records one uploaded file of a batch session.
func (r *BatchUploadRepository) Create(ctx context.Context, b *models.BatchUpload) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create batch upload: %w", err)
	}
	return nil
}

// UpdateModelIDForModel re-points upload history from one model to
// another. Called during dedup merges; the caller treats failures as
// best-effort.
func (r *BatchUploadRepository) UpdateModelIDForModel(ctx context.Context, oldModelID, newModelID uint) error {
	err := r.db.WithContext(ctx).Model(&models.BatchUpload{}).
		Where("model_id = ?", oldModelID).
		Update("model_id", newModelID).Error
	if err != nil {
		return fmt.Errorf("repoint batch uploads from model %d to %d: %w", oldModelID, newModelID, err)
	}
	return nil
}

// ListByModel returns upload history rows for a model.
func (r *BatchUploadRepository) ListByModel(ctx context.Context, modelID uint) ([]models.BatchUpload, error) {
	var out []models.BatchUpload
	if err := r.db.WithContext(ctx).Where("model_id = ?", modelID).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list batch uploads: %w", err)
	}
	return out, nil
}
