package dedup

import (
	"context"
	"time"

	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

// ModelRepoInterface is the model persistence surface the engine needs.
type ModelRepoInterface interface {
	Create(ctx context.Context, m *models.Model) error
	GetByID(ctx context.Context, id uint) (*models.Model, error)
	GetAllByNameAndVertices(ctx context.Context, name string, vertexCount int) ([]models.Model, error)
	Save(ctx context.Context, m *models.Model) error
	Delete(ctx context.Context, m *models.Model) error
	AddVersion(ctx context.Context, v *models.ModelVersion) error
	LinkFile(ctx context.Context, versionID uint, f models.File) error
}

// BatchUploadRepoInterface re-points upload history during merges.
type BatchUploadRepoInterface interface {
	UpdateModelIDForModel(ctx context.Context, oldModelID, newModelID uint) error
}

// JobCancellerInterface cancels in-flight thumbnail jobs for a target.
// Cancelled jobs come back with their status-change events still
// buffered for the caller to publish.
type JobCancellerInterface interface {
	CancelForTarget(ctx context.Context, kind config.TargetKind, targetID uint, now time.Time) ([]models.ThumbnailJob, error)
}
