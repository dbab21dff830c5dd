package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Papyszoo/Modelibr-sub005/internal/dedup"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

type ModelRepository struct {
	db *gorm.DB
}

func NewModelRepository(db *gorm.DB) *ModelRepository {
	return &ModelRepository{db: db}
}

var _ dedup.ModelRepoInterface = (*ModelRepository)(nil)

// Create persists a new model with its versions and files.
func (r *ModelRepository) Create(ctx context.Context, m *models.Model) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create model: %w", err)
	}
	return nil
}

// GetByID loads a model with its versions and files. Soft-deleted
// models are not found.
func (r *ModelRepository) GetByID(ctx context.Context, id uint) (*models.Model, error) {
	var m models.Model
	err := r.db.WithContext(ctx).
		Preload("Versions.Files").
		First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("model not found: %w", err)
		}
		return nil, fmt.Errorf("get model: %w", err)
	}
	return &m, nil
}

// GetAllByNameAndVertices returns every live model, hidden ones
// included, matching (name, vertexCount) exactly. Ordered by ID so
// survivor selection is deterministic.
func (r *ModelRepository) GetAllByNameAndVertices(ctx context.Context, name string, vertexCount int) ([]models.Model, error) {
	var out []models.Model
	err := r.db.WithContext(ctx).
		Preload("Versions.Files").
		Where("name = ? AND vertex_count = ?", name, vertexCount).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list models by name and vertices: %w", err)
	}
	return out, nil
}

// Save persists the model's own columns. Versions and files are managed
// through LinkFile and AddVersion, not resaved wholesale.
func (r *ModelRepository) Save(ctx context.Context, m *models.Model) error {
	if err := r.db.WithContext(ctx).Omit("Versions").Save(m).Error; err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Delete soft-deletes a model. Its file links stay in place; any file
// shared with a surviving model remains reachable through that model.
func (r *ModelRepository) Delete(ctx context.Context, m *models.Model) error {
	if err := r.db.WithContext(ctx).Delete(m).Error; err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	return nil
}

// AddVersion appends a new version to a model.
func (r *ModelRepository) AddVersion(ctx context.Context, v *models.ModelVersion) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("add model version: %w", err)
	}
	return nil
}

// LinkFile links an existing physical file into a version. A duplicate
// (version, hash) link is a no-op thanks to the unique index.
func (r *ModelRepository) LinkFile(ctx context.Context, versionID uint, f models.File) error {
	f.ID = 0
	f.ModelVersionID = versionID
	if err := r.db.WithContext(ctx).Create(&f).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("link file: %w", err)
	}
	return nil
}
