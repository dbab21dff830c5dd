package asset

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Papyszoo/Modelibr-sub005/common"
	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/dto"
	"github.com/Papyszoo/Modelibr-sub005/internal/events"
	"github.com/Papyszoo/Modelibr-sub005/internal/logger"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

// ModelRepoInterface is the persistence surface for model ingestion.
type ModelRepoInterface interface {
	Create(ctx context.Context, m *models.Model) error
	GetByID(ctx context.Context, id uint) (*models.Model, error)
	GetAllByNameAndVertices(ctx context.Context, name string, vertexCount int) ([]models.Model, error)
	Save(ctx context.Context, m *models.Model) error
}

// BatchUploadRecorder records upload bookkeeping rows.
type BatchUploadRecorder interface {
	Create(ctx context.Context, b *models.BatchUpload) error
}

// ServiceInterface is the model ingestion contract.
type ServiceInterface interface {
	CreateModel(ctx context.Context, in *dto.CreateModelDTO) (*dto.ModelResponseDTO, error)
	ProvideMetadata(ctx context.Context, modelID uint, in *dto.ModelMetadataDTO) (*dto.ModelResponseDTO, error)
}

// Service ingests uploads and metadata. Uploads create hidden models;
// metadata triggers the dedup pass that eventually reveals them.
type Service struct {
	modelRepo  ModelRepoInterface
	batchRepo  BatchUploadRecorder
	dispatcher *events.Dispatcher
	log        *logger.Logger
	now        func() time.Time
}

func NewService(modelRepo ModelRepoInterface, batchRepo BatchUploadRecorder, dispatcher *events.Dispatcher, log *logger.Logger) *Service {
	return &Service{
		modelRepo:  modelRepo,
		batchRepo:  batchRepo,
		dispatcher: dispatcher,
		log:        log.With("component", "asset_service"),
		now:        time.Now,
	}
}

var _ ServiceInterface = (*Service)(nil)

// CreateModel stores a new hidden model with its first version and file
// and raises AssetUploaded. The model stays hidden until metadata
// arrives and deduplication decides its fate.
func (s *Service) CreateModel(ctx context.Context, in *dto.CreateModelDTO) (*dto.ModelResponseDTO, error) {
	now := s.now()

	m, err := models.NewModel(in.Name, now)
	if err != nil {
		return nil, err
	}

	hash := strings.ToLower(in.File.ContentHash)
	m.Versions = []models.ModelVersion{{
		Number:    1,
		CreatedAt: now,
		Files: []models.File{{
			Name:        in.File.Name,
			ContentHash: hash,
			FileType:    config.FileTypeFromName(in.File.Name),
			SizeBytes:   in.File.SizeBytes,
			StorageKey:  in.File.StorageKey,
			CreatedAt:   now,
		}},
	}}

	if err := s.modelRepo.Create(ctx, m); err != nil {
		return nil, s.mapStoreError(err, "failed to create model")
	}

	if err := s.batchRepo.Create(ctx, models.NewBatchUpload(uuid.New(), m.ID, in.File.Name, hash, now)); err != nil {
		// Bookkeeping only; the upload itself already succeeded.
		s.log.Warn("batch upload record failed", "model_id", m.ID, "error", err)
	}

	version := &m.Versions[0]
	if err := s.dispatcher.Publish(ctx, events.AssetUploaded{
		ModelID:     m.ID,
		VersionID:   version.ID,
		ContentHash: hash,
		FileName:    in.File.Name,
	}); err != nil {
		return nil, err
	}

	d := toModelDTO(m)
	return &d, nil
}

// ProvideMetadata records geometry counts on a model and raises
// ModelMetadataProvided, which triggers the dedup pass.
func (s *Service) ProvideMetadata(ctx context.Context, modelID uint, in *dto.ModelMetadataDTO) (*dto.ModelResponseDTO, error) {
	m, err := s.modelRepo.GetByID(ctx, modelID)
	if err != nil {
		return nil, s.mapStoreError(err, "failed to load model")
	}

	if err := m.SetMetadata(in.VertexCount, in.FaceCount, s.now()); err != nil {
		return nil, err
	}
	if err := s.modelRepo.Save(ctx, m); err != nil {
		return nil, s.mapStoreError(err, "failed to save model")
	}

	if err := s.dispatcher.Publish(ctx, events.ModelMetadataProvided{
		ModelID:     m.ID,
		Name:        m.Name,
		VertexCount: in.VertexCount,
		FaceCount:   in.FaceCount,
	}); err != nil {
		return nil, err
	}

	fresh, err := s.modelRepo.GetByID(ctx, modelID)
	if err == nil {
		d := toModelDTO(fresh)
		return &d, nil
	}

	// The dedup pass merged this model away. Report the survivor that
	// now holds the upload, falling back to the last known state when
	// the lookup cannot identify one.
	if survivor := s.findSurvivor(ctx, m.Name, in.VertexCount); survivor != nil {
		d := toModelDTO(survivor)
		return &d, nil
	}
	d := toModelDTO(m)
	return &d, nil
}

// findSurvivor locates the visible model a merged-away upload was
// folded into.
func (s *Service) findSurvivor(ctx context.Context, name string, vertexCount *int) *models.Model {
	if vertexCount == nil {
		return nil
	}
	matches, err := s.modelRepo.GetAllByNameAndVertices(ctx, name, *vertexCount)
	if err != nil {
		s.log.Warn("survivor lookup failed", "name", name, "error", err)
		return nil
	}
	for i := range matches {
		if !matches[i].IsHidden {
			return &matches[i]
		}
	}
	return nil
}

func (s *Service) mapStoreError(err error, fallback string) error {
	var apiErr common.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return common.Errf(http.StatusRequestTimeout, common.CodeInternal, "request timed out")
	case errors.Is(err, gorm.ErrRecordNotFound), strings.Contains(err.Error(), "not found"):
		return common.Errf(http.StatusNotFound, common.CodeNotFound, "model not found")
	default:
		s.log.Error(fallback, "error", err)
		return common.Errf(http.StatusInternalServerError, common.CodeInternal, "%s", fallback)
	}
}

func toModelDTO(m *models.Model) dto.ModelResponseDTO {
	return dto.ModelResponseDTO{
		ID:          m.ID,
		Name:        m.Name,
		VertexCount: m.VertexCount,
		FaceCount:   m.FaceCount,
		IsHidden:    m.IsHidden,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
