package job

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/dto"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

// JobStoreInterface defines the contract for thumbnail job persistence.
type JobStoreInterface interface {
	Enqueue(ctx context.Context, j *models.ThumbnailJob) (*models.ThumbnailJob, error)
	FindByHashAndVersion(ctx context.Context, contentHash string, versionID *uint) (*models.ThumbnailJob, error)
	Get(ctx context.Context, id uint) (*models.ThumbnailJob, error)
	TryClaimNext(ctx context.Context, workerID string, now time.Time) (*models.ThumbnailJob, error)
	RenewLock(ctx context.Context, jobID uint, workerID string, now time.Time) error
	Save(ctx context.Context, j *models.ThumbnailJob) error
	CancelForTarget(ctx context.Context, kind config.TargetKind, targetID uint, now time.Time) ([]models.ThumbnailJob, error)
	ListByStatus(ctx context.Context, status config.JobStatus) ([]models.ThumbnailJob, error)
	ListEvents(ctx context.Context, jobID uint) ([]models.ThumbnailJobEvent, error)
	ListExpiredLocks(ctx context.Context, now time.Time) ([]models.ThumbnailJob, error)
}

// ModelLoaderInterface is the slice of the model repository the job
// service needs to pick a renderable file on reveal.
type ModelLoaderInterface interface {
	GetByID(ctx context.Context, id uint) (*models.Model, error)
}

// JobServiceInterface defines the contract for job business logic.
type JobServiceInterface interface {
	EnqueueModelThumbnail(ctx context.Context, modelID, versionID uint, contentHash string) (*models.ThumbnailJob, error)
	ClaimNext(ctx context.Context, workerID string) (*models.ThumbnailJob, error)
	RenewLock(ctx context.Context, jobID uint, workerID string) error
	ReportCompleted(ctx context.Context, jobID uint, workerID string, thumbnailURL string) error
	ReportFailed(ctx context.Context, jobID uint, workerID string, errorMessage string) error
	GetJobByID(ctx context.Context, id uint) (*dto.JobResponseDTO, error)
	ListJobsByStatus(ctx context.Context, status config.JobStatus) ([]dto.JobResponseDTO, error)
	ListJobEvents(ctx context.Context, jobID uint) ([]dto.JobEventDTO, error)
	ResetJob(ctx context.Context, id uint) (*dto.JobResponseDTO, error)
}

// JobHandlerInterface defines the contract for HTTP request handlers.
type JobHandlerInterface interface {
	Get(c *gin.Context)
	List(c *gin.Context)
	Events(c *gin.Context)
	Reset(c *gin.Context)
}
