package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Papyszoo/Modelibr-sub005/common"
	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/dto"
	"github.com/Papyszoo/Modelibr-sub005/internal/events"
	"github.com/Papyszoo/Modelibr-sub005/internal/logger"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

type JobService struct {
	store      JobStoreInterface
	modelRepo  ModelLoaderInterface
	dispatcher *events.Dispatcher
	log        *logger.Logger
	now        func() time.Time
}

func NewJobService(store JobStoreInterface, modelRepo ModelLoaderInterface, dispatcher *events.Dispatcher, log *logger.Logger) *JobService {
	return &JobService{
		store:      store,
		modelRepo:  modelRepo,
		dispatcher: dispatcher,
		log:        log.With("component", "job_service"),
		now:        time.Now,
	}
}

var _ JobServiceInterface = (*JobService)(nil)

// EnqueueModelThumbnail creates a pending thumbnail job for a model
// version. Idempotent per (content hash, version): enqueueing the same
// target twice returns the job created the first time.
func (s *JobService) EnqueueModelThumbnail(ctx context.Context, modelID, versionID uint, contentHash string) (*models.ThumbnailJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, common.CodeInternal, "request canceled or timed out")
	}

	j, err := models.NewModelThumbnailJob(modelID, versionID, contentHash, s.now())
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Enqueue(ctx, j)
	if err != nil {
		return nil, s.mapStoreError(err, "failed to enqueue thumbnail job")
	}
	return stored, nil
}

// ClaimNext claims the oldest claimable job for workerID and publishes
// the resulting status-change event. Returns (nil, nil) when the queue
// has nothing claimable; that is the normal try-again-later signal, not
// an error.
func (s *JobService) ClaimNext(ctx context.Context, workerID string) (*models.ThumbnailJob, error) {
	j, err := s.store.TryClaimNext(ctx, workerID, s.now())
	if err != nil {
		return nil, s.mapStoreError(err, "failed to claim job")
	}
	if j == nil {
		return nil, nil
	}
	if err := s.publish(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// RenewLock extends the worker's hold on a processing job.
func (s *JobService) RenewLock(ctx context.Context, jobID uint, workerID string) error {
	if err := s.store.RenewLock(ctx, jobID, workerID, s.now()); err != nil {
		return s.mapStoreError(err, "failed to renew lock")
	}
	return nil
}

// ReportCompleted records a successful render for a job.
func (s *JobService) ReportCompleted(ctx context.Context, jobID uint, workerID string, thumbnailURL string) error {
	j, err := s.store.Get(ctx, jobID)
	if err != nil {
		return s.mapStoreError(err, "failed to load job")
	}

	j.MarkAsCompleted(thumbnailURL, s.now())
	if err := s.store.Save(ctx, j); err != nil {
		return s.mapStoreError(err, "failed to save job")
	}
	s.log.Info("job completed", "job_id", j.ID, "worker", workerID)
	return s.publish(ctx, j)
}

// ReportFailed records a failed render attempt. The retry policy either
// requeues the job or moves it to the dead-letter state.
func (s *JobService) ReportFailed(ctx context.Context, jobID uint, workerID string, errorMessage string) error {
	j, err := s.store.Get(ctx, jobID)
	if err != nil {
		return s.mapStoreError(err, "failed to load job")
	}

	j.MarkAsFailed(errorMessage, s.now())
	if err := s.store.Save(ctx, j); err != nil {
		return s.mapStoreError(err, "failed to save job")
	}
	s.log.Warn("job attempt failed",
		"job_id", j.ID, "worker", workerID, "status", j.Status,
		"attempts", j.AttemptCount, "max_attempts", j.MaxAttempts)
	return s.publish(ctx, j)
}

// GetJobByID retrieves a job by its ID.
func (s *JobService) GetJobByID(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, common.CodeInternal, "request timed out")
	}

	j, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.mapStoreError(err, "failed to get job")
	}
	d := toJobDTO(j)
	return &d, nil
}

// ListJobsByStatus retrieves all jobs in one status.
func (s *JobService) ListJobsByStatus(ctx context.Context, status config.JobStatus) ([]dto.JobResponseDTO, error) {
	if !status.Valid() {
		return nil, common.NewAPIError(http.StatusBadRequest, common.CodeValidation, "invalid status", map[string]any{
			"provided": string(status),
			"allowed":  []config.JobStatus{config.JobStatusPending, config.JobStatusProcessing, config.JobStatusDone, config.JobStatusDead},
		})
	}

	jobs, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, s.mapStoreError(err, "failed to list jobs")
	}

	out := make([]dto.JobResponseDTO, len(jobs))
	for i := range jobs {
		out[i] = toJobDTO(&jobs[i])
	}
	return out, nil
}

// ListJobEvents returns a job's audit trail in occurrence order.
func (s *JobService) ListJobEvents(ctx context.Context, jobID uint) ([]dto.JobEventDTO, error) {
	if _, err := s.store.Get(ctx, jobID); err != nil {
		return nil, s.mapStoreError(err, "failed to get job")
	}

	evs, err := s.store.ListEvents(ctx, jobID)
	if err != nil {
		return nil, s.mapStoreError(err, "failed to list job events")
	}

	out := make([]dto.JobEventDTO, len(evs))
	for i, ev := range evs {
		out[i] = dto.JobEventDTO{
			ID:           ev.ID,
			EventType:    ev.EventType,
			Message:      ev.Message,
			Metadata:     json.RawMessage(ev.Metadata),
			ErrorMessage: ev.ErrorMessage,
			OccurredAt:   ev.OccurredAt,
		}
	}
	return out, nil
}

// ResetJob unconditionally returns a job to pending with a fresh retry
// budget. Admin escape hatch for dead jobs.
func (s *JobService) ResetJob(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	j, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.mapStoreError(err, "failed to get job")
	}

	j.Reset(s.now())
	if err := s.store.Save(ctx, j); err != nil {
		return nil, s.mapStoreError(err, "failed to save job")
	}
	if err := s.publish(ctx, j); err != nil {
		return nil, err
	}
	d := toJobDTO(j)
	return &d, nil
}

// HandleAssetUploaded enqueues a thumbnail job for a freshly uploaded
// file, idempotent on the file's content hash.
func (s *JobService) HandleAssetUploaded(ctx context.Context, e events.Event) error {
	up, ok := e.(events.AssetUploaded)
	if !ok {
		return fmt.Errorf("unexpected event type %T", e)
	}
	if !config.FileTypeFromName(up.FileName).IsRenderable() {
		return nil
	}
	_, err := s.EnqueueModelThumbnail(ctx, up.ModelID, up.VersionID, up.ContentHash)
	return err
}

// HandleModelShown enqueues a thumbnail job for the first renderable
// file of a newly revealed model. A model with no renderable file is
// not an error; thumbnail generation is simply skipped.
func (s *JobService) HandleModelShown(ctx context.Context, e events.Event) error {
	shown, ok := e.(events.ModelShown)
	if !ok {
		return fmt.Errorf("unexpected event type %T", e)
	}

	m, err := s.modelRepo.GetByID(ctx, shown.ModelID)
	if err != nil {
		return s.mapStoreError(err, "failed to load shown model")
	}

	version, file := m.FirstRenderableFile()
	if file == nil {
		s.log.Info("model has no renderable file, skipping thumbnail", "model_id", m.ID)
		return nil
	}

	_, err = s.EnqueueModelThumbnail(ctx, m.ID, version.ID, file.ContentHash)
	return err
}

// RegisterHandlers subscribes the service to the events it orchestrates.
func (s *JobService) RegisterHandlers(d *events.Dispatcher) {
	d.Register(events.AssetUploadedName, s.HandleAssetUploaded)
	d.Register(events.ModelShownName, s.HandleModelShown)
}

// publish dispatches the domain events buffered on the aggregate since
// it was loaded. Called only after a successful save.
func (s *JobService) publish(ctx context.Context, j *models.ThumbnailJob) error {
	evs := j.PullEvents()
	if len(evs) == 0 {
		return nil
	}
	return s.dispatcher.Publish(ctx, evs...)
}

func (s *JobService) mapStoreError(err error, fallback string) error {
	var apiErr common.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return common.Errf(http.StatusRequestTimeout, common.CodeInternal, "request timed out")
	case errors.Is(err, gorm.ErrRecordNotFound), strings.Contains(err.Error(), "not found"):
		return common.Errf(http.StatusNotFound, common.CodeNotFound, "job not found")
	default:
		s.log.Error(fallback, "error", err)
		return common.Errf(http.StatusInternalServerError, common.CodeInternal, "%s", fallback)
	}
}

func toJobDTO(j *models.ThumbnailJob) dto.JobResponseDTO {
	return dto.JobResponseDTO{
		ID:                 j.ID,
		TargetKind:         string(j.TargetKind),
		TargetID:           j.TargetID(),
		ModelVersionID:     j.ModelVersionID,
		ContentHash:        j.ContentHash,
		Status:             string(j.Status),
		AttemptCount:       j.AttemptCount,
		MaxAttempts:        j.MaxAttempts,
		LockedBy:           j.LockedBy,
		LockedAt:           j.LockedAt,
		LockTimeoutMinutes: j.LockTimeoutMinutes,
		ErrorMessage:       j.ErrorMessage,
		ThumbnailURL:       j.ThumbnailURL,
		CreatedAt:          j.CreatedAt,
		UpdatedAt:          j.UpdatedAt,
		CompletedAt:        j.CompletedAt,
	}
}
