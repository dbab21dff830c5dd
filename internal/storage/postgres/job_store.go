package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/job"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

// claimBatchSize bounds how many pending candidates one poll reads.
// Expired locks are collected separately so live-locked rows never
// crowd pending work out of the window.
const claimBatchSize = 10

type JobStore struct {
	db *gorm.DB
}

func NewJobStore(db *gorm.DB) *JobStore {
	return &JobStore{db: db}
}

var _ job.JobStoreInterface = (*JobStore)(nil)

// Enqueue persists a new job. Enqueueing the same (content hash, version)
// twice is a no-op: the unique index rejects the duplicate row and the
// existing job is fetched and returned instead.
func (s *JobStore) Enqueue(ctx context.Context, j *models.ThumbnailJob) (*models.ThumbnailJob, error) {
	if err := s.db.WithContext(ctx).Create(j).Error; err != nil {
		if isUniqueViolation(err) {
			existing, findErr := s.FindByHashAndVersion(ctx, j.ContentHash, j.ModelVersionID)
			if findErr != nil {
				return nil, fmt.Errorf("enqueue: fetch existing job: %w", findErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	return j, nil
}

// FindByHashAndVersion looks up the job for one idempotency key. Returns
// gorm.ErrRecordNotFound wrapped when no job exists.
func (s *JobStore) FindByHashAndVersion(ctx context.Context, contentHash string, versionID *uint) (*models.ThumbnailJob, error) {
	q := s.db.WithContext(ctx).Where("content_hash = ?", contentHash)
	if versionID != nil {
		q = q.Where("model_version_id = ?", *versionID)
	} else {
		q = q.Where("model_version_id IS NULL")
	}

	var j models.ThumbnailJob
	if err := q.First(&j).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found: %w", err)
		}
		return nil, fmt.Errorf("find job by hash and version: %w", err)
	}
	return &j, nil
}

// Get retrieves a single job by ID.
func (s *JobStore) Get(ctx context.Context, id uint) (*models.ThumbnailJob, error) {
	var j models.ThumbnailJob
	if err := s.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found: %w", err)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &j, nil
}

// TryClaimNext claims the oldest claimable job for workerID, or returns
// (nil, nil) when nothing is claimable. Claimable means pending, or
// processing with an expired lock; only those rows enter the candidate
// set, so a queue full of live-locked jobs cannot starve a newer
// pending one. The claim is written with a compare-and-set on the
// attempt counter so two pollers racing for the same row resolve to
// exactly one winner.
func (s *JobStore) TryClaimNext(ctx context.Context, workerID string, now time.Time) (*models.ThumbnailJob, error) {
	var pending []models.ThumbnailJob
	err := s.db.WithContext(ctx).
		Where("status = ?", config.JobStatusPending).
		Order("created_at ASC, id ASC").
		Limit(claimBatchSize).
		Find(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}

	expired, err := s.ListExpiredLocks(ctx, now)
	if err != nil {
		return nil, err
	}

	candidates := append(pending, expired...)
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].CreatedAt.Equal(candidates[b].CreatedAt) {
			return candidates[a].ID < candidates[b].ID
		}
		return candidates[a].CreatedAt.Before(candidates[b].CreatedAt)
	})

	for i := range candidates {
		j := &candidates[i]
		prevAttempts := j.AttemptCount
		if !j.TryClaim(workerID, now) {
			continue
		}

		res := s.db.WithContext(ctx).Model(&models.ThumbnailJob{}).
			Where("id = ? AND attempt_count = ?", j.ID, prevAttempts).
			Updates(map[string]any{
				"status":        j.Status,
				"locked_by":     j.LockedBy,
				"locked_at":     j.LockedAt,
				"attempt_count": j.AttemptCount,
				"updated_at":    j.UpdatedAt,
			})
		if res.Error != nil {
			return nil, fmt.Errorf("claim job %d: %w", j.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// Another worker won the row between read and write.
			continue
		}

		if err := s.insertNewEvents(ctx, j); err != nil {
			return nil, err
		}
		return j, nil
	}
	return nil, nil
}

// RenewLock extends a worker's hold on a processing job.
func (s *JobStore) RenewLock(ctx context.Context, jobID uint, workerID string, now time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.ThumbnailJob{}).
		Where("id = ? AND status = ? AND locked_by = ?", jobID, config.JobStatusProcessing, workerID).
		Updates(map[string]any{"locked_at": now, "updated_at": now})
	if res.Error != nil {
		return fmt.Errorf("renew lock on job %d: %w", jobID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("renew lock on job %d: lock not held by %s", jobID, workerID)
	}
	return nil
}

// Save persists a job's current state along with any audit events the
// aggregate appended since it was loaded.
func (s *JobStore) Save(ctx context.Context, j *models.ThumbnailJob) error {
	if err := s.db.WithContext(ctx).Omit("Events").Save(j).Error; err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return s.insertNewEvents(ctx, j)
}

// insertNewEvents writes audit rows appended in memory (ID zero) and
// leaves already-persisted rows untouched, keeping the trail append-only.
func (s *JobStore) insertNewEvents(ctx context.Context, j *models.ThumbnailJob) error {
	for i := range j.Events {
		ev := &j.Events[i]
		if ev.ID != 0 {
			continue
		}
		ev.ThumbnailJobID = j.ID
		if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
			return fmt.Errorf("append job event: %w", err)
		}
	}
	return nil
}

// CancelForTarget cancels every non-terminal job referencing the target
// and returns the cancelled jobs with their status-change events still
// buffered, so the caller can publish them once its own work is done.
// Used when a model is deleted or merged away mid-flight.
func (s *JobStore) CancelForTarget(ctx context.Context, kind config.TargetKind, targetID uint, now time.Time) ([]models.ThumbnailJob, error) {
	q := s.db.WithContext(ctx).
		Where("target_kind = ?", kind).
		Where("status IN ?", []config.JobStatus{config.JobStatusPending, config.JobStatusProcessing})

	switch kind {
	case config.TargetModel:
		q = q.Where("model_id = ?", targetID)
	case config.TargetTextureSet:
		q = q.Where("texture_set_id = ?", targetID)
	case config.TargetSound:
		q = q.Where("sound_id = ?", targetID)
	default:
		return nil, fmt.Errorf("cancel jobs: unknown target kind %q", kind)
	}

	var jobs []models.ThumbnailJob
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs for target: %w", err)
	}

	var cancelled []models.ThumbnailJob
	for i := range jobs {
		j := &jobs[i]
		if err := j.Cancel(now); err != nil {
			continue
		}
		if err := s.Save(ctx, j); err != nil {
			return cancelled, err
		}
		cancelled = append(cancelled, *j)
	}
	return cancelled, nil
}

// ListByStatus retrieves jobs in one status, oldest first.
func (s *JobStore) ListByStatus(ctx context.Context, status config.JobStatus) ([]models.ThumbnailJob, error) {
	var jobs []models.ThumbnailJob
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC, id ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs by status: %w", err)
	}
	return jobs, nil
}

// ListEvents returns a job's audit trail in occurrence order.
func (s *JobStore) ListEvents(ctx context.Context, jobID uint) ([]models.ThumbnailJobEvent, error) {
	var events []models.ThumbnailJobEvent
	err := s.db.WithContext(ctx).
		Where("thumbnail_job_id = ?", jobID).
		Order("occurred_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list job events: %w", err)
	}
	return events, nil
}

// ListExpiredLocks returns processing jobs whose lock has timed out.
// Expiry depends on each row's own timeout, so the filter runs in
// memory. Feeds both the claim path's lock takeover and the janitor.
func (s *JobStore) ListExpiredLocks(ctx context.Context, now time.Time) ([]models.ThumbnailJob, error) {
	var jobs []models.ThumbnailJob
	err := s.db.WithContext(ctx).
		Where("status = ?", config.JobStatusProcessing).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list processing jobs: %w", err)
	}

	expired := jobs[:0]
	for i := range jobs {
		if jobs[i].IsLockExpired(now) {
			expired = append(expired, jobs[i])
		}
	}
	return expired, nil
}

// isUniqueViolation matches unique-index violations across the postgres
// and sqlite drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
