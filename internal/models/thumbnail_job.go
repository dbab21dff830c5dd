package models

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Papyszoo/Modelibr-sub005/common"
	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/events"
)

var contentHashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// ThumbnailJob is one unit of thumbnail work for a model version,
// texture set or sound. Exactly one target reference is set. Jobs are
// unique per (content hash, model version); re-enqueuing the same
// content is a no-op at the store level.
type ThumbnailJob struct {
	ID uint `gorm:"primaryKey"`

	TargetKind     config.TargetKind `gorm:"type:varchar(20);not null"`
	ModelID        *uint             `gorm:"index"`
	ModelVersionID *uint             `gorm:"uniqueIndex:idx_thumbnail_jobs_hash_version"`
	TextureSetID   *uint
	SoundID        *uint
	ContentHash    string `gorm:"type:varchar(64);not null;uniqueIndex:idx_thumbnail_jobs_hash_version"`

	Status       config.JobStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	AttemptCount int              `gorm:"not null;default:0"`
	MaxAttempts  int              `gorm:"not null;default:3"`

	LockedBy           *string `gorm:"type:varchar(64)"`
	LockedAt           *time.Time
	LockTimeoutMinutes int `gorm:"not null;default:10"`

	ErrorMessage *string `gorm:"type:text"`
	ThumbnailURL *string `gorm:"type:text"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time

	Events []ThumbnailJobEvent `gorm:"constraint:OnDelete:CASCADE"`

	events.Raiser `gorm:"-"`
}

// JobOption tweaks retry and lock settings at construction.
type JobOption func(*ThumbnailJob)

func WithMaxAttempts(n int) JobOption {
	return func(j *ThumbnailJob) { j.MaxAttempts = clamp(n, config.MinMaxAttempts, config.MaxMaxAttempts) }
}

func WithLockTimeoutMinutes(n int) JobOption {
	return func(j *ThumbnailJob) {
		j.LockTimeoutMinutes = clamp(n, config.MinLockTimeoutMinutes, config.MaxLockTimeoutMinutes)
	}
}

// NewModelThumbnailJob creates a pending job for a model version.
func NewModelThumbnailJob(modelID, versionID uint, contentHash string, now time.Time, opts ...JobOption) (*ThumbnailJob, error) {
	j, err := newJob(config.TargetModel, contentHash, now, opts...)
	if err != nil {
		return nil, err
	}
	if modelID == 0 || versionID == 0 {
		return nil, common.Errf(http.StatusBadRequest, common.CodeValidation, "model and version references are required")
	}
	j.ModelID = &modelID
	j.ModelVersionID = &versionID
	return j, nil
}

// NewTextureSetThumbnailJob creates a pending job for a texture set.
func NewTextureSetThumbnailJob(textureSetID uint, contentHash string, now time.Time, opts ...JobOption) (*ThumbnailJob, error) {
	j, err := newJob(config.TargetTextureSet, contentHash, now, opts...)
	if err != nil {
		return nil, err
	}
	if textureSetID == 0 {
		return nil, common.Errf(http.StatusBadRequest, common.CodeValidation, "texture set reference is required")
	}
	j.TextureSetID = &textureSetID
	return j, nil
}

// NewSoundThumbnailJob creates a pending waveform-preview job for a sound.
func NewSoundThumbnailJob(soundID uint, contentHash string, now time.Time, opts ...JobOption) (*ThumbnailJob, error) {
	j, err := newJob(config.TargetSound, contentHash, now, opts...)
	if err != nil {
		return nil, err
	}
	if soundID == 0 {
		return nil, common.Errf(http.StatusBadRequest, common.CodeValidation, "sound reference is required")
	}
	j.SoundID = &soundID
	return j, nil
}

func newJob(kind config.TargetKind, contentHash string, now time.Time, opts ...JobOption) (*ThumbnailJob, error) {
	hash := strings.ToLower(strings.TrimSpace(contentHash))
	if !contentHashPattern.MatchString(hash) {
		return nil, common.Errf(http.StatusBadRequest, common.CodeValidation,
			"content hash must be a 64-character hex sha256 digest")
	}

	j := &ThumbnailJob{
		TargetKind:         kind,
		ContentHash:        hash,
		Status:             config.JobStatusPending,
		MaxAttempts:        config.DefaultMaxAttempts,
		LockTimeoutMinutes: config.DefaultLockTimeoutMinutes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	for _, opt := range opts {
		opt(j)
	}
	j.appendEvent("JobCreated", "thumbnail job enqueued", nil, now)
	return j, nil
}

// TargetID returns the ID of whichever target this job references.
func (j *ThumbnailJob) TargetID() uint {
	switch j.TargetKind {
	case config.TargetModel:
		if j.ModelID != nil {
			return *j.ModelID
		}
	case config.TargetTextureSet:
		if j.TextureSetID != nil {
			return *j.TextureSetID
		}
	case config.TargetSound:
		if j.SoundID != nil {
			return *j.SoundID
		}
	}
	return 0
}

// IsLockExpired reports whether the current lock, if any, has outlived
// its timeout. Expired locks are not swept; they are stolen lazily by
// the next claim attempt.
func (j *ThumbnailJob) IsLockExpired(now time.Time) bool {
	if j.LockedAt == nil {
		return false
	}
	return !now.Before(j.LockedAt.Add(time.Duration(j.LockTimeoutMinutes) * time.Minute))
}

// TryClaim attempts to acquire exclusive processing rights for workerID.
// It fails without mutating the job when another worker holds a live
// lock or the job is terminal. On success the job is Processing, locked
// by workerID, and the attempt counter is incremented.
func (j *ThumbnailJob) TryClaim(workerID string, now time.Time) bool {
	if j.Status.IsTerminal() {
		return false
	}
	if j.Status == config.JobStatusProcessing && j.LockedBy != nil && !j.IsLockExpired(now) {
		return false
	}

	j.Status = config.JobStatusProcessing
	j.LockedBy = &workerID
	j.LockedAt = &now
	j.AttemptCount++
	j.UpdatedAt = now
	j.appendEvent("JobStarted", "claimed by worker "+workerID, nil, now)
	j.raiseStatusChanged()
	return true
}

// RenewLock extends the current lock while a long render is in flight.
// Only the holder may renew.
func (j *ThumbnailJob) RenewLock(workerID string, now time.Time) bool {
	if j.Status != config.JobStatusProcessing || j.LockedBy == nil || *j.LockedBy != workerID {
		return false
	}
	j.LockedAt = &now
	j.UpdatedAt = now
	return true
}

// MarkAsCompleted records a successful render.
func (j *ThumbnailJob) MarkAsCompleted(thumbnailURL string, now time.Time) {
	j.Status = config.JobStatusDone
	j.clearLock()
	j.ErrorMessage = nil
	if thumbnailURL != "" {
		j.ThumbnailURL = &thumbnailURL
	}
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.appendEvent("JobCompleted", "thumbnail rendered", nil, now)
	j.raiseStatusChanged()
}

// MarkAsFailed records a failed render attempt. The job goes back to
// Pending while attempts remain, otherwise to Dead with CompletedAt set.
// Lock fields are always cleared so another worker may claim next.
func (j *ThumbnailJob) MarkAsFailed(errorMessage string, now time.Time) {
	j.ErrorMessage = &errorMessage
	j.clearLock()
	j.UpdatedAt = now

	if j.AttemptCount >= j.MaxAttempts {
		j.Status = config.JobStatusDead
		j.CompletedAt = &now
		j.appendEvent("JobDead", "retry budget exhausted", &errorMessage, now)
	} else {
		j.Status = config.JobStatusPending
		j.appendEvent("JobFailed", "attempt failed, job requeued", &errorMessage, now)
	}
	j.raiseStatusChanged()
}

// Reset unconditionally returns the job to Pending with a fresh retry
// budget. Admin-only escape hatch for dead jobs.
func (j *ThumbnailJob) Reset(now time.Time) {
	j.Status = config.JobStatusPending
	j.AttemptCount = 0
	j.ErrorMessage = nil
	j.CompletedAt = nil
	j.clearLock()
	j.UpdatedAt = now
	j.appendEvent("JobReset", "job reset to pending", nil, now)
	j.raiseStatusChanged()
}

// Cancel terminates a job whose target was deleted or merged away.
// Legal only from Pending or Processing.
func (j *ThumbnailJob) Cancel(now time.Time) error {
	if j.Status.IsTerminal() {
		return common.Errf(http.StatusConflict, common.CodeInvalidOperation,
			"cannot cancel job %d in status %s", j.ID, j.Status)
	}
	msg := config.CancelledByOwnerMessage
	j.Status = config.JobStatusDead
	j.ErrorMessage = &msg
	j.CompletedAt = &now
	j.clearLock()
	j.UpdatedAt = now
	j.appendEvent("JobCancelled", msg, nil, now)
	j.raiseStatusChanged()
	return nil
}

func (j *ThumbnailJob) clearLock() {
	j.LockedBy = nil
	j.LockedAt = nil
}

func (j *ThumbnailJob) appendEvent(eventType, message string, errMsg *string, now time.Time) {
	j.Events = append(j.Events, ThumbnailJobEvent{
		EventType:    eventType,
		Message:      message,
		ErrorMessage: errMsg,
		OccurredAt:   now,
	})
}

func (j *ThumbnailJob) raiseStatusChanged() {
	ev := events.ThumbnailStatusChanged{
		JobID:      j.ID,
		TargetKind: j.TargetKind,
		TargetID:   j.TargetID(),
		Status:     j.Status,
	}
	if j.ThumbnailURL != nil {
		ev.ThumbnailURL = *j.ThumbnailURL
	}
	if j.ErrorMessage != nil {
		ev.ErrorMessage = *j.ErrorMessage
	}
	j.Raise(ev)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
