package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

type JobStoreMock struct {
	mock.Mock
}

func (m *JobStoreMock) Enqueue(ctx context.Context, j *models.ThumbnailJob) (*models.ThumbnailJob, error) {
	args := m.Called(ctx, j)

	job, _ := args.Get(0).(*models.ThumbnailJob)
	return job, args.Error(1)
}

func (m *JobStoreMock) FindByHashAndVersion(ctx context.Context, contentHash string, versionID *uint) (*models.ThumbnailJob, error) {
	args := m.Called(ctx, contentHash, versionID)

	job, _ := args.Get(0).(*models.ThumbnailJob)
	return job, args.Error(1)
}

func (m *JobStoreMock) Get(ctx context.Context, id uint) (*models.ThumbnailJob, error) {
	args := m.Called(ctx, id)

	job, _ := args.Get(0).(*models.ThumbnailJob)
	return job, args.Error(1)
}

func (m *JobStoreMock) TryClaimNext(ctx context.Context, workerID string, now time.Time) (*models.ThumbnailJob, error) {
	args := m.Called(ctx, workerID, now)

	job, _ := args.Get(0).(*models.ThumbnailJob)
	return job, args.Error(1)
}

func (m *JobStoreMock) RenewLock(ctx context.Context, jobID uint, workerID string, now time.Time) error {
	args := m.Called(ctx, jobID, workerID, now)
	return args.Error(0)
}

func (m *JobStoreMock) Save(ctx context.Context, j *models.ThumbnailJob) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *JobStoreMock) CancelForTarget(ctx context.Context, kind config.TargetKind, targetID uint, now time.Time) ([]models.ThumbnailJob, error) {
	args := m.Called(ctx, kind, targetID, now)

	jobs, _ := args.Get(0).([]models.ThumbnailJob)
	return jobs, args.Error(1)
}

func (m *JobStoreMock) ListByStatus(ctx context.Context, status config.JobStatus) ([]models.ThumbnailJob, error) {
	args := m.Called(ctx, status)

	jobs, _ := args.Get(0).([]models.ThumbnailJob)
	return jobs, args.Error(1)
}

func (m *JobStoreMock) ListEvents(ctx context.Context, jobID uint) ([]models.ThumbnailJobEvent, error) {
	args := m.Called(ctx, jobID)

	events, _ := args.Get(0).([]models.ThumbnailJobEvent)
	return events, args.Error(1)
}

func (m *JobStoreMock) ListExpiredLocks(ctx context.Context, now time.Time) ([]models.ThumbnailJob, error) {
	args := m.Called(ctx, now)

	jobs, _ := args.Get(0).([]models.ThumbnailJob)
	return jobs, args.Error(1)
}
