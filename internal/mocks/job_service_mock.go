package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/dto"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

type JobServiceMock struct {
	mock.Mock
}

func (m *JobServiceMock) EnqueueModelThumbnail(ctx context.Context, modelID, versionID uint, contentHash string) (*models.ThumbnailJob, error) {
	args := m.Called(ctx, modelID, versionID, contentHash)

	job, _ := args.Get(0).(*models.ThumbnailJob)
	return job, args.Error(1)
}

func (m *JobServiceMock) ClaimNext(ctx context.Context, workerID string) (*models.ThumbnailJob, error) {
	args := m.Called(ctx, workerID)

	job, _ := args.Get(0).(*models.ThumbnailJob)
	return job, args.Error(1)
}

func (m *JobServiceMock) RenewLock(ctx context.Context, jobID uint, workerID string) error {
	args := m.Called(ctx, jobID, workerID)
	return args.Error(0)
}

func (m *JobServiceMock) ReportCompleted(ctx context.Context, jobID uint, workerID string, thumbnailURL string) error {
	args := m.Called(ctx, jobID, workerID, thumbnailURL)
	return args.Error(0)
}

func (m *JobServiceMock) ReportFailed(ctx context.Context, jobID uint, workerID string, errorMessage string) error {
	args := m.Called(ctx, jobID, workerID, errorMessage)
	return args.Error(0)
}

func (m *JobServiceMock) GetJobByID(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id)

	out, _ := args.Get(0).(*dto.JobResponseDTO)
	return out, args.Error(1)
}

func (m *JobServiceMock) ListJobsByStatus(ctx context.Context, status config.JobStatus) ([]dto.JobResponseDTO, error) {
	args := m.Called(ctx, status)

	out, _ := args.Get(0).([]dto.JobResponseDTO)
	return out, args.Error(1)
}

func (m *JobServiceMock) ListJobEvents(ctx context.Context, jobID uint) ([]dto.JobEventDTO, error) {
	args := m.Called(ctx, jobID)

	out, _ := args.Get(0).([]dto.JobEventDTO)
	return out, args.Error(1)
}

func (m *JobServiceMock) ResetJob(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id)

	out, _ := args.Get(0).(*dto.JobResponseDTO)
	return out, args.Error(1)
}
