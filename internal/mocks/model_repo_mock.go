package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

type ModelRepoMock struct {
	mock.Mock
}

func (m *ModelRepoMock) Create(ctx context.Context, model *models.Model) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *ModelRepoMock) GetByID(ctx context.Context, id uint) (*models.Model, error) {
	args := m.Called(ctx, id)

	model, _ := args.Get(0).(*models.Model)
	return model, args.Error(1)
}

func (m *ModelRepoMock) GetAllByNameAndVertices(ctx context.Context, name string, vertexCount int) ([]models.Model, error) {
	args := m.Called(ctx, name, vertexCount)

	out, _ := args.Get(0).([]models.Model)
	return out, args.Error(1)
}

func (m *ModelRepoMock) Save(ctx context.Context, model *models.Model) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *ModelRepoMock) Delete(ctx context.Context, model *models.Model) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

func (m *ModelRepoMock) AddVersion(ctx context.Context, v *models.ModelVersion) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *ModelRepoMock) LinkFile(ctx context.Context, versionID uint, f models.File) error {
	args := m.Called(ctx, versionID, f)
	return args.Error(0)
}

type BatchUploadRepoMock struct {
	mock.Mock
}

func (m *BatchUploadRepoMock) Create(ctx context.Context, b *models.BatchUpload) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *BatchUploadRepoMock) UpdateModelIDForModel(ctx context.Context, oldModelID, newModelID uint) error {
	args := m.Called(ctx, oldModelID, newModelID)
	return args.Error(0)
}

func (m *BatchUploadRepoMock) ListByModel(ctx context.Context, modelID uint) ([]models.BatchUpload, error) {
	args := m.Called(ctx, modelID)

	out, _ := args.Get(0).([]models.BatchUpload)
	return out, args.Error(1)
}
