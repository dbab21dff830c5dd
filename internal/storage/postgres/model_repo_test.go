package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

func seedModel(t *testing.T, repo *ModelRepository, name string, vertices *int, hidden bool, fileHashes ...string) *models.Model {
	t.Helper()
	ctx := context.Background()

	m, err := models.NewModel(name, t0)
	require.NoError(t, err)
	m.VertexCount = vertices
	m.IsHidden = hidden

	files := make([]models.File, len(fileHashes))
	for i, h := range fileHashes {
		files[i] = models.File{
			Name:        "mesh.obj",
			ContentHash: h,
			FileType:    config.FileTypeObj,
			CreatedAt:   t0,
		}
	}
	m.Versions = []models.ModelVersion{{Number: 1, CreatedAt: t0, Files: files}}

	require.NoError(t, repo.Create(ctx, m))
	return m
}

func TestModelRepository_GetByID(t *testing.T) {
	db := SetupTestDB(t)
	repo := NewModelRepository(db)
	ctx := context.Background()

	vertices := 24
	created := seedModel(t, repo, "Cube", &vertices, true, testHash)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cube", got.Name)
	require.Len(t, got.Versions, 1)
	require.Len(t, got.Versions[0].Files, 1)
	assert.Equal(t, testHash, got.Versions[0].Files[0].ContentHash)

	_, err = repo.GetByID(ctx, 9999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestModelRepository_GetAllByNameAndVertices(t *testing.T) {
	db := SetupTestDB(t)
	repo := NewModelRepository(db)
	ctx := context.Background()

	vertices := 24
	other := 36
	hidden := seedModel(t, repo, "Cube", &vertices, true, testHash)
	visible := seedModel(t, repo, "Cube", &vertices, false, otherHash)
	seedModel(t, repo, "Cube", &other, false)
	seedModel(t, repo, "Sphere", &vertices, false)

	deleted := seedModel(t, repo, "Cube", &vertices, false)
	require.NoError(t, repo.Delete(ctx, deleted))

	got, err := repo.GetAllByNameAndVertices(ctx, "Cube", 24)
	require.NoError(t, err)
	require.Len(t, got, 2, "hidden models included, soft-deleted excluded")
	assert.Equal(t, hidden.ID, got[0].ID, "ordered by id")
	assert.Equal(t, visible.ID, got[1].ID)
	require.Len(t, got[0].Versions, 1, "versions preloaded")
}

func TestModelRepository_LinkFile(t *testing.T) {
	db := SetupTestDB(t)
	repo := NewModelRepository(db)
	ctx := context.Background()

	vertices := 24
	m := seedModel(t, repo, "Cube", &vertices, false, testHash)
	versionID := m.Versions[0].ID

	// Linking a new hash adds a row.
	require.NoError(t, repo.LinkFile(ctx, versionID, models.File{
		Name:        "mesh2.obj",
		ContentHash: otherHash,
		FileType:    config.FileTypeObj,
		CreatedAt:   t0,
	}))

	// Linking a duplicate hash into the same version is a silent no-op.
	require.NoError(t, repo.LinkFile(ctx, versionID, models.File{
		Name:        "copy.obj",
		ContentHash: testHash,
		FileType:    config.FileTypeObj,
		CreatedAt:   t0,
	}))

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, got.Versions[0].Files, 2)
}

func TestModelRepository_SoftDeleteKeepsFileRows(t *testing.T) {
	db := SetupTestDB(t)
	repo := NewModelRepository(db)
	ctx := context.Background()

	vertices := 24
	m := seedModel(t, repo, "Cube", &vertices, false, testHash)

	require.NoError(t, repo.Delete(ctx, m))

	_, err := repo.GetByID(ctx, m.ID)
	require.Error(t, err, "soft-deleted model is gone from queries")

	var fileCount int64
	require.NoError(t, db.Model(&models.File{}).Count(&fileCount).Error)
	assert.EqualValues(t, 1, fileCount, "file links survive the soft delete")
}

func TestBatchUploadRepository_UpdateModelIDForModel(t *testing.T) {
	db := SetupTestDB(t)
	repo := NewBatchUploadRepository(db)
	ctx := context.Background()

	batch := uuid.New()
	require.NoError(t, repo.Create(ctx, models.NewBatchUpload(batch, 3, "a.obj", testHash, t0)))
	require.NoError(t, repo.Create(ctx, models.NewBatchUpload(batch, 3, "b.obj", otherHash, t0)))
	require.NoError(t, repo.Create(ctx, models.NewBatchUpload(batch, 4, "c.obj", testHash, t0)))

	require.NoError(t, repo.UpdateModelIDForModel(ctx, 3, 9))

	moved, err := repo.ListByModel(ctx, 9)
	require.NoError(t, err)
	assert.Len(t, moved, 2)

	left, err := repo.ListByModel(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, left)
}
