package dedup_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/dedup"
	"github.com/Papyszoo/Modelibr-sub005/internal/events"
	"github.com/Papyszoo/Modelibr-sub005/internal/logger"
	"github.com/Papyszoo/Modelibr-sub005/internal/mocks"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
	"github.com/Papyszoo/Modelibr-sub005/internal/storage/postgres"
)

var (
	hashA = strings.Repeat("aa", 32)
	hashB = strings.Repeat("bb", 32)
	hashC = strings.Repeat("cc", 32)
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Model{},
		&models.ModelVersion{},
		&models.File{},
		&models.ThumbnailJob{},
		&models.ThumbnailJobEvent{},
		&models.BatchUpload{},
	)
	require.NoError(t, err)

	return db
}

type fixture struct {
	db         *gorm.DB
	modelRepo  *postgres.ModelRepository
	jobStore   *postgres.JobStore
	engine     *dedup.Engine
	shownIDs   *[]uint
	dispatcher *events.Dispatcher
}

func setupEngine(t *testing.T) *fixture {
	db := setupDB(t)
	modelRepo := postgres.NewModelRepository(db)
	batchRepo := postgres.NewBatchUploadRepository(db)
	jobStore := postgres.NewJobStore(db)

	dispatcher := events.NewDispatcher(logger.Nop())
	shownIDs := &[]uint{}
	dispatcher.Register(events.ModelShownName, func(ctx context.Context, ev events.Event) error {
		shown := ev.(events.ModelShown)
		*shownIDs = append(*shownIDs, shown.ModelID)
		return nil
	})

	engine := dedup.NewEngine(modelRepo, batchRepo, jobStore, dispatcher, logger.Nop())
	return &fixture{
		db:         db,
		modelRepo:  modelRepo,
		jobStore:   jobStore,
		engine:     engine,
		shownIDs:   shownIDs,
		dispatcher: dispatcher,
	}
}

func seedModel(t *testing.T, repo *postgres.ModelRepository, name string, vertices int, hidden bool, fileHashes ...string) *models.Model {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	m, err := models.NewModel(name, now)
	require.NoError(t, err)
	m.VertexCount = &vertices
	m.IsHidden = hidden

	files := make([]models.File, len(fileHashes))
	for i, h := range fileHashes {
		files[i] = models.File{Name: "mesh.obj", ContentHash: h, FileType: config.FileTypeObj, CreatedAt: now}
	}
	m.Versions = []models.ModelVersion{{Number: 1, CreatedAt: now, Files: files}}

	require.NoError(t, repo.Create(ctx, m))
	return m
}

func TestEngine_Run_NoMatches(t *testing.T) {
	f := setupEngine(t)

	summary, err := f.engine.Run(context.Background(), "Cube", 24)
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestEngine_Run_SingleMatchRevealsHiddenModel(t *testing.T) {
	f := setupEngine(t)
	m := seedModel(t, f.modelRepo, "Cube", 24, true, hashA)

	summary, err := f.engine.Run(context.Background(), "Cube", 24)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, m.ID, summary.SurvivorID)
	assert.True(t, summary.Revealed)
	assert.Empty(t, summary.LoserIDs)

	got, err := f.modelRepo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.False(t, got.IsHidden)
	assert.Equal(t, []uint{m.ID}, *f.shownIDs)
}

func TestEngine_Run_RevealIsIdempotent(t *testing.T) {
	f := setupEngine(t)
	m := seedModel(t, f.modelRepo, "Cube", 24, true, hashA)

	_, err := f.engine.Run(context.Background(), "Cube", 24)
	require.NoError(t, err)

	summary, err := f.engine.Run(context.Background(), "Cube", 24)
	require.NoError(t, err)
	assert.False(t, summary.Revealed)
	assert.Equal(t, []uint{m.ID}, *f.shownIDs, "no second shown event")
}

func TestEngine_Run_VisibleDuplicateSurvives(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	hiddenA := seedModel(t, f.modelRepo, "Cube", 24, true, hashA)
	visibleB := seedModel(t, f.modelRepo, "Cube", 24, false, hashB)
	hiddenC := seedModel(t, f.modelRepo, "Cube", 24, true, hashC)

	summary, err := f.engine.Run(ctx, "Cube", 24)
	require.NoError(t, err)
	assert.Equal(t, visibleB.ID, summary.SurvivorID, "visible duplicate keeps its identity")
	assert.ElementsMatch(t, []uint{hiddenA.ID, hiddenC.ID}, summary.LoserIDs)
	assert.Equal(t, 2, summary.FilesLinked)
	assert.Zero(t, summary.FilesSkipped)
	assert.Empty(t, failedBestEffort(summary))

	survivor, err := f.modelRepo.GetByID(ctx, visibleB.ID)
	require.NoError(t, err)
	require.Len(t, survivor.Versions, 1)
	assert.Len(t, survivor.Versions[0].Files, 3, "loser files folded into survivor")

	for _, id := range []uint{hiddenA.ID, hiddenC.ID} {
		_, err := f.modelRepo.GetByID(ctx, id)
		assert.Error(t, err, "loser is gone")
	}
}

func TestEngine_Run_AllHiddenLowestIDSurvives(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	first := seedModel(t, f.modelRepo, "Cube", 24, true, hashA)
	seedModel(t, f.modelRepo, "Cube", 24, true, hashB)

	summary, err := f.engine.Run(ctx, "Cube", 24)
	require.NoError(t, err)
	assert.Equal(t, first.ID, summary.SurvivorID)
	assert.True(t, summary.Revealed, "survivor revealed after merge")

	survivor, err := f.modelRepo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, survivor.IsHidden)
	assert.Equal(t, []uint{first.ID}, *f.shownIDs)
}

func TestEngine_Run_SkipsFilesSurvivorAlreadyHas(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	survivor := seedModel(t, f.modelRepo, "Cube", 24, false, hashA, hashB)
	seedModel(t, f.modelRepo, "Cube", 24, true, hashA, hashC)

	summary, err := f.engine.Run(ctx, "Cube", 24)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FilesLinked, "only the new hash is linked")
	assert.Equal(t, 1, summary.FilesSkipped)

	got, err := f.modelRepo.GetByID(ctx, survivor.ID)
	require.NoError(t, err)
	assert.Len(t, got.Versions[0].Files, 3)
}

func TestEngine_Run_CancelsLoserJobs(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	statuses := &[]events.ThumbnailStatusChanged{}
	f.dispatcher.Register(events.ThumbnailStatusChangedName, func(ctx context.Context, ev events.Event) error {
		*statuses = append(*statuses, ev.(events.ThumbnailStatusChanged))
		return nil
	})

	seedModel(t, f.modelRepo, "Cube", 24, false, hashA)
	loser := seedModel(t, f.modelRepo, "Cube", 24, true, hashB)

	versionID := loser.Versions[0].ID
	jobEntity, err := models.NewModelThumbnailJob(loser.ID, versionID, hashB, time.Now())
	require.NoError(t, err)
	loserJob, err := f.jobStore.Enqueue(ctx, jobEntity)
	require.NoError(t, err)

	_, err = f.engine.Run(ctx, "Cube", 24)
	require.NoError(t, err)

	cancelled, err := f.jobStore.Get(ctx, loserJob.ID)
	require.NoError(t, err)
	assert.Equal(t, config.JobStatusDead, cancelled.Status)
	require.NotNil(t, cancelled.ErrorMessage)
	assert.Equal(t, config.CancelledByOwnerMessage, *cancelled.ErrorMessage)

	// Clients hear about the cancellation like any other transition.
	require.Len(t, *statuses, 1)
	ev := (*statuses)[0]
	assert.Equal(t, loserJob.ID, ev.JobID)
	assert.Equal(t, config.JobStatusDead, ev.Status)
	assert.Equal(t, config.CancelledByOwnerMessage, ev.ErrorMessage)
}

func TestEngine_Run_BestEffortStepsDoNotAbortMerge(t *testing.T) {
	ctx := context.Background()

	survivor := modelWithID(1, false, hashA)
	loser := modelWithID(2, true, hashB)

	modelRepo := new(mocks.ModelRepoMock)
	batchRepo := new(mocks.BatchUploadRepoMock)
	jobs := new(mocks.JobStoreMock)

	modelRepo.On("GetAllByNameAndVertices", ctx, "Cube", 24).
		Return([]models.Model{*survivor, *loser}, nil)
	modelRepo.On("LinkFile", ctx, survivor.Versions[0].ID, mock.Anything).Return(nil)
	modelRepo.On("Delete", ctx, mock.Anything).Return(nil)
	modelRepo.On("Save", ctx, mock.Anything).Return(nil)
	batchRepo.On("UpdateModelIDForModel", ctx, loser.ID, survivor.ID).
		Return(errors.New("batch table unavailable"))
	jobs.On("CancelForTarget", ctx, config.TargetModel, loser.ID, mock.Anything).
		Return(nil, errors.New("job store unavailable"))

	engine := dedup.NewEngine(modelRepo, batchRepo, jobs, events.NewDispatcher(logger.Nop()), logger.Nop())

	summary, err := engine.Run(ctx, "Cube", 24)
	require.NoError(t, err, "best-effort failures never fail the run")
	assert.Equal(t, 1, summary.FilesLinked)
	assert.Len(t, failedBestEffort(summary), 2)

	modelRepo.AssertCalled(t, "Delete", ctx, mock.Anything)
}

func TestEngine_HandleMetadataProvided(t *testing.T) {
	t.Run("no vertex count skips the pass", func(t *testing.T) {
		modelRepo := new(mocks.ModelRepoMock)
		engine := dedup.NewEngine(modelRepo, new(mocks.BatchUploadRepoMock), new(mocks.JobStoreMock),
			events.NewDispatcher(logger.Nop()), logger.Nop())

		err := engine.HandleMetadataProvided(context.Background(), events.ModelMetadataProvided{ModelID: 1, Name: "Cube"})
		require.NoError(t, err)
		modelRepo.AssertNotCalled(t, "GetAllByNameAndVertices", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("wrong event type is rejected", func(t *testing.T) {
		engine := dedup.NewEngine(new(mocks.ModelRepoMock), new(mocks.BatchUploadRepoMock), new(mocks.JobStoreMock),
			events.NewDispatcher(logger.Nop()), logger.Nop())

		err := engine.HandleMetadataProvided(context.Background(), events.ModelShown{ModelID: 1})
		require.Error(t, err)
	})

	t.Run("runs a pass when geometry is known", func(t *testing.T) {
		f := setupEngine(t)
		m := seedModel(t, f.modelRepo, "Cube", 24, true, hashA)

		vertices := 24
		err := f.engine.HandleMetadataProvided(context.Background(),
			events.ModelMetadataProvided{ModelID: m.ID, Name: "Cube", VertexCount: &vertices})
		require.NoError(t, err)

		got, err := f.modelRepo.GetByID(context.Background(), m.ID)
		require.NoError(t, err)
		assert.False(t, got.IsHidden)
	})
}

func modelWithID(id uint, hidden bool, fileHashes ...string) *models.Model {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	files := make([]models.File, len(fileHashes))
	for i, h := range fileHashes {
		files[i] = models.File{ID: uint(100*id) + uint(i), ModelVersionID: 10 * id, Name: "mesh.obj", ContentHash: h, FileType: config.FileTypeObj}
	}
	return &models.Model{
		ID:        id,
		Name:      "Cube",
		IsHidden:  hidden,
		CreatedAt: now,
		Versions:  []models.ModelVersion{{ID: 10 * id, ModelID: id, Number: 1, Files: files}},
	}
}

func failedBestEffort(s *dedup.MergeSummary) []dedup.MergeStep {
	var out []dedup.MergeStep
	for _, step := range s.BestEffort {
		if step.Error != nil {
			out = append(out, step)
		}
	}
	return out
}
