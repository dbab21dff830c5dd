package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

func SetupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Disable logs during tests
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
