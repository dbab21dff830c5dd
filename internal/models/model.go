package models

import (
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Papyszoo/Modelibr-sub005/common"
	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/events"
)

// Model is a 3D asset. It stays hidden until deduplication has decided
// it is unique (or merged duplicates into it), then Show reveals it.
// Deletion is soft so merged-away losers leave an audit trail.
type Model struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"type:varchar(255);not null;index:idx_models_name_vertices,priority:1"`
	VertexCount *int   `gorm:"index:idx_models_name_vertices,priority:2"`
	FaceCount   *int

	IsHidden        bool `gorm:"not null;default:true"`
	ActiveVersionID *uint

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Versions []ModelVersion `gorm:"constraint:OnDelete:CASCADE"`

	events.Raiser `gorm:"-"`
}

// ModelVersion groups the files of one upload iteration of a model.
type ModelVersion struct {
	ID        uint `gorm:"primaryKey"`
	ModelID   uint `gorm:"not null;index"`
	Number    int  `gorm:"not null"`
	CreatedAt time.Time

	Files []File `gorm:"constraint:OnDelete:CASCADE"`
}

// File is a content-addressed link between a version and stored bytes.
// Hash uniqueness holds within a version; the same physical file may be
// linked from many versions, and any surviving link keeps it alive.
type File struct {
	ID             uint            `gorm:"primaryKey"`
	ModelVersionID uint            `gorm:"not null;uniqueIndex:idx_files_version_hash,priority:1"`
	Name           string          `gorm:"type:varchar(255);not null"`
	ContentHash    string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_files_version_hash,priority:2"`
	FileType       config.FileType `gorm:"type:varchar(20);not null"`
	SizeBytes      int64
	StorageKey     string `gorm:"type:varchar(255)"`
	CreatedAt      time.Time
}

// NewModel creates a hidden model. Metadata arrives later via the
// metadata-provided event.
func NewModel(name string, now time.Time) (*Model, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.Errf(http.StatusBadRequest, common.CodeValidation, "model name must not be empty")
	}
	return &Model{
		Name:      name,
		IsHidden:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetMetadata records geometry counts reported by the uploader.
func (m *Model) SetMetadata(vertexCount, faceCount *int, now time.Time) error {
	if vertexCount != nil && *vertexCount < 0 {
		return common.Errf(http.StatusBadRequest, common.CodeValidation, "vertex count must not be negative")
	}
	if faceCount != nil && *faceCount < 0 {
		return common.Errf(http.StatusBadRequest, common.CodeValidation, "face count must not be negative")
	}
	m.VertexCount = vertexCount
	m.FaceCount = faceCount
	m.UpdatedAt = now
	return nil
}

// Show reveals a hidden model and raises ModelShown. Calling it on an
// already-visible model is a no-op and raises nothing.
func (m *Model) Show(now time.Time) bool {
	if !m.IsHidden {
		return false
	}
	m.IsHidden = false
	m.UpdatedAt = now
	m.Raise(events.ModelShown{ModelID: m.ID})
	return true
}

// SetActiveVersion moves the model's active version pointer and raises
// ActiveVersionChanged.
func (m *Model) SetActiveVersion(versionID uint, hasThumbnail bool, thumbnailURL string, now time.Time) {
	prev := m.ActiveVersionID
	m.ActiveVersionID = &versionID
	m.UpdatedAt = now
	m.Raise(events.ActiveVersionChanged{
		ModelID:           m.ID,
		NewVersionID:      versionID,
		PreviousVersionID: prev,
		HasThumbnail:      hasThumbnail,
		ThumbnailURL:      thumbnailURL,
	})
}

// FirstRenderableFile returns the first 3D-geometry file across the
// model's versions, in version order, or nil when the model only holds
// textures and project files.
func (m *Model) FirstRenderableFile() (*ModelVersion, *File) {
	for vi := range m.Versions {
		v := &m.Versions[vi]
		for fi := range v.Files {
			if v.Files[fi].FileType.IsRenderable() {
				return v, &v.Files[fi]
			}
		}
	}
	return nil, nil
}

// HasFileWithHash reports whether any version of the model already
// links a file with the given content hash.
func (m *Model) HasFileWithHash(hash string) bool {
	for vi := range m.Versions {
		if m.Versions[vi].HasFileWithHash(hash) {
			return true
		}
	}
	return false
}

func (v *ModelVersion) HasFileWithHash(hash string) bool {
	for i := range v.Files {
		if v.Files[i].ContentHash == hash {
			return true
		}
	}
	return false
}
