package events

import "github.com/Papyszoo/Modelibr-sub005/internal/config"

// Event is a domain event raised by an aggregate mutation and delivered
// in-process by the Dispatcher.
type Event interface {
	EventName() string
}

const (
	AssetUploadedName          = "asset.uploaded"
	ModelMetadataProvidedName  = "model.metadata_provided"
	ModelShownName             = "model.shown"
	ThumbnailStatusChangedName = "thumbnail.status_changed"
	ActiveVersionChangedName   = "model.active_version_changed"
)

// AssetUploaded is raised when a new file lands in a model version.
type AssetUploaded struct {
	ModelID     uint
	VersionID   uint
	ContentHash string
	FileName    string
}

func (AssetUploaded) EventName() string { return AssetUploadedName }

// ModelMetadataProvided is raised when geometry metadata for a model
// becomes known. VertexCount may be nil when the uploader has not
// parsed the geometry yet; deduplication no-ops in that case.
type ModelMetadataProvided struct {
	ModelID     uint
	Name        string
	VertexCount *int
	FaceCount   *int
}

func (ModelMetadataProvided) EventName() string { return ModelMetadataProvidedName }

// ModelShown is raised when a model transitions from hidden to visible.
type ModelShown struct {
	ModelID uint
}

func (ModelShown) EventName() string { return ModelShownName }

// ThumbnailStatusChanged is raised on every job status transition.
type ThumbnailStatusChanged struct {
	JobID        uint
	TargetKind   config.TargetKind
	TargetID     uint
	Status       config.JobStatus
	ThumbnailURL string
	ErrorMessage string
}

func (ThumbnailStatusChanged) EventName() string { return ThumbnailStatusChangedName }

// ActiveVersionChanged is raised when a model's active version moves.
type ActiveVersionChanged struct {
	ModelID           uint
	NewVersionID      uint
	PreviousVersionID *uint
	HasThumbnail      bool
	ThumbnailURL      string
}

func (ActiveVersionChanged) EventName() string { return ActiveVersionChangedName }
