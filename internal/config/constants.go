package config

import "strings"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusDead       JobStatus = "dead"
)

// IsTerminal reports whether a job in this status can never transition
// again without an explicit admin reset.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusDead
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusDone, JobStatusDead:
		return true
	}
	return false
}

// TargetKind names what a thumbnail job renders. Exactly one target
// reference is set per job.
type TargetKind string

const (
	TargetModel      TargetKind = "model"
	TargetTextureSet TargetKind = "texture_set"
	TargetSound      TargetKind = "sound"
)

// FileType classifies stored files by extension. Only 3D geometry
// formats are renderable into thumbnails; textures and project files
// are skipped by the enqueue-on-show handler.
type FileType string

const (
	FileTypeObj     FileType = "obj"
	FileTypeFbx     FileType = "fbx"
	FileTypeGltf    FileType = "gltf"
	FileTypeGlb     FileType = "glb"
	FileTypeBlend   FileType = "blend"
	FileTypeTexture FileType = "texture"
	FileTypeProject FileType = "project"
	FileTypeUnknown FileType = "unknown"
)

func (f FileType) IsRenderable() bool {
	switch f {
	case FileTypeObj, FileTypeFbx, FileTypeGltf, FileTypeGlb, FileTypeBlend:
		return true
	}
	return false
}

// FileTypeFromName maps a filename to its FileType by extension.
func FileTypeFromName(name string) FileType {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return FileTypeUnknown
	}
	switch strings.ToLower(name[idx+1:]) {
	case "obj":
		return FileTypeObj
	case "fbx":
		return FileTypeFbx
	case "gltf":
		return FileTypeGltf
	case "glb":
		return FileTypeGlb
	case "blend":
		return FileTypeBlend
	case "png", "jpg", "jpeg", "tga", "exr", "hdr", "tif", "tiff":
		return FileTypeTexture
	case "spp", "sbs", "sbsar", "ma", "mb", "max":
		return FileTypeProject
	}
	return FileTypeUnknown
}

// Job retry and lock bounds. Constructors clamp inputs to these ranges.
const (
	DefaultMaxAttempts = 3
	MinMaxAttempts     = 1
	MaxMaxAttempts     = 10

	DefaultLockTimeoutMinutes = 10
	MinLockTimeoutMinutes     = 1
	MaxLockTimeoutMinutes     = 60
)

// CancelledByOwnerMessage is recorded on jobs cancelled because their
// model was deleted or merged away.
const CancelledByOwnerMessage = "cancelled: target no longer exists"
