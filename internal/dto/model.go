package dto

import "time"

type UploadFileDTO struct {
	Name        string `json:"name" validate:"required"`
	ContentHash string `json:"content_hash" validate:"required,len=64,hexadecimal"`
	SizeBytes   int64  `json:"size_bytes" validate:"gte=0"`
	StorageKey  string `json:"storage_key"`
}

type CreateModelDTO struct {
	Name string        `json:"name" validate:"required,max=255"`
	File UploadFileDTO `json:"file" validate:"required"`
}

type ModelMetadataDTO struct {
	Name        string `json:"name" validate:"required,max=255"`
	VertexCount *int   `json:"vertex_count" validate:"omitempty,gte=0"`
	FaceCount   *int   `json:"face_count" validate:"omitempty,gte=0"`
}

type ModelResponseDTO struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	VertexCount *int      `json:"vertex_count,omitempty"`
	FaceCount   *int      `json:"face_count,omitempty"`
	IsHidden    bool      `json:"is_hidden"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
