package dto

import (
	"encoding/json"
	"time"
)

type JobResponseDTO struct {
	ID                 uint       `json:"id"`
	TargetKind         string     `json:"target_kind"`
	TargetID           uint       `json:"target_id"`
	ModelVersionID     *uint      `json:"model_version_id,omitempty"`
	ContentHash        string     `json:"content_hash"`
	Status             string     `json:"status"`
	AttemptCount       int        `json:"attempt_count"`
	MaxAttempts        int        `json:"max_attempts"`
	LockedBy           *string    `json:"locked_by,omitempty"`
	LockedAt           *time.Time `json:"locked_at,omitempty"`
	LockTimeoutMinutes int        `json:"lock_timeout_minutes"`
	ErrorMessage       *string    `json:"error_message,omitempty"`
	ThumbnailURL       *string    `json:"thumbnail_url,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

type JobEventDTO struct {
	ID           uint            `json:"id"`
	EventType    string          `json:"event_type"`
	Message      string          `json:"message"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}
