package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/logger"
)

// RedisNotifier publishes notification payloads to a redis channel that
// the UI gateway fans out to clients.
type RedisNotifier struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

type thumbnailStatusPayload struct {
	Type         string `json:"type"`
	TargetKind   string `json:"target_kind"`
	TargetID     uint   `json:"target_id"`
	Status       string `json:"status"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type activeVersionPayload struct {
	Type              string `json:"type"`
	ModelID           uint   `json:"model_id"`
	NewVersionID      uint   `json:"new_version_id"`
	PreviousVersionID *uint  `json:"previous_version_id,omitempty"`
	HasThumbnail      bool   `json:"has_thumbnail"`
	ThumbnailURL      string `json:"thumbnail_url,omitempty"`
}

// NewRedisNotifier connects to redis and verifies the connection.
func NewRedisNotifier(addr, channel string, log *logger.Logger) (*RedisNotifier, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	if channel == "" {
		channel = "notifications"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisNotifier{
		log:     log.With("component", "redis_notifier"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

var _ Service = (*RedisNotifier)(nil)

func (n *RedisNotifier) SendThumbnailStatusChanged(ctx context.Context, kind config.TargetKind, targetID uint, status config.JobStatus, thumbnailURL, errorMessage string) error {
	return n.publish(ctx, thumbnailStatusPayload{
		Type:         "thumbnail_status_changed",
		TargetKind:   string(kind),
		TargetID:     targetID,
		Status:       string(status),
		ThumbnailURL: thumbnailURL,
		ErrorMessage: errorMessage,
	})
}

func (n *RedisNotifier) SendActiveVersionChanged(ctx context.Context, modelID, newVersionID uint, previousVersionID *uint, hasThumbnail bool, thumbnailURL string) error {
	return n.publish(ctx, activeVersionPayload{
		Type:              "active_version_changed",
		ModelID:           modelID,
		NewVersionID:      newVersionID,
		PreviousVersionID: previousVersionID,
		HasThumbnail:      hasThumbnail,
		ThumbnailURL:      thumbnailURL,
	})
}

func (n *RedisNotifier) publish(ctx context.Context, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, n.channel, raw).Err()
}

func (n *RedisNotifier) Close() error {
	return n.rdb.Close()
}
