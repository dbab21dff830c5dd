package notify

import (
	"context"
	"fmt"

	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/events"
	"github.com/Papyszoo/Modelibr-sub005/internal/logger"
)

// Service pushes status updates to connected clients. Push is
// fire-and-forget from the core's perspective: delivery failures are
// logged and never fail the operation that raised the event.
type Service interface {
	SendThumbnailStatusChanged(ctx context.Context, kind config.TargetKind, targetID uint, status config.JobStatus, thumbnailURL, errorMessage string) error
	SendActiveVersionChanged(ctx context.Context, modelID, newVersionID uint, previousVersionID *uint, hasThumbnail bool, thumbnailURL string) error
}

// RegisterHandlers wires the notifier into the event stream.
func RegisterHandlers(d *events.Dispatcher, svc Service, log *logger.Logger) {
	log = log.With("component", "notify")

	d.Register(events.ThumbnailStatusChangedName, func(ctx context.Context, e events.Event) error {
		ev, ok := e.(events.ThumbnailStatusChanged)
		if !ok {
			return fmt.Errorf("unexpected event type %T", e)
		}
		if err := svc.SendThumbnailStatusChanged(ctx, ev.TargetKind, ev.TargetID, ev.Status, ev.ThumbnailURL, ev.ErrorMessage); err != nil {
			log.Warn("thumbnail status push failed", "target", ev.TargetID, "status", ev.Status, "error", err)
		}
		return nil
	})

	d.Register(events.ActiveVersionChangedName, func(ctx context.Context, e events.Event) error {
		ev, ok := e.(events.ActiveVersionChanged)
		if !ok {
			return fmt.Errorf("unexpected event type %T", e)
		}
		if err := svc.SendActiveVersionChanged(ctx, ev.ModelID, ev.NewVersionID, ev.PreviousVersionID, ev.HasThumbnail, ev.ThumbnailURL); err != nil {
			log.Warn("active version push failed", "model_id", ev.ModelID, "error", err)
		}
		return nil
	})
}

// LogNotifier writes notifications to the log. Used when no redis
// channel is configured, and in tests.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("component", "log_notifier")}
}

var _ Service = (*LogNotifier)(nil)

func (n *LogNotifier) SendThumbnailStatusChanged(_ context.Context, kind config.TargetKind, targetID uint, status config.JobStatus, thumbnailURL, errorMessage string) error {
	n.log.Info("thumbnail status changed",
		"target_kind", kind, "target_id", targetID, "status", status,
		"url", thumbnailURL, "error_message", errorMessage)
	return nil
}

func (n *LogNotifier) SendActiveVersionChanged(_ context.Context, modelID, newVersionID uint, previousVersionID *uint, hasThumbnail bool, thumbnailURL string) error {
	n.log.Info("active version changed",
		"model_id", modelID, "new_version_id", newVersionID,
		"previous_version_id", previousVersionID, "has_thumbnail", hasThumbnail, "url", thumbnailURL)
	return nil
}
