package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Papyszoo/Modelibr-sub005/internal/job"
	"github.com/Papyszoo/Modelibr-sub005/internal/logger"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

// Worker polls the job store, claims one job at a time, drives the
// external renderer, and reports the outcome to the retry policy.
type Worker struct {
	ID       string
	service  job.JobServiceInterface
	renderer Renderer
	log      *logger.Logger
	quit     chan struct{}
}

func NewWorker(n int, service job.JobServiceInterface, renderer Renderer, log *logger.Logger) *Worker {
	id := fmt.Sprintf("worker-%d-%s", n, uuid.NewString()[:8])
	return &Worker{
		ID:       id,
		service:  service,
		renderer: renderer,
		log:      log.With("worker", id),
		quit:     make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		currentDelay := 1 * time.Second
		maxDelay := 60 * time.Second

		for {
			claimed := w.pullAndProcess(ctx)

			if claimed {
				currentDelay = 1 * time.Second
			} else {
				currentDelay = min(currentDelay*2, maxDelay)
			}

			select {
			case <-time.After(currentDelay):
			case <-w.quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Worker) pullAndProcess(ctx context.Context) bool {
	j, err := w.service.ClaimNext(ctx, w.ID)
	if err != nil {
		w.log.Warn("claim failed", "error", err)
		return false
	}
	if j == nil {
		return false
	}

	w.process(ctx, j)
	return true
}

func (w *Worker) process(ctx context.Context, j *models.ThumbnailJob) {
	w.log.Info("processing job", "job_id", j.ID, "target_kind", j.TargetKind, "attempt", j.AttemptCount)

	renderCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go w.heartbeat(renderCtx, j)

	url, err := w.renderer.Render(renderCtx, j)
	if err != nil {
		if reportErr := w.service.ReportFailed(ctx, j.ID, w.ID, err.Error()); reportErr != nil {
			w.log.Error("failed to report job failure", "job_id", j.ID, "error", reportErr)
		}
		return
	}

	if err := w.service.ReportCompleted(ctx, j.ID, w.ID, url); err != nil {
		w.log.Error("failed to report job completion", "job_id", j.ID, "error", err)
	}
}

// heartbeat renews the lock at half its timeout while a render is in
// flight, so a slow render does not get stolen by another worker.
func (w *Worker) heartbeat(ctx context.Context, j *models.ThumbnailJob) {
	interval := time.Duration(j.LockTimeoutMinutes) * time.Minute / 2
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.service.RenewLock(ctx, j.ID, w.ID); err != nil {
				w.log.Warn("lock renewal failed", "job_id", j.ID, "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) Stop() { close(w.quit) }
