package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

// Renderer produces a preview image for a job's target. Rendering
// happens in an external process; this core only carries the outcome
// into the retry policy.
type Renderer interface {
	Render(ctx context.Context, job *models.ThumbnailJob) (thumbnailURL string, err error)
}

// HTTPRenderer calls an external render service.
type HTTPRenderer struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRenderer(baseURL string, timeout time.Duration) *HTTPRenderer {
	return &HTTPRenderer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ Renderer = (*HTTPRenderer)(nil)

type renderRequest struct {
	JobID       uint   `json:"job_id"`
	TargetKind  string `json:"target_kind"`
	TargetID    uint   `json:"target_id"`
	ContentHash string `json:"content_hash"`
}

type renderResponse struct {
	ThumbnailURL string `json:"thumbnail_url"`
	Error        string `json:"error,omitempty"`
}

func (r *HTTPRenderer) Render(ctx context.Context, job *models.ThumbnailJob) (string, error) {
	body, err := json.Marshal(renderRequest{
		JobID:       job.ID,
		TargetKind:  string(job.TargetKind),
		TargetID:    job.TargetID(),
		ContentHash: job.ContentHash,
	})
	if err != nil {
		return "", fmt.Errorf("marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("render request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read render response: %w", err)
	}

	var out renderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode render response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return "", fmt.Errorf("renderer failed: %s", out.Error)
		}
		return "", fmt.Errorf("renderer returned status %d", resp.StatusCode)
	}
	return out.ThumbnailURL, nil
}
