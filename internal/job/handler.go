package job

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Papyszoo/Modelibr-sub005/common"
	"github.com/Papyszoo/Modelibr-sub005/internal/config"
)

type JobHandler struct {
	service JobServiceInterface
}

func NewJobHandler(service JobServiceInterface) *JobHandler {
	return &JobHandler{service: service}
}

var _ JobHandlerInterface = (*JobHandler)(nil)

// Get handles GET /jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	job, err := h.service.GetJobByID(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// List handles GET /jobs?status=pending.
func (h *JobHandler) List(c *gin.Context) {
	status := config.JobStatus(c.DefaultQuery("status", string(config.JobStatusPending)))

	jobs, err := h.service.ListJobsByStatus(c.Request.Context(), status)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// Events handles GET /jobs/:id/events, the ordered audit trail.
func (h *JobHandler) Events(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	events, err := h.service.ListJobEvents(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Reset handles POST /jobs/:id/reset, the admin retry of a dead job.
func (h *JobHandler) Reset(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	job, err := h.service.ResetJob(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.Error(common.Errf(http.StatusBadRequest, common.CodeValidation, "invalid id: %q", c.Param("id")))
		return 0, false
	}
	return uint(id), true
}
