package asset

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Papyszoo/Modelibr-sub005/common"
	"github.com/Papyszoo/Modelibr-sub005/internal/dto"
	"github.com/Papyszoo/Modelibr-sub005/middleware"
)

type Handler struct {
	service ServiceInterface
}

func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// Create handles POST /models.
func (h *Handler) Create(c *gin.Context) {
	var in dto.CreateModelDTO
	if !middleware.Bind(c, &in) {
		return
	}

	model, err := h.service.CreateModel(c.Request.Context(), &in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, model)
}

// Metadata handles POST /models/:id/metadata.
func (h *Handler) Metadata(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.Error(common.Errf(http.StatusBadRequest, common.CodeValidation, "invalid id: %q", c.Param("id")))
		return
	}

	var in dto.ModelMetadataDTO
	if !middleware.Bind(c, &in) {
		return
	}

	model, err := h.service.ProvideMetadata(c.Request.Context(), uint(id), &in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, model)
}
