package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classmanager/backend/internal/service"
	appErrors "github.com/classmanager/backend/pkg/errors"
	"github.com/classmanager/backend/pkg/response"
)

// ImportHandler exposes the bulk data import endpoint.
type ImportHandler struct {
	service *service.ImportService
}

// NewImportHandler constructs an import handler.
func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{service: svc}
}

// Run godoc
// @Summary Bulk import users, terms, classrooms, courses, disciplines and groups
// @Description Processes the payload section by section in dependency order.
// @Description Rows that fail to resolve or persist are reported in the
// @Description errors list; the rest of the payload is still imported.
// @Tags Import
// @Accept json
// @Produce json
// @Param payload body service.ImportRequest true "Import payload"
// @Success 200 {object} response.Envelope
// @Router /import [post]
func (h *ImportHandler) Run(c *gin.Context) {
	var req service.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
