package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classmanager/backend/internal/service"
	appErrors "github.com/classmanager/backend/pkg/errors"
	"github.com/classmanager/backend/pkg/response"
)

// TimeWindowHandler exposes the per-course time window configuration. The
// window defines the grid geometry, so a 404 here means "course not
// configured yet" rather than a missing course.
type TimeWindowHandler struct {
	service *service.TimeWindowService
}

// NewTimeWindowHandler constructs a time window handler.
func NewTimeWindowHandler(svc *service.TimeWindowService) *TimeWindowHandler {
	return &TimeWindowHandler{service: svc}
}

// Get godoc
// @Summary Get the time window of a course
// @Tags TimeWindows
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Course has no time window configured"
// @Router /courses/{id}/time-window [get]
func (h *TimeWindowHandler) Get(c *gin.Context) {
	window, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// Slots godoc
// @Summary List the lesson slots derived from the course time window
// @Tags TimeWindows
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/slots [get]
func (h *TimeWindowHandler) Slots(c *gin.Context) {
	slots, err := h.service.Slots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Upsert godoc
// @Summary Create or replace the time window of a course
// @Tags TimeWindows
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.TimeWindowRequest true "Time window payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /courses/{id}/time-window [put]
func (h *TimeWindowHandler) Upsert(c *gin.Context) {
	var req service.TimeWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	window, err := h.service.Upsert(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// Delete godoc
// @Summary Remove the time window of a course
// @Tags TimeWindows
// @Produce json
// @Param id path string true "Course ID"
// @Success 204 "No Content"
// @Router /courses/{id}/time-window [delete]
func (h *TimeWindowHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
