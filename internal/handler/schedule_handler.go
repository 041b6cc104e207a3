package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classmanager/backend/internal/models"
	"github.com/classmanager/backend/internal/service"
	appErrors "github.com/classmanager/backend/pkg/errors"
	"github.com/classmanager/backend/pkg/response"
)

// PublicTimetable is the unauthenticated view of the currently schedulable
// term, served cache-first.
type PublicTimetable struct {
	Term    *models.Term           `json:"term"`
	Entries []models.ScheduleEntry `json:"entries"`
}

type scheduleService interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error)
	SaveOrUpdate(ctx context.Context, req service.SaveScheduleRequest) (*models.ScheduleEntry, error)
	Copy(ctx context.Context, req service.CopyScheduleRequest) (*service.CopyScheduleResult, error)
	Generate(ctx context.Context, req service.GenerateScheduleRequest) (*service.GenerateScheduleResult, error)
	Delete(ctx context.Context, id string) error
}

type schedulableTermLister interface {
	FindSchedulable(ctx context.Context) ([]models.Term, error)
}

// ScheduleHandler exposes timetable placement endpoints. Conflict rejections
// surface as 409 envelopes whose error code is the machine-readable
// ConflictCode.
type ScheduleHandler struct {
	service   scheduleService
	terms     schedulableTermLister
	cache     *service.CacheService
	publicTTL time.Duration
}

// NewScheduleHandler constructs a schedule handler. publicTTL bounds how long
// the public timetable may be served from cache; zero falls back to the cache
// default.
func NewScheduleHandler(svc scheduleService, terms schedulableTermLister, cache *service.CacheService, publicTTL time.Duration) *ScheduleHandler {
	return &ScheduleHandler{service: svc, terms: terms, cache: cache, publicTTL: publicTTL}
}

// List godoc
// @Summary List schedule entries
// @Tags Schedules
// @Produce json
// @Param term_id query string false "Filter by term"
// @Param course_id query string false "Filter by course"
// @Param teacher_id query string false "Filter by teacher"
// @Param day_of_week query string false "Filter by day"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	filter := models.ScheduleFilter{
		TermID:    c.Query("term_id"),
		CourseID:  c.Query("course_id"),
		TeacherID: c.Query("teacher_id"),
		DayOfWeek: c.Query("day_of_week"),
	}
	entries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Mine godoc
// @Summary List schedule entries taught by the authenticated teacher
// @Tags Schedules
// @Produce json
// @Param term_id query string false "Filter by term"
// @Success 200 {object} response.Envelope
// @Router /schedules/mine [get]
func (h *ScheduleHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.ScheduleFilter{
		TermID:    c.Query("term_id"),
		TeacherID: claims.UserID,
	}
	entries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Public godoc
// @Summary Public timetable of the currently schedulable term
// @Tags Schedules
// @Produce json
// @Param course_id query string false "Filter by course"
// @Success 200 {object} response.Envelope
// @Router /schedules/public [get]
func (h *ScheduleHandler) Public(c *gin.Context) {
	ctx := c.Request.Context()
	courseID := c.Query("course_id")

	terms, err := h.terms.FindSchedulable(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(terms) == 0 {
		response.JSON(c, http.StatusOK, PublicTimetable{Entries: []models.ScheduleEntry{}}, nil)
		return
	}
	term := terms[0]

	key := service.TimetableCacheKey(term.ID, "public:"+courseID)
	var cached PublicTimetable
	if hit, err := h.cache.Get(ctx, key, &cached); err == nil && hit {
		response.JSON(c, http.StatusOK, cached, nil)
		return
	}

	entries, err := h.service.List(ctx, models.ScheduleFilter{TermID: term.ID, CourseID: courseID})
	if err != nil {
		response.Error(c, err)
		return
	}
	timetable := PublicTimetable{Term: &term, Entries: entries}
	_ = h.cache.Set(ctx, key, timetable, h.publicTTL)
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Save godoc
// @Summary Place or move a schedule entry
// @Description Creates a new entry for a group or relocates an existing one.
// @Description Rejections carry a conflict code (TEACHER_CONFLICT, ROOM_CONFLICT,
// @Description GROUP_CONFLICT, DAY_NOT_ALLOWED, OUTSIDE_WINDOW, DURATION_MISMATCH).
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.SaveScheduleRequest true "Placement payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Save(c *gin.Context) {
	var req service.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.service.SaveOrUpdate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Copy godoc
// @Summary Copy a course timetable between terms
// @Description Wipes the course's entries in the target term, then replicates
// @Description the source term's entries one by one. Entries colliding with
// @Description other courses in the target term are skipped and reported.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.CopyScheduleRequest true "Copy payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/copy [post]
func (h *ScheduleHandler) Copy(c *gin.Context) {
	var req service.CopyScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Copy(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Generate godoc
// @Summary Auto-generate a course timetable
// @Description Places one weekly lesson per discipline credit for every group
// @Description of the course, trying one-day, two-day and spread layouts in
// @Description order, and reports groups that could not be fully placed.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.GenerateScheduleRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req service.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete schedule entry
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule entry ID"
// @Success 204 "No Content"
// @Failure 409 {object} response.Envelope "Term already finalized"
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
