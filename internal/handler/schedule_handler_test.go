package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classmanager/backend/internal/models"
	"github.com/classmanager/backend/internal/service"
	appErrors "github.com/classmanager/backend/pkg/errors"
)

type fakeScheduleSrv struct {
	entries    []models.ScheduleEntry
	listErr    error
	saved      *models.ScheduleEntry
	saveErr    error
	lastSave   service.SaveScheduleRequest
	lastFilter models.ScheduleFilter
	listCalls  int
}

func (f *fakeScheduleSrv) List(_ context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, error) {
	f.listCalls++
	f.lastFilter = filter
	return f.entries, f.listErr
}

func (f *fakeScheduleSrv) SaveOrUpdate(_ context.Context, req service.SaveScheduleRequest) (*models.ScheduleEntry, error) {
	f.lastSave = req
	return f.saved, f.saveErr
}

func (f *fakeScheduleSrv) Copy(context.Context, service.CopyScheduleRequest) (*service.CopyScheduleResult, error) {
	return &service.CopyScheduleResult{Copied: f.entries}, f.listErr
}

func (f *fakeScheduleSrv) Generate(context.Context, service.GenerateScheduleRequest) (*service.GenerateScheduleResult, error) {
	return &service.GenerateScheduleResult{Placed: f.entries}, f.listErr
}

func (f *fakeScheduleSrv) Delete(context.Context, string) error {
	return f.listErr
}

type fakeTermLister struct {
	terms []models.Term
	err   error
}

func (f *fakeTermLister) FindSchedulable(context.Context) ([]models.Term, error) {
	return f.terms, f.err
}

func disabledCache() *service.CacheService {
	return service.NewCacheService(nil, nil, 0, zap.NewNop())
}

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestScheduleHandlerSaveConflictCarriesCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeScheduleSrv{
		saveErr: appErrors.New(string(models.ConflictTeacher), http.StatusConflict, "teacher already has a class in this slot"),
	}
	handler := NewScheduleHandler(srv, &fakeTermLister{}, disabledCache(), 0)

	body := `{"group_id":"f6b2dfae-54f2-4dd3-9c47-0a8f1f2f3a4b","term_id":"a1f0c2be-7a41-4a8e-93a5-2f8d9f3f9f11","day_of_week":"MONDAY","start_time":"08:00","end_time":"09:00"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/schedules", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Save(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, string(models.ConflictTeacher), envelope.Error.Code)
	assert.NotEmpty(t, envelope.Error.Message)
}

func TestScheduleHandlerSaveRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&fakeScheduleSrv{}, &fakeTermLister{}, disabledCache(), 0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/schedules", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Save(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleHandlerMineFiltersByClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeScheduleSrv{}
	handler := NewScheduleHandler(srv, &fakeTermLister{}, disabledCache(), 0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/schedules/mine?term_id=term-1", nil)
	c.Set("currentUser", &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})

	handler.Mine(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "teacher-1", srv.lastFilter.TeacherID)
	assert.Equal(t, "term-1", srv.lastFilter.TermID)
}

func TestScheduleHandlerMineWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&fakeScheduleSrv{}, &fakeTermLister{}, disabledCache(), 0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/schedules/mine", nil)

	handler.Mine(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScheduleHandlerPublicNoSchedulableTerm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeScheduleSrv{}
	handler := NewScheduleHandler(srv, &fakeTermLister{}, disabledCache(), 0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/schedules/public", nil)

	handler.Public(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, srv.listCalls)
}

func TestScheduleHandlerPublicListsActiveTerm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeScheduleSrv{entries: []models.ScheduleEntry{{ID: "e-1", TermID: "term-1"}}}
	lister := &fakeTermLister{terms: []models.Term{{ID: "term-1", Name: "2026/1", Status: models.TermActive, EndDate: time.Now().Add(time.Hour)}}}
	handler := NewScheduleHandler(srv, lister, disabledCache(), 0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/schedules/public?course_id=course-1", nil)

	handler.Public(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "term-1", srv.lastFilter.TermID)
	assert.Equal(t, "course-1", srv.lastFilter.CourseID)

	var envelope struct {
		Data PublicTimetable `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data.Term)
	assert.Equal(t, "term-1", envelope.Data.Term.ID)
	assert.Len(t, envelope.Data.Entries, 1)
}

func TestScheduleHandlerDeleteFinalizedTerm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeScheduleSrv{listErr: appErrors.Clone(appErrors.ErrTermFinalized, "term is finalized and read-only")}
	handler := NewScheduleHandler(srv, &fakeTermLister{}, disabledCache(), 0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/schedules/e-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "e-1"}}

	handler.Delete(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
