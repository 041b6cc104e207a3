package timetable

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
)

func envelopeJSON(t *testing.T, data interface{}, pagination *models.Pagination) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"data":       data,
		"pagination": pagination,
	})
	require.NoError(t, err)
	return payload
}

func TestClientTimeWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/courses/course-1/time-window", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write(envelopeJSON(t, models.TimeWindow{
			CourseID:              "course-1",
			DaysOfWeek:            []string{"MONDAY"},
			StartTime:             "08:00:00",
			EndTime:               "12:00:00",
			LessonDurationMinutes: 60,
		}, nil))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithToken("token-123"))
	window, err := client.TimeWindow(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, 60, window.LessonDurationMinutes)
}

func TestClientTimeWindowNotConfigured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "NOT_CONFIGURED", "message": "time window not configured"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.TimeWindow(context.Background(), "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotConfigured.Code, appErrors.FromError(err).Code)
}

func TestClientPlaceScheduleConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req PlacementRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "MONDAY", req.DayOfWeek)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "TEACHER_CONFLICT", "message": "teacher busy"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.PlaceSchedule(context.Background(), PlacementRequest{
		DayOfWeek: "MONDAY",
		StartTime: "08:00:00",
		EndTime:   "09:00:00",
		TermID:    "term-1",
		GroupID:   "g1",
	})
	require.Error(t, err)

	var conflict *models.ScheduleConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, models.ConflictTeacher, conflict.Code)
}

func TestClientGroupsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "course-1", r.URL.Query().Get("courseId"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		w.Write(envelopeJSON(t,
			[]models.ClassGroup{{ID: "g3"}},
			&models.Pagination{Page: 2, PageSize: 20, TotalCount: 21, TotalPages: 2},
		))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	groups, pagination, err := client.Groups(context.Background(), "course-1", 2, 20)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
	require.NotNil(t, pagination)
	assert.Equal(t, 2, pagination.TotalPages)
}

func TestClientDeleteSchedule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/schedules/s1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	require.NoError(t, client.DeleteSchedule(context.Background(), "s1"))
}
