package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Druv08/smart-scheduler/internal/models"
	"github.com/Druv08/smart-scheduler/internal/repository"
	"github.com/Druv08/smart-scheduler/internal/service"
)

type stubCourseRepo struct {
	byID   map[int64]models.Course
	nextID int64
}

func (s *stubCourseRepo) List(_ context.Context, _ models.CourseFilter) ([]models.Course, int, error) {
	out := make([]models.Course, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (s *stubCourseRepo) FindByID(_ context.Context, id int64) (*models.Course, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *stubCourseRepo) Create(_ context.Context, course *models.Course) error {
	for _, existing := range s.byID {
		if existing.Code == course.Code {
			return repository.ErrDuplicateCourseCode
		}
	}
	if s.nextID == 0 {
		s.nextID = 1
	}
	course.ID = s.nextID
	s.nextID++
	s.byID[course.ID] = *course
	return nil
}

func (s *stubCourseRepo) Update(_ context.Context, course *models.Course) error {
	if _, ok := s.byID[course.ID]; !ok {
		return sql.ErrNoRows
	}
	s.byID[course.ID] = *course
	return nil
}

func (s *stubCourseRepo) Delete(_ context.Context, id int64) error {
	if _, ok := s.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.byID, id)
	return nil
}

type stubCacheInvalidator struct {
	patterns []string
}

func (s *stubCacheInvalidator) DeleteByPattern(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func newCourseTestHandler() (*CourseHandler, *stubCourseRepo, *stubCacheInvalidator) {
	repo := &stubCourseRepo{byID: map[int64]models.Course{
		1: {ID: 1, Code: "CS101", Name: "Intro", Faculty: "prof.jones", MaxStudents: 40},
	}, nextID: 2}
	invalidator := &stubCacheInvalidator{}
	svc := service.NewCourseService(repo, invalidator, nil, nil)
	return NewCourseHandler(svc), repo, invalidator
}

func TestCourseHandlerListIncludesPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _, _ := newCourseTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses?page=1&limit=10", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination map[string]interface{}   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 1)
	assert.Equal(t, float64(1), envelope.Pagination["total_count"])
}

func TestCourseHandlerCreateInvalidatesDashboardCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, repo, invalidator := newCourseTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/courses", gin.H{
		"code": "CS201", "name": "Algorithms", "faculty": "prof.smith", "max_students": 60,
	})

	h.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, repo.byID, 2)
	assert.Contains(t, invalidator.patterns, "dashboard:*")
}

func TestCourseHandlerCreateDuplicateCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _, _ := newCourseTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/courses", gin.H{
		"code": "CS101", "name": "Copycat", "faculty": "prof.smith",
	})

	h.Create(c)

	require.Equal(t, http.StatusConflict, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "CONFLICT", envelope.Error["code"])
}

func TestCourseHandlerGetUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _, _ := newCourseTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/courses/99", nil)
	c.Params = gin.Params{{Key: "id", Value: "99"}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCourseHandlerUpdateKeepsUnsetFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, repo, _ := newCourseTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := postJSON("/courses/1", gin.H{"name": "Intro v2"})
	req.Method = http.MethodPut
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	h.Update(c)

	require.Equal(t, http.StatusOK, rec.Code)
	updated := repo.byID[1]
	assert.Equal(t, "Intro v2", updated.Name)
	assert.Equal(t, "CS101", updated.Code)
	assert.Equal(t, "prof.jones", updated.Faculty)
}

func TestCourseHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, repo, invalidator := newCourseTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/courses/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	h.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.byID)
	assert.Contains(t, invalidator.patterns, "dashboard:*")
}
