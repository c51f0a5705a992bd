package handler

import (
	"bytes"
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

type stubTimetable struct {
	entries []models.TimetableEntry
	nextID  int64
	pingErr error
}

func (s *stubTimetable) ListByRoomAndDay(_ context.Context, roomID int64, day string) ([]models.TimetableEntry, error) {
	var out []models.TimetableEntry
	for _, e := range s.entries {
		if e.RoomID == roomID && e.DayOfWeek == day {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubTimetable) ListByInstructorAndDay(_ context.Context, instructorID int64, day string) ([]models.TimetableEntry, error) {
	var out []models.TimetableEntry
	for _, e := range s.entries {
		if e.InstructorID != nil && *e.InstructorID == instructorID && e.DayOfWeek == day {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubTimetable) ListByCourse(_ context.Context, courseID int64) ([]models.TimetableEntry, error) {
	var out []models.TimetableEntry
	for _, e := range s.entries {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubTimetable) FindByID(_ context.Context, id int64) (*models.TimetableEntry, error) {
	for i := range s.entries {
		if s.entries[i].ID == id {
			entry := s.entries[i]
			return &entry, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubTimetable) List(_ context.Context, filter models.BookingFilter) ([]models.TimetableEntry, int, error) {
	var out []models.TimetableEntry
	for _, e := range s.entries {
		if filter.CourseID != 0 && e.CourseID != filter.CourseID {
			continue
		}
		if filter.RoomID != 0 && e.RoomID != filter.RoomID {
			continue
		}
		if filter.DayOfWeek != "" && e.DayOfWeek != filter.DayOfWeek {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func (s *stubTimetable) Insert(_ context.Context, entry *models.TimetableEntry) error {
	for _, e := range s.entries {
		if e.RoomID == entry.RoomID && e.DayOfWeek == entry.DayOfWeek &&
			e.StartTime == entry.StartTime && e.EndTime == entry.EndTime {
			return repository.ErrDuplicateSlot
		}
	}
	if s.nextID == 0 {
		s.nextID = 1
	}
	entry.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubTimetable) Delete(_ context.Context, id int64) error {
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *stubTimetable) Ping(context.Context) error {
	return s.pingErr
}

type stubCourses struct {
	courses     map[int64]models.Course
	instructors map[int64]int64
}

func (s *stubCourses) FindByID(_ context.Context, id int64) (*models.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *stubCourses) ResolveInstructor(_ context.Context, courseID int64) (int64, error) {
	id, ok := s.instructors[courseID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	return id, nil
}

func (s *stubCourses) ListAll(context.Context) ([]models.Course, error) {
	out := make([]models.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	return out, nil
}

type stubRooms struct {
	rooms map[int64]models.Room
}

func (s *stubRooms) FindByID(_ context.Context, id int64) (*models.Room, error) {
	r, ok := s.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (s *stubRooms) ListAll(context.Context) ([]models.Room, error) {
	out := make([]models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out, nil
}

func newBookingTestHandler() (*BookingHandler, *stubTimetable) {
	timetable := &stubTimetable{nextID: 1}
	courses := &stubCourses{
		courses:     map[int64]models.Course{1: {ID: 1, Code: "CS101", Name: "Intro", Faculty: "prof.jones"}},
		instructors: map[int64]int64{1: 10},
	}
	rooms := &stubRooms{rooms: map[int64]models.Room{1: {ID: 1, Name: "Lab A", Capacity: 30}}}

	conflicts := service.NewConflictService(timetable, courses, nil, nil)
	bookings := service.NewBookingService(timetable, courses, rooms, conflicts, courses, nil, nil, nil)
	return NewBookingHandler(bookings, conflicts), timetable
}

func postJSON(target string, payload interface{}) *http.Request {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestBookingHandlerCreateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, timetable := newBookingTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/timetable", gin.H{
		"courseId": 1, "roomId": 1, "dayOfWeek": "Monday",
		"startTime": "09:00", "endTime": "10:00",
	})

	h.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, timetable.entries, 1)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Monday", envelope.Data["day_of_week"])
}

func TestBookingHandlerCreateConflictCarriesOccupyingEntry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, timetable := newBookingTestHandler()
	instructor := int64(10)
	timetable.entries = append(timetable.entries, models.TimetableEntry{
		ID: 99, CourseID: 2, RoomID: 1, InstructorID: &instructor,
		DayOfWeek: "Monday", StartTime: "09:00", EndTime: "11:00",
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/timetable", gin.H{
		"courseId": 1, "roomId": 1, "dayOfWeek": "Monday",
		"startTime": "10:00", "endTime": "12:00",
	})

	h.Create(c)

	require.Equal(t, http.StatusConflict, rec.Code)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Meta["conflict"])
	conflict := envelope.Meta["conflict"].(map[string]interface{})
	assert.Equal(t, "ROOM", conflict["kind"])
	occupying := conflict["occupying"].(map[string]interface{})
	assert.Equal(t, float64(99), occupying["id"])
}

func TestBookingHandlerCreateRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newBookingTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/timetable", bytes.NewReader([]byte("{not json")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandlerCheckConflictDryRun(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, timetable := newBookingTestHandler()
	timetable.entries = append(timetable.entries, models.TimetableEntry{
		ID: 5, CourseID: 2, RoomID: 1,
		DayOfWeek: "Tuesday", StartTime: "09:00", EndTime: "10:00",
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = postJSON("/timetable/check", gin.H{
		"courseId": 1, "roomId": 1, "dayOfWeek": "Tuesday",
		"startTime": "09:30", "endTime": "10:30",
	})

	h.CheckConflict(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Data["has_conflict"])
	assert.Equal(t, "ROOM", envelope.Data["kind"])
	// The dry run must not write anything.
	assert.Len(t, timetable.entries, 1)
}

func TestBookingHandlerGetUnknownID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newBookingTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/timetable/42", nil)
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingHandlerDeleteFreesSlot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, timetable := newBookingTestHandler()
	timetable.entries = append(timetable.entries, models.TimetableEntry{
		ID: 7, CourseID: 1, RoomID: 1,
		DayOfWeek: "Monday", StartTime: "09:00", EndTime: "10:00",
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/timetable/7", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	h.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, timetable.entries)
}

func TestBookingHandlerRejectsBadPathID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newBookingTestHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/timetable/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type responseEnvelope struct {
	Data       map[string]interface{} `json:"data"`
	Meta       map[string]interface{} `json:"meta"`
	Pagination map[string]interface{} `json:"pagination"`
	Error      map[string]interface{} `json:"error"`
}
