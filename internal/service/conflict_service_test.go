package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Druv08/smart-scheduler/internal/dto"
	"github.com/Druv08/smart-scheduler/internal/models"
	"github.com/Druv08/smart-scheduler/internal/repository"
	appErrors "github.com/Druv08/smart-scheduler/pkg/errors"
)

// fakeTimetable is an in-memory timetable store shared by the service tests.
// Insert enforces the same slot uniqueness the real store does.
type fakeTimetable struct {
	entries       []models.TimetableEntry
	nextID        int64
	readErr       error
	courseReadErr map[int64]error
	insertErr     error
	pingErr       error
}

func (f *fakeTimetable) ListByRoomAndDay(ctx context.Context, roomID int64, day string) ([]models.TimetableEntry, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []models.TimetableEntry
	for _, e := range f.entries {
		if e.RoomID == roomID && e.DayOfWeek == day {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeTimetable) ListByInstructorAndDay(ctx context.Context, instructorID int64, day string) ([]models.TimetableEntry, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []models.TimetableEntry
	for _, e := range f.entries {
		if e.InstructorID != nil && *e.InstructorID == instructorID && e.DayOfWeek == day {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeTimetable) ListByCourse(ctx context.Context, courseID int64) ([]models.TimetableEntry, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if err := f.courseReadErr[courseID]; err != nil {
		return nil, err
	}
	var out []models.TimetableEntry
	for _, e := range f.entries {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeTimetable) FindByID(ctx context.Context, id int64) (*models.TimetableEntry, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	for i := range f.entries {
		if f.entries[i].ID == id {
			e := f.entries[i]
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeTimetable) List(ctx context.Context, filter models.BookingFilter) ([]models.TimetableEntry, int, error) {
	if f.readErr != nil {
		return nil, 0, f.readErr
	}
	out := append([]models.TimetableEntry(nil), f.entries...)
	return out, len(out), nil
}

func (f *fakeTimetable) Insert(ctx context.Context, entry *models.TimetableEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, e := range f.entries {
		if e.RoomID == entry.RoomID && e.DayOfWeek == entry.DayOfWeek && e.StartTime == entry.StartTime && e.EndTime == entry.EndTime {
			return repository.ErrDuplicateSlot
		}
	}
	f.nextID++
	entry.ID = f.nextID
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeTimetable) Delete(ctx context.Context, id int64) error {
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeTimetable) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeTimetable) seed(courseID, roomID, instructorID int64, day, start, end string) {
	f.nextID++
	entry := models.TimetableEntry{
		ID:        f.nextID,
		CourseID:  courseID,
		RoomID:    roomID,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
	}
	if instructorID > 0 {
		entry.InstructorID = &instructorID
	}
	f.entries = append(f.entries, entry)
}

// fakeInstructors resolves course ids to instructor user ids. With
// failAfter set to N, the first N calls succeed and later ones return
// resolveErr, simulating a resolver that drops out mid-operation.
type fakeInstructors struct {
	byCourse   map[int64]int64
	resolveErr error
	failAfter  int
	calls      int
}

func (f *fakeInstructors) ResolveInstructor(ctx context.Context, courseID int64) (int64, error) {
	f.calls++
	if f.resolveErr != nil && f.calls > f.failAfter {
		return 0, f.resolveErr
	}
	id, ok := f.byCourse[courseID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	return id, nil
}

func checkRequest(courseID, roomID int64, day, start, end string) dto.CheckConflictRequest {
	return dto.CheckConflictRequest{
		CourseID:  courseID,
		RoomID:    roomID,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
	}
}

func TestConflictServiceNoConflict(t *testing.T) {
	store := &fakeTimetable{}
	store.seed(1, 1, 10, "Monday", "08:00", "09:00")
	svc := NewConflictService(store, &fakeInstructors{byCourse: map[int64]int64{2: 20}}, nil, nil)

	result, err := svc.Check(context.Background(), checkRequest(2, 1, "Monday", "09:00", "10:00"))
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
	assert.Equal(t, models.ConflictNone, result.Kind)
}

func TestConflictServiceRoomConflict(t *testing.T) {
	store := &fakeTimetable{}
	store.seed(1, 1, 10, "Monday", "10:00", "11:00")
	svc := NewConflictService(store, &fakeInstructors{byCourse: map[int64]int64{2: 20}}, nil, nil)

	result, err := svc.Check(context.Background(), checkRequest(2, 1, "Monday", "10:30", "11:30"))
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	assert.Equal(t, models.ConflictRoom, result.Kind)
	require.NotNil(t, result.Occupying)
	assert.Equal(t, int64(1), result.Occupying.CourseID)
}

func TestConflictServiceInstructorConflictAcrossRooms(t *testing.T) {
	store := &fakeTimetable{}
	store.seed(1, 1, 10, "Monday", "10:00", "11:00")
	// Candidate course 2 is taught by the same instructor but targets room 2.
	svc := NewConflictService(store, &fakeInstructors{byCourse: map[int64]int64{2: 10}}, nil, nil)

	result, err := svc.Check(context.Background(), checkRequest(2, 2, "Monday", "10:00", "11:00"))
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	assert.Equal(t, models.ConflictInstructor, result.Kind)
}

func TestConflictServiceRoomReportedBeforeInstructor(t *testing.T) {
	store := &fakeTimetable{}
	// Same instructor occupies the same room: both axes collide.
	store.seed(1, 1, 10, "Monday", "10:00", "11:00")
	svc := NewConflictService(store, &fakeInstructors{byCourse: map[int64]int64{2: 10}}, nil, nil)

	result, err := svc.Check(context.Background(), checkRequest(2, 1, "Monday", "10:00", "11:00"))
	require.NoError(t, err)
	assert.Equal(t, models.ConflictRoom, result.Kind)
}

func TestConflictServiceAdjacentSlotsDoNotCollide(t *testing.T) {
	store := &fakeTimetable{}
	store.seed(1, 1, 10, "Monday", "10:00", "11:00")
	svc := NewConflictService(store, &fakeInstructors{byCourse: map[int64]int64{1: 10}}, nil, nil)

	result, err := svc.Check(context.Background(), checkRequest(1, 1, "Monday", "11:00", "12:00"))
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestConflictServiceDifferentDayIsFree(t *testing.T) {
	store := &fakeTimetable{}
	store.seed(1, 1, 10, "Monday", "10:00", "11:00")
	svc := NewConflictService(store, &fakeInstructors{byCourse: map[int64]int64{2: 20}}, nil, nil)

	result, err := svc.Check(context.Background(), checkRequest(2, 1, "Tuesday", "10:00", "11:00"))
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestConflictServiceUnknownInstructorSkipsAxis(t *testing.T) {
	store := &fakeTimetable{}
	store.seed(1, 2, 10, "Monday", "10:00", "11:00")
	svc := NewConflictService(store, &fakeInstructors{}, nil, nil)

	result, err := svc.Check(context.Background(), checkRequest(2, 1, "Monday", "10:00", "11:00"))
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestConflictServiceInvalidRange(t *testing.T) {
	svc := NewConflictService(&fakeTimetable{}, &fakeInstructors{}, nil, nil)

	_, err := svc.Check(context.Background(), checkRequest(1, 1, "Monday", "11:00", "10:00"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestConflictServiceStoreErrorPropagates(t *testing.T) {
	store := &fakeTimetable{readErr: errors.New("connection refused")}
	svc := NewConflictService(store, &fakeInstructors{}, nil, nil)

	_, err := svc.Check(context.Background(), checkRequest(1, 1, "Monday", "10:00", "11:00"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrStoreUnavailable.Code, appErr.Code)
}
