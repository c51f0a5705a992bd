package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Druv08/smart-scheduler/internal/dto"
	"github.com/Druv08/smart-scheduler/internal/models"
	"github.com/Druv08/smart-scheduler/pkg/config"
	appErrors "github.com/Druv08/smart-scheduler/pkg/errors"
)

type fakeCourseSource struct {
	courses []models.Course
	err     error
}

func (f *fakeCourseSource) ListAll(ctx context.Context) ([]models.Course, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Course(nil), f.courses...), nil
}

type fakeRoomSource struct {
	rooms []models.Room
	err   error
}

func (f *fakeRoomSource) ListAll(ctx context.Context) ([]models.Room, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Room(nil), f.rooms...), nil
}

func newSchedulerFixture(store *fakeTimetable, courses []models.Course, rooms []models.Room, instructors *fakeInstructors, cfg config.SchedulerConfig) *AutoScheduleService {
	conflicts := NewConflictService(store, instructors, nil, nil)
	return NewAutoScheduleService(
		&fakeCourseSource{courses: courses},
		&fakeRoomSource{rooms: rooms},
		store,
		conflicts,
		instructors,
		nil,
		nil,
		nil,
		cfg,
	)
}

func oneSlotGrid() config.SchedulerConfig {
	return config.SchedulerConfig{DayStart: "08:00", DayEnd: "09:00", LunchStart: "12:00", LunchEnd: "13:00"}
}

func TestAutoScheduleFillsGridFirstFit(t *testing.T) {
	store := &fakeTimetable{}
	courses := []models.Course{
		{ID: 1, Code: "CS101", Faculty: "alice"},
		{ID: 2, Code: "CS102", Faculty: "bob"},
	}
	rooms := []models.Room{{ID: 1, Name: "A-101"}}
	instructors := &fakeInstructors{byCourse: map[int64]int64{1: 10, 2: 20}}
	svc := newSchedulerFixture(store, courses, rooms, instructors, config.SchedulerConfig{})

	result, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.ScheduledCount)
	assert.Zero(t, result.FailedCount)
	require.Len(t, result.Outcomes, 2)

	// Greedy order: first course takes Monday 08:00, second takes the next
	// hour in the same room.
	first := result.Outcomes[0]
	assert.Equal(t, int64(1), first.CourseID)
	assert.Equal(t, "Monday", first.DayOfWeek)
	assert.Equal(t, "08:00", first.StartTime)
	assert.Equal(t, "09:00", first.EndTime)

	second := result.Outcomes[1]
	assert.Equal(t, int64(2), second.CourseID)
	assert.Equal(t, "Monday", second.DayOfWeek)
	assert.Equal(t, "09:00", second.StartTime)
}

func TestAutoScheduleSkipsLunchHour(t *testing.T) {
	store := &fakeTimetable{}
	var courses []models.Course
	for i := int64(1); i <= 9; i++ {
		courses = append(courses, models.Course{ID: i, Code: "C", Faculty: "alice"})
	}
	rooms := []models.Room{{ID: 1}}
	instructors := &fakeInstructors{}
	svc := newSchedulerFixture(store, courses, rooms, instructors, config.SchedulerConfig{})

	result, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{Days: []string{"Monday"}})
	require.NoError(t, err)
	// Eight hourly slots fit on one day; the ninth course rolls over, but the
	// run was limited to Monday so it fails instead.
	assert.Equal(t, 8, result.ScheduledCount)
	assert.Equal(t, 1, result.FailedCount)
	for _, e := range store.entries {
		assert.NotEqual(t, "12:00", e.StartTime, "lunch hour must stay free")
	}
}

func TestAutoScheduleInstructorBlocksSecondRoom(t *testing.T) {
	store := &fakeTimetable{}
	courses := []models.Course{
		{ID: 1, Code: "CS101", Faculty: "alice"},
		{ID: 2, Code: "CS102", Faculty: "alice"},
	}
	rooms := []models.Room{{ID: 1}, {ID: 2}}
	// Both courses share one instructor, so the single slot cannot host both
	// even though a second room is free.
	instructors := &fakeInstructors{byCourse: map[int64]int64{1: 10, 2: 10}}
	svc := newSchedulerFixture(store, courses, rooms, instructors, oneSlotGrid())

	result, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{Days: []string{"Monday"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ScheduledCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, dto.OutcomeScheduled, result.Outcomes[0].Status)
	assert.Equal(t, dto.OutcomeFailed, result.Outcomes[1].Status)
	assert.Equal(t, "no free slot available", result.Outcomes[1].Reason)
}

func TestAutoScheduleDistinctInstructorsShareSlot(t *testing.T) {
	store := &fakeTimetable{}
	courses := []models.Course{
		{ID: 1, Code: "CS101", Faculty: "alice"},
		{ID: 2, Code: "CS102", Faculty: "bob"},
	}
	rooms := []models.Room{{ID: 1}, {ID: 2}}
	instructors := &fakeInstructors{byCourse: map[int64]int64{1: 10, 2: 20}}
	svc := newSchedulerFixture(store, courses, rooms, instructors, oneSlotGrid())

	result, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{Days: []string{"Monday"}})
	require.NoError(t, err)
	assert.Equal(t, 2, result.ScheduledCount)
	assert.Equal(t, int64(1), result.Outcomes[0].RoomID)
	assert.Equal(t, int64(2), result.Outcomes[1].RoomID)
}

func TestAutoScheduleSkipsBookedCourses(t *testing.T) {
	store := &fakeTimetable{}
	store.seed(1, 1, 10, "Wednesday", "14:00", "15:00")
	courses := []models.Course{
		{ID: 1, Code: "CS101", Faculty: "alice"},
		{ID: 2, Code: "CS102", Faculty: "bob"},
	}
	rooms := []models.Room{{ID: 1}}
	instructors := &fakeInstructors{byCourse: map[int64]int64{1: 10, 2: 20}}
	svc := newSchedulerFixture(store, courses, rooms, instructors, config.SchedulerConfig{})

	result, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, 1, result.ScheduledCount)
	assert.Equal(t, dto.OutcomeSkipped, result.Outcomes[0].Status)
	assert.Equal(t, "course already has a booking", result.Outcomes[0].Reason)
}

func TestAutoScheduleIsIdempotent(t *testing.T) {
	store := &fakeTimetable{}
	courses := []models.Course{
		{ID: 1, Code: "CS101", Faculty: "alice"},
		{ID: 2, Code: "CS102", Faculty: "bob"},
	}
	rooms := []models.Room{{ID: 1}}
	instructors := &fakeInstructors{byCourse: map[int64]int64{1: 10, 2: 20}}
	svc := newSchedulerFixture(store, courses, rooms, instructors, config.SchedulerConfig{})

	first, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, first.ScheduledCount)

	second, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.NoError(t, err)
	assert.Zero(t, second.ScheduledCount)
	assert.Equal(t, 2, second.SkippedCount)
	assert.Len(t, store.entries, 2)
}

func TestAutoScheduleHonoursDaySubsetInCanonicalOrder(t *testing.T) {
	store := &fakeTimetable{}
	courses := []models.Course{{ID: 1, Code: "CS101", Faculty: "alice"}}
	rooms := []models.Room{{ID: 1}}
	svc := newSchedulerFixture(store, courses, rooms, &fakeInstructors{}, config.SchedulerConfig{})

	result, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{Days: []string{"Friday", "Tuesday"}})
	require.NoError(t, err)
	require.Equal(t, 1, result.ScheduledCount)
	assert.Equal(t, "Tuesday", result.Outcomes[0].DayOfWeek)
}

func TestAutoScheduleRejectsUnknownDay(t *testing.T) {
	svc := newSchedulerFixture(&fakeTimetable{}, nil, nil, &fakeInstructors{}, config.SchedulerConfig{})

	_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{Days: []string{"Saturday"}})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAutoScheduleAbortsWhenStoreUnreachable(t *testing.T) {
	store := &fakeTimetable{pingErr: errors.New("connection refused")}
	svc := newSchedulerFixture(store, nil, nil, &fakeInstructors{}, config.SchedulerConfig{})

	_, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrStoreUnavailable.Code, appErr.Code)
}

func TestAutoScheduleDeterministicAcrossRuns(t *testing.T) {
	build := func() (*AutoScheduleService, *fakeTimetable) {
		store := &fakeTimetable{}
		courses := []models.Course{
			{ID: 3, Code: "CS103", Faculty: "carol"},
			{ID: 1, Code: "CS101", Faculty: "alice"},
			{ID: 2, Code: "CS102", Faculty: "bob"},
		}
		rooms := []models.Room{{ID: 2}, {ID: 1}}
		instructors := &fakeInstructors{byCourse: map[int64]int64{1: 10, 2: 20, 3: 30}}
		return newSchedulerFixture(store, courses, rooms, instructors, config.SchedulerConfig{}), store
	}

	svcA, storeA := build()
	svcB, storeB := build()

	resultA, err := svcA.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.NoError(t, err)
	resultB, err := svcB.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.NoError(t, err)

	assert.Equal(t, resultA.Outcomes, resultB.Outcomes)
	assert.Equal(t, storeA.entries, storeB.entries)
	// Courses are visited in id order even though the source returned them
	// shuffled.
	assert.Equal(t, int64(1), resultA.Outcomes[0].CourseID)
}

func TestAutoScheduleIsolatesTransientReadFailure(t *testing.T) {
	store := &fakeTimetable{
		courseReadErr: map[int64]error{1: errors.New("driver: bad connection")},
	}
	courses := []models.Course{
		{ID: 1, Code: "CS101", Faculty: "alice"},
		{ID: 2, Code: "CS102", Faculty: "bob"},
	}
	rooms := []models.Room{{ID: 1}}
	instructors := &fakeInstructors{byCourse: map[int64]int64{1: 10, 2: 20}}
	svc := newSchedulerFixture(store, courses, rooms, instructors, config.SchedulerConfig{})

	// The store still answers pings, so a query failure on one course must
	// not take the whole run down with it.
	result, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ScheduledCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Outcomes, 2)

	first := result.Outcomes[0]
	assert.Equal(t, int64(1), first.CourseID)
	assert.Equal(t, dto.OutcomeFailed, first.Status)
	assert.Contains(t, first.Reason, "failed to read existing course bookings")

	second := result.Outcomes[1]
	assert.Equal(t, int64(2), second.CourseID)
	assert.Equal(t, dto.OutcomeScheduled, second.Status)
	require.Len(t, store.entries, 1)
	assert.Equal(t, int64(2), store.entries[0].CourseID)
}

func TestAutoScheduleNeverPersistsUnstampedBooking(t *testing.T) {
	store := &fakeTimetable{}
	courses := []models.Course{{ID: 1, Code: "CS101", Faculty: "alice"}}
	rooms := []models.Room{{ID: 1}}
	// The conflict check resolves the instructor fine; the resolver only
	// starts failing on the later call that stamps the entry.
	instructors := &fakeInstructors{
		byCourse:   map[int64]int64{1: 10},
		resolveErr: errors.New("driver: bad connection"),
		failAfter:  1,
	}
	svc := newSchedulerFixture(store, courses, rooms, instructors, oneSlotGrid())

	result, err := svc.Generate(context.Background(), dto.GenerateScheduleRequest{Days: []string{"Monday"}})
	require.NoError(t, err)
	assert.Zero(t, result.ScheduledCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, dto.OutcomeFailed, result.Outcomes[0].Status)
	assert.Contains(t, result.Outcomes[0].Reason, "failed to resolve course instructor")

	// A booking without its instructor stamp would be invisible to the
	// instructor axis of later conflict checks, so nothing may be written.
	assert.Empty(t, store.entries)
}
