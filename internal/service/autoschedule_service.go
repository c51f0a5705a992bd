package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Druv08/smart-scheduler/internal/dto"
	"github.com/Druv08/smart-scheduler/internal/models"
	"github.com/Druv08/smart-scheduler/internal/repository"
	"github.com/Druv08/smart-scheduler/pkg/config"
	appErrors "github.com/Druv08/smart-scheduler/pkg/errors"
)

type schedulerCourseSource interface {
	ListAll(ctx context.Context) ([]models.Course, error)
}

type schedulerRoomSource interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

// schedulerBookingStore is the timetable access the generator needs: reading
// a course's existing bookings, inserting new ones, and probing the store.
type schedulerBookingStore interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.TimetableEntry, error)
	Insert(ctx context.Context, entry *models.TimetableEntry) error
	Ping(ctx context.Context) error
}

// scheduleMetrics records per-course generator outcomes.
type scheduleMetrics interface {
	RecordScheduleOutcome(outcome string)
}

// AutoScheduleService places every unscheduled course into the weekly grid
// using greedy first fit. Candidate slots are tried in a fixed order (day,
// then hour, then room), so two runs over the same store state produce the
// same timetable.
type AutoScheduleService struct {
	courses     schedulerCourseSource
	rooms       schedulerRoomSource
	bookings    schedulerBookingStore
	conflicts   conflictChecker
	instructors instructorResolver
	metrics     scheduleMetrics
	validate    *validator.Validate
	logger      *zap.Logger
	cfg         config.SchedulerConfig
}

// NewAutoScheduleService wires generator dependencies. Zero-valued grid
// bounds fall back to the standard teaching day of 08:00-17:00 with a
// 12:00-13:00 lunch break.
func NewAutoScheduleService(
	courses schedulerCourseSource,
	rooms schedulerRoomSource,
	bookings schedulerBookingStore,
	conflicts conflictChecker,
	instructors instructorResolver,
	metrics scheduleMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.SchedulerConfig,
) *AutoScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DayStart == "" {
		cfg.DayStart = "08:00"
	}
	if cfg.DayEnd == "" {
		cfg.DayEnd = "17:00"
	}
	if cfg.LunchStart == "" {
		cfg.LunchStart = "12:00"
	}
	if cfg.LunchEnd == "" {
		cfg.LunchEnd = "13:00"
	}
	return &AutoScheduleService{
		courses:     courses,
		rooms:       rooms,
		bookings:    bookings,
		conflicts:   conflicts,
		instructors: instructors,
		metrics:     metrics,
		validate:    validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate runs one scheduling pass. Courses that already hold a booking
// are skipped, so re-running the generator is idempotent. A course that
// cannot be placed anywhere is reported as failed without aborting the run;
// only a store outage aborts the whole pass.
func (s *AutoScheduleService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.ScheduleRunResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	days, err := s.resolveDays(req.Days)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Ping(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "entity store unreachable, aborting schedule run")
	}

	grid, err := buildHourlyGrid(s.cfg.DayStart, s.cfg.DayEnd, s.cfg.LunchStart, s.cfg.LunchEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid scheduler grid configuration")
	}

	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load courses")
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load rooms")
	}

	// Fixed orders keep the run deterministic regardless of store ordering.
	sort.Slice(courses, func(i, j int) bool { return courses[i].ID < courses[j].ID })
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	result := &dto.ScheduleRunResult{Outcomes: make([]dto.CourseOutcome, 0, len(courses))}
	for _, course := range courses {
		outcome, err := s.placeCourse(ctx, course, days, grid, rooms)
		if err != nil {
			return nil, err
		}
		result.Outcomes = append(result.Outcomes, *outcome)
		switch outcome.Status {
		case dto.OutcomeScheduled:
			result.ScheduledCount++
		case dto.OutcomeSkipped:
			result.SkippedCount++
		default:
			result.FailedCount++
		}
		if s.metrics != nil {
			s.metrics.RecordScheduleOutcome(outcome.Status)
		}
	}

	s.logger.Info("schedule run finished",
		zap.Int("scheduled", result.ScheduledCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("failed", result.FailedCount))
	return result, nil
}

// placeCourse finds the first free slot for one course. A store outage
// surfaces as an error and aborts the run; everything else degrades to a
// failed outcome for this course only.
func (s *AutoScheduleService) placeCourse(ctx context.Context, course models.Course, days []string, grid []slotWindow, rooms []models.Room) (*dto.CourseOutcome, error) {
	existing, err := s.bookings.ListByCourse(ctx, course.ID)
	if err != nil {
		return s.failCourse(ctx, course, fmt.Errorf("failed to read existing course bookings: %w", err))
	}
	if len(existing) > 0 {
		return &dto.CourseOutcome{
			CourseID:   course.ID,
			CourseCode: course.Code,
			Status:     dto.OutcomeSkipped,
			Reason:     "course already has a booking",
		}, nil
	}

	for _, day := range days {
		for _, window := range grid {
			for _, room := range rooms {
				entry, err := s.tryPlace(ctx, course, room, day, window)
				if err != nil {
					return s.failCourse(ctx, course, err)
				}
				if entry != nil {
					return &dto.CourseOutcome{
						CourseID:   course.ID,
						CourseCode: course.Code,
						Status:     dto.OutcomeScheduled,
						BookingID:  entry.ID,
						RoomID:     entry.RoomID,
						DayOfWeek:  entry.DayOfWeek,
						StartTime:  entry.StartTime,
						EndTime:    entry.EndTime,
					}, nil
				}
			}
		}
	}

	return &dto.CourseOutcome{
		CourseID:   course.ID,
		CourseCode: course.Code,
		Status:     dto.OutcomeFailed,
		Reason:     "no free slot available",
	}, nil
}

// tryPlace attempts to admit the course into one slot. A nil entry with a
// nil error means the slot was occupied and the caller should try the next
// candidate.
func (s *AutoScheduleService) tryPlace(ctx context.Context, course models.Course, room models.Room, day string, window slotWindow) (*models.TimetableEntry, error) {
	check, err := s.conflicts.Check(ctx, dto.CheckConflictRequest{
		CourseID:  course.ID,
		RoomID:    room.ID,
		DayOfWeek: day,
		StartTime: window.Start,
		EndTime:   window.End,
	})
	if err != nil {
		return nil, fmt.Errorf("conflict check failed during schedule run: %w", err)
	}
	if check.HasConflict {
		return nil, nil
	}

	entry := &models.TimetableEntry{
		CourseID:  course.ID,
		RoomID:    room.ID,
		DayOfWeek: day,
		StartTime: window.Start,
		EndTime:   window.End,
	}
	if instructorID, err := s.instructors.ResolveInstructor(ctx, course.ID); err == nil {
		entry.InstructorID = &instructorID
	} else if err != sql.ErrNoRows {
		// Persisting without the stamp would hide the entry from the
		// instructor axis of later conflict checks.
		return nil, fmt.Errorf("failed to resolve course instructor: %w", err)
	}

	if err := s.bookings.Insert(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			// Lost a race for this slot; move on to the next candidate.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to persist generated booking: %w", err)
	}

	s.logger.Debug("course placed",
		zap.Int64("course_id", course.ID),
		zap.Int64("room_id", room.ID),
		zap.String("day", day),
		zap.String("start", window.Start))
	return entry, nil
}

// failCourse distinguishes a dead store from a transient query error. When
// the store no longer answers a ping the whole run aborts; while it still
// answers, only this course is marked failed and the run moves on.
func (s *AutoScheduleService) failCourse(ctx context.Context, course models.Course, cause error) (*dto.CourseOutcome, error) {
	if pingErr := s.bookings.Ping(ctx); pingErr != nil {
		return nil, appErrors.Wrap(cause, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "entity store unreachable, aborting schedule run")
	}
	s.logger.Warn("course placement failed",
		zap.Int64("course_id", course.ID),
		zap.Error(cause))
	return &dto.CourseOutcome{
		CourseID:   course.ID,
		CourseCode: course.Code,
		Status:     dto.OutcomeFailed,
		Reason:     cause.Error(),
	}, nil
}

func (s *AutoScheduleService) resolveDays(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return weekdays, nil
	}
	wanted := make(map[string]bool, len(requested))
	for _, day := range requested {
		if !isWeekday(day) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%q is not a teaching day", day))
		}
		wanted[day] = true
	}
	// Preserve canonical weekday order regardless of request order.
	days := make([]string, 0, len(wanted))
	for _, day := range weekdays {
		if wanted[day] {
			days = append(days, day)
		}
	}
	return days, nil
}
