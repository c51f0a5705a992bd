package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Druv08/smart-scheduler/internal/dto"
	"github.com/Druv08/smart-scheduler/internal/models"
	"github.com/Druv08/smart-scheduler/internal/repository"
	appErrors "github.com/Druv08/smart-scheduler/pkg/errors"
)

// conflictChecker decides whether a candidate slot collides with the
// existing timetable.
type conflictChecker interface {
	Check(ctx context.Context, req dto.CheckConflictRequest) (*models.ConflictResult, error)
}

// bookingStore is the slice of the timetable repository used for admission
// and lifecycle of bookings.
type bookingStore interface {
	Insert(ctx context.Context, entry *models.TimetableEntry) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.TimetableEntry, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.TimetableEntry, int, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.TimetableEntry, error)
}

// courseFinder loads a course by id.
type courseFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

// roomFinder loads a room by id.
type roomFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Room, error)
}

// bookingMetrics records admission outcomes. Implemented by MetricsService;
// a nil value disables instrumentation.
type bookingMetrics interface {
	RecordBookingAdmitted()
	RecordBookingConflict(kind models.ConflictKind)
}

// BookingService admits, lists and removes timetable entries. Every
// admission passes the conflict checker first; the store's uniqueness
// constraint backstops races between concurrent admissions.
type BookingService struct {
	store       bookingStore
	courses     courseFinder
	rooms       roomFinder
	conflicts   conflictChecker
	instructors instructorResolver
	metrics     bookingMetrics
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewBookingService creates a new booking service.
func NewBookingService(
	store bookingStore,
	courses courseFinder,
	rooms roomFinder,
	conflicts conflictChecker,
	instructors instructorResolver,
	metrics bookingMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		store:       store,
		courses:     courses,
		rooms:       rooms,
		conflicts:   conflicts,
		instructors: instructors,
		metrics:     metrics,
		validate:    validate,
		logger:      logger,
	}
}

// Create admits a booking. On a conflict the returned error wraps a
// *models.BookingConflictError carrying the kind and the occupying entry.
func (s *BookingService) Create(ctx context.Context, req dto.CreateBookingRequest) (*models.TimetableEntry, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	if !validTimeRange(req.StartTime, req.EndTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start time must be a valid HH:MM before end time")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.rooms.FindByID(ctx, req.RoomID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	result, err := s.conflicts.Check(ctx, dto.CheckConflictRequest{
		CourseID:  req.CourseID,
		RoomID:    req.RoomID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return nil, err
	}
	if result.HasConflict {
		if s.metrics != nil {
			s.metrics.RecordBookingConflict(result.Kind)
		}
		return nil, s.conflictError(result.Kind, result.Message, result.Occupying)
	}

	entry := &models.TimetableEntry{
		CourseID:  req.CourseID,
		RoomID:    req.RoomID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if instructorID, err := s.instructors.ResolveInstructor(ctx, req.CourseID); err == nil {
		entry.InstructorID = &instructorID
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to resolve course instructor")
	}

	if err := s.store.Insert(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			// A concurrent admission won the race; report it the same way
			// the checker would have.
			if s.metrics != nil {
				s.metrics.RecordBookingConflict(models.ConflictRoom)
			}
			msg := fmt.Sprintf("room %d is occupied on %s between %s and %s", req.RoomID, req.DayOfWeek, req.StartTime, req.EndTime)
			return nil, s.conflictError(models.ConflictRoom, msg, nil)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to persist booking")
	}

	if s.metrics != nil {
		s.metrics.RecordBookingAdmitted()
	}
	s.logger.Info("booking admitted",
		zap.Int64("booking_id", entry.ID),
		zap.Int64("course_id", entry.CourseID),
		zap.Int64("room_id", entry.RoomID),
		zap.String("day", entry.DayOfWeek),
		zap.String("start", entry.StartTime))
	return entry, nil
}

// List returns timetable entries matching the filter plus the total count.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.TimetableEntry, int, error) {
	entries, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return entries, total, nil
}

// Get loads a single booking by id.
func (s *BookingService) Get(ctx context.Context, id int64) (*models.TimetableEntry, error) {
	entry, err := s.store.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return entry, nil
}

// ListByCourse returns all bookings held by a course.
func (s *BookingService) ListByCourse(ctx context.Context, courseID int64) ([]models.TimetableEntry, error) {
	entries, err := s.store.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course bookings")
	}
	return entries, nil
}

// Delete removes a booking by id.
func (s *BookingService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete booking")
	}
	s.logger.Info("booking removed", zap.Int64("booking_id", id))
	return nil
}

func (s *BookingService) conflictError(kind models.ConflictKind, message string, occupying *models.TimetableEntry) error {
	conflict := &models.BookingConflictError{Kind: kind, Message: message, Occupying: occupying}
	return appErrors.Wrap(conflict, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
}
