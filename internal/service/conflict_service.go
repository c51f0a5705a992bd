package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Druv08/smart-scheduler/internal/dto"
	"github.com/Druv08/smart-scheduler/internal/models"
	appErrors "github.com/Druv08/smart-scheduler/pkg/errors"
)

// bookingReader is the slice of the timetable repository the conflict
// checker needs.
type bookingReader interface {
	ListByRoomAndDay(ctx context.Context, roomID int64, day string) ([]models.TimetableEntry, error)
	ListByInstructorAndDay(ctx context.Context, instructorID int64, day string) ([]models.TimetableEntry, error)
}

// instructorResolver maps a course to the user id of its instructor.
type instructorResolver interface {
	ResolveInstructor(ctx context.Context, courseID int64) (int64, error)
}

// ConflictService answers whether a proposed booking collides with the
// existing timetable.
type ConflictService struct {
	bookings    bookingReader
	instructors instructorResolver
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewConflictService creates a new conflict service.
func NewConflictService(bookings bookingReader, instructors instructorResolver, validate *validator.Validate, logger *zap.Logger) *ConflictService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{
		bookings:    bookings,
		instructors: instructors,
		validate:    validate,
		logger:      logger,
	}
}

// Check inspects the timetable for collisions with the proposed slot.
// Room collisions are checked before instructor collisions, so when both
// exist the result always reports the room conflict. The checker never
// guesses on a failed store read: the error propagates and the caller must
// treat the slot as unsafe.
func (s *ConflictService) Check(ctx context.Context, req dto.CheckConflictRequest) (*models.ConflictResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	if !validTimeRange(req.StartTime, req.EndTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start time must be a valid HH:MM before end time")
	}

	// Room axis first.
	occupied, err := s.bookings.ListByRoomAndDay(ctx, req.RoomID, req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to read room bookings")
	}
	for i := range occupied {
		entry := &occupied[i]
		if overlaps(req.StartTime, req.EndTime, entry.StartTime, entry.EndTime) {
			s.logger.Debug("room conflict detected",
				zap.Int64("room_id", req.RoomID),
				zap.String("day", req.DayOfWeek),
				zap.Int64("occupying_id", entry.ID))
			return &models.ConflictResult{
				HasConflict: true,
				Kind:        models.ConflictRoom,
				Message:     fmt.Sprintf("room %d is occupied on %s between %s and %s", req.RoomID, req.DayOfWeek, entry.StartTime, entry.EndTime),
				Occupying:   entry,
			}, nil
		}
	}

	// Instructor axis. A course whose faculty does not map to a known user
	// has no instructor calendar to collide with.
	instructorID, err := s.instructors.ResolveInstructor(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.ConflictResult{Kind: models.ConflictNone}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to resolve course instructor")
	}

	teaching, err := s.bookings.ListByInstructorAndDay(ctx, instructorID, req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to read instructor bookings")
	}
	for i := range teaching {
		entry := &teaching[i]
		if entry.RoomID == req.RoomID {
			// The room pass above already returned for any overlapping
			// same-room entry; whatever is left here is disjoint.
			continue
		}
		if overlaps(req.StartTime, req.EndTime, entry.StartTime, entry.EndTime) {
			s.logger.Debug("instructor conflict detected",
				zap.Int64("instructor_id", instructorID),
				zap.String("day", req.DayOfWeek),
				zap.Int64("occupying_id", entry.ID))
			return &models.ConflictResult{
				HasConflict: true,
				Kind:        models.ConflictInstructor,
				Message:     fmt.Sprintf("instructor is teaching in room %d on %s between %s and %s", entry.RoomID, req.DayOfWeek, entry.StartTime, entry.EndTime),
				Occupying:   entry,
			}, nil
		}
	}

	return &models.ConflictResult{Kind: models.ConflictNone}, nil
}
