package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Druv08/smart-scheduler/internal/models"
)

// ErrDuplicateSlot is returned when an insert trips the uniqueness constraint
// on (room_id, day_of_week, start_time, end_time). It is the last line of
// defense against two concurrent admissions racing past the conflict check.
var ErrDuplicateSlot = errors.New("timetable slot already taken")

// TimetableRepository provides persistence for timetable entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new timetable repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const timetableColumns = "id, course_id, room_id, instructor_id, day_of_week, start_time, end_time, created_at"

// List returns timetable entries with optional filtering and pagination.
func (r *TimetableRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.TimetableEntry, int, error) {
	base := "FROM timetable WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CourseID > 0 {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.RoomID > 0 {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"day_of_week": true,
		"start_time":  true,
		"room_id":     true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_time ASC LIMIT %d OFFSET %d", timetableColumns, base, sortBy, order, size, offset)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetable entries: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetable entries: %w", err)
	}

	return entries, total, nil
}

// FindByID loads a timetable entry by id.
func (r *TimetableRepository) FindByID(ctx context.Context, id int64) (*models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable WHERE id = $1", timetableColumns)
	var entry models.TimetableEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find timetable entry by id: %w", err)
	}
	return &entry, nil
}

// ListByRoomAndDay returns all entries for a room on a given day.
func (r *TimetableRepository) ListByRoomAndDay(ctx context.Context, roomID int64, day string) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable WHERE room_id = $1 AND day_of_week = $2 ORDER BY start_time ASC", timetableColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, roomID, day); err != nil {
		return nil, fmt.Errorf("list timetable entries by room and day: %w", err)
	}
	return entries, nil
}

// ListByInstructorAndDay returns all entries taught by an instructor on a
// given day, across all rooms and courses.
func (r *TimetableRepository) ListByInstructorAndDay(ctx context.Context, instructorID int64, day string) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable WHERE instructor_id = $1 AND day_of_week = $2 ORDER BY start_time ASC", timetableColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, instructorID, day); err != nil {
		return nil, fmt.Errorf("list timetable entries by instructor and day: %w", err)
	}
	return entries, nil
}

// ListByCourse returns all entries booked for a course.
func (r *TimetableRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable WHERE course_id = $1 ORDER BY day_of_week ASC, start_time ASC", timetableColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, courseID); err != nil {
		return nil, fmt.Errorf("list timetable entries by course: %w", err)
	}
	return entries, nil
}

// Insert stores a new timetable entry. A violation of the
// (room_id, day_of_week, start_time, end_time) uniqueness constraint is
// reported as ErrDuplicateSlot, not as a generic failure.
func (r *TimetableRepository) Insert(ctx context.Context, entry *models.TimetableEntry) error {
	const query = `INSERT INTO timetable (course_id, room_id, instructor_id, day_of_week, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := r.db.QueryRowxContext(ctx, query,
		entry.CourseID,
		entry.RoomID,
		entry.InstructorID,
		entry.DayOfWeek,
		entry.StartTime,
		entry.EndTime,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlot
		}
		return fmt.Errorf("insert timetable entry: %w", err)
	}
	return nil
}

// Delete removes a timetable entry by id.
func (r *TimetableRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timetable WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete timetable entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete timetable entry rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Count returns the total number of timetable entries.
func (r *TimetableRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM timetable`); err != nil {
		return 0, fmt.Errorf("count timetable entries: %w", err)
	}
	return total, nil
}

// Ping probes store connectivity. The auto-scheduler uses it to decide
// whether an internal error means the whole store is unreachable.
func (r *TimetableRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
