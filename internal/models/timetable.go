package models

import (
	"fmt"
	"time"
)

// TimetableEntry represents a scheduled occupation of one room, by one course,
// on one day, for one time range. Entries are never mutated in place; edits are
// modelled as delete followed by recreate.
type TimetableEntry struct {
	ID           int64     `db:"id" json:"id"`
	CourseID     int64     `db:"course_id" json:"course_id"`
	RoomID       int64     `db:"room_id" json:"room_id"`
	InstructorID *int64    `db:"instructor_id" json:"instructor_id,omitempty"`
	DayOfWeek    string    `db:"day_of_week" json:"day_of_week"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// BookingFilter describes query params for listing timetable entries.
type BookingFilter struct {
	CourseID  int64
	RoomID    int64
	DayOfWeek string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ConflictKind classifies a booking conflict.
type ConflictKind string

const (
	ConflictNone       ConflictKind = "NONE"
	ConflictRoom       ConflictKind = "ROOM"
	ConflictInstructor ConflictKind = "INSTRUCTOR"
)

// ConflictResult reports the outcome of a conflict check for a candidate
// booking. Occupying carries the existing entry that blocks the candidate.
type ConflictResult struct {
	HasConflict bool            `json:"has_conflict"`
	Kind        ConflictKind    `json:"kind"`
	Message     string          `json:"message"`
	Occupying   *TimetableEntry `json:"occupying,omitempty"`
}

// BookingConflictError is returned when an admission collides with an
// existing booking.
type BookingConflictError struct {
	Kind      ConflictKind    `json:"kind"`
	Message   string          `json:"message"`
	Occupying *TimetableEntry `json:"occupying,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s conflict: %s", e.Kind, e.Message)
}
