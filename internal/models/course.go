package models

import "time"

// Course represents a teachable course owned by a faculty member.
type Course struct {
	ID          int64     `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Faculty     string    `db:"faculty" json:"faculty"`
	MaxStudents int       `db:"max_students" json:"max_students"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter describes query params for listing courses.
type CourseFilter struct {
	Faculty   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
