package dto

// CreateCourseRequest adds a course to the catalogue. Faculty is the
// username of the teaching faculty member.
type CreateCourseRequest struct {
	Code        string `json:"code" validate:"required,min=2,max=32"`
	Name        string `json:"name" validate:"required,min=2,max=128"`
	Faculty     string `json:"faculty" validate:"required,min=3,max=64"`
	MaxStudents int    `json:"max_students" validate:"omitempty,min=1,max=1000"`
}

// UpdateCourseRequest rewrites course fields; zero values leave the field
// unchanged.
type UpdateCourseRequest struct {
	Code        string `json:"code" validate:"omitempty,min=2,max=32"`
	Name        string `json:"name" validate:"omitempty,min=2,max=128"`
	Faculty     string `json:"faculty" validate:"omitempty,min=3,max=64"`
	MaxStudents int    `json:"max_students" validate:"omitempty,min=1,max=1000"`
}
