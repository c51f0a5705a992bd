package dto

// CreateBookingRequest books a course into a room for a day and time range.
type CreateBookingRequest struct {
	CourseID  int64  `json:"courseId" validate:"required,min=1"`
	RoomID    int64  `json:"roomId" validate:"required,min=1"`
	DayOfWeek string `json:"dayOfWeek" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// CheckConflictRequest probes whether a candidate slot is free without
// mutating the timetable.
type CheckConflictRequest struct {
	CourseID  int64  `json:"courseId" validate:"required,min=1"`
	RoomID    int64  `json:"roomId" validate:"required,min=1"`
	DayOfWeek string `json:"dayOfWeek" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}
