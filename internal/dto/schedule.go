package dto

// GenerateScheduleRequest triggers the auto-scheduler. Days may narrow the
// grid to a subset of the teaching week; when empty the full Monday-Friday
// grid is used.
type GenerateScheduleRequest struct {
	Days []string `json:"days" validate:"omitempty,dive,oneof=Monday Tuesday Wednesday Thursday Friday"`
}

// Course scheduling outcome statuses.
const (
	OutcomeScheduled = "SCHEDULED"
	OutcomeFailed    = "FAILED"
	OutcomeSkipped   = "SKIPPED"
)

// CourseOutcome names the placement (or failure) for a single course.
type CourseOutcome struct {
	CourseID   int64  `json:"courseId"`
	CourseCode string `json:"courseCode"`
	Status     string `json:"status"`
	BookingID  int64  `json:"bookingId,omitempty"`
	RoomID     int64  `json:"roomId,omitempty"`
	DayOfWeek  string `json:"dayOfWeek,omitempty"`
	StartTime  string `json:"startTime,omitempty"`
	EndTime    string `json:"endTime,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// ScheduleRunResult aggregates a full auto-scheduler run.
type ScheduleRunResult struct {
	ScheduledCount int             `json:"scheduledCount"`
	FailedCount    int             `json:"failedCount"`
	SkippedCount   int             `json:"skippedCount"`
	Outcomes       []CourseOutcome `json:"outcomes"`
}
