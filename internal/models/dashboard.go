package models

// DashboardStats aggregates entity counts for the dashboard view.
type DashboardStats struct {
	TotalUsers    int `json:"total_users"`
	TotalCourses  int `json:"total_courses"`
	TotalRooms    int `json:"total_rooms"`
	TotalBookings int `json:"total_bookings"`
}
