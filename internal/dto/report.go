package dto

import "time"

// CreateReportRequest queues a timetable export.
type CreateReportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf xlsx"`
}

// ReportResponse describes a report job with an optional signed download URL.
type ReportResponse struct {
	ID          string     `json:"id"`
	Format      string     `json:"format"`
	Status      string     `json:"status"`
	DownloadURL string     `json:"download_url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ErrorDetail string     `json:"error_detail,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
