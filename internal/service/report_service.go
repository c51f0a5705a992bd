package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Druv08/smart-scheduler/internal/dto"
	"github.com/Druv08/smart-scheduler/internal/models"
	appErrors "github.com/Druv08/smart-scheduler/pkg/errors"
	"github.com/Druv08/smart-scheduler/pkg/export"
	"github.com/Druv08/smart-scheduler/pkg/jobs"
)

type reportJobRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus, filePath, errorDetail string) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.ReportJob, error)
}

// reportTimetableSource supplies everything a full timetable export needs.
type reportTimetableSource interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.TimetableEntry, int, error)
}

// artifactStore persists and serves rendered report files.
type artifactStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

// urlSigner mints and verifies download tokens for finished reports.
type urlSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

// reportMetrics records job outcomes.
type reportMetrics interface {
	RecordReportJob(status models.ReportStatus)
}

// ReportService runs timetable exports asynchronously on an in-process
// worker queue and serves the finished artifacts through signed URLs.
type ReportService struct {
	repo      reportJobRepository
	timetable reportTimetableSource
	courses   schedulerCourseSource
	rooms     schedulerRoomSource
	store     artifactStore
	signer    urlSigner
	metrics   reportMetrics
	validate  *validator.Validate
	logger    *zap.Logger

	csv   *export.CSVExporter
	pdf   *export.PDFExporter
	xlsx  *export.XLSXExporter
	queue *jobs.Queue
}

// ReportQueueConfig tunes the export worker pool.
type ReportQueueConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// NewReportService creates a report service with its own worker queue. The
// caller owns the queue lifecycle via Start and Stop.
func NewReportService(
	repo reportJobRepository,
	timetable reportTimetableSource,
	courses schedulerCourseSource,
	rooms schedulerRoomSource,
	store artifactStore,
	signer urlSigner,
	metrics reportMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ReportQueueConfig,
) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReportService{
		repo:      repo,
		timetable: timetable,
		courses:   courses,
		rooms:     rooms,
		store:     store,
		signer:    signer,
		metrics:   metrics,
		validate:  validate,
		logger:    logger,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		xlsx:      export.NewXLSXExporter(),
	}
	s.queue = jobs.NewQueue("reports", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Enqueue records a new export job and hands it to the worker pool.
func (s *ReportService) Enqueue(ctx context.Context, userID int64, req dto.CreateReportRequest) (*dto.ReportResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	job := &models.ReportJob{
		ID:          uuid.NewString(),
		Format:      models.ReportFormat(req.Format),
		Status:      models.ReportStatusPending,
		RequestedBy: userID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "timetable-export"}); err != nil {
		_ = s.repo.UpdateStatus(ctx, job.ID, models.ReportStatusFailed, "", "worker queue unavailable")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}

	s.logger.Info("report job queued", zap.String("job_id", job.ID), zap.String("format", req.Format))
	return s.toResponse(job), nil
}

// Get returns a job's status, with a signed download URL once it is done.
func (s *ReportService) Get(ctx context.Context, id string) (*dto.ReportResponse, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	return s.toResponse(job), nil
}

// ListForUser returns the caller's recent export jobs.
func (s *ReportService) ListForUser(ctx context.Context, userID int64, limit int) ([]dto.ReportResponse, error) {
	jobsList, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	out := make([]dto.ReportResponse, 0, len(jobsList))
	for i := range jobsList {
		out = append(out, *s.toResponse(&jobsList[i]))
	}
	return out, nil
}

// OpenArtifact validates a download token and opens the artifact it names.
func (s *ReportService) OpenArtifact(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.Status != models.ReportStatusDone || job.FilePath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report artifact not available")
	}
	f, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report artifact")
	}
	return f, relPath, nil
}

// process is the queue handler: it renders one export end to end.
func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.FindByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", job.ID, err)
	}

	if err := s.repo.UpdateStatus(ctx, record.ID, models.ReportStatusRunning, "", ""); err != nil {
		return fmt.Errorf("mark report job running: %w", err)
	}

	data, err := s.buildDataset(ctx)
	if err != nil {
		s.fail(ctx, record.ID, err)
		return err
	}

	var payload []byte
	var ext string
	switch record.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(data)
		ext = "csv"
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(data, "Weekly Timetable")
		ext = "pdf"
	case models.ReportFormatXLSX:
		payload, err = s.xlsx.Render(data, "Timetable")
		ext = "xlsx"
	default:
		err = fmt.Errorf("unsupported report format %q", record.Format)
	}
	if err != nil {
		s.fail(ctx, record.ID, err)
		return err
	}

	relPath, err := s.store.Save(fmt.Sprintf("%s.%s", record.ID, ext), payload)
	if err != nil {
		s.fail(ctx, record.ID, err)
		return err
	}

	if err := s.repo.UpdateStatus(ctx, record.ID, models.ReportStatusDone, relPath, ""); err != nil {
		return fmt.Errorf("mark report job done: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordReportJob(models.ReportStatusDone)
	}
	s.logger.Info("report rendered", zap.String("job_id", record.ID), zap.String("path", relPath))
	return nil
}

// buildDataset flattens the whole timetable into export rows, resolving
// course and room names.
func (s *ReportService) buildDataset(ctx context.Context) (export.Dataset, error) {
	entries, _, err := s.timetable.List(ctx, models.BookingFilter{PageSize: 200})
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load timetable: %w", err)
	}
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load courses: %w", err)
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load rooms: %w", err)
	}

	courseByID := make(map[int64]models.Course, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
	}
	roomByID := make(map[int64]models.Room, len(rooms))
	for _, r := range rooms {
		roomByID[r.ID] = r
	}

	dayRank := map[string]int{"Monday": 0, "Tuesday": 1, "Wednesday": 2, "Thursday": 3, "Friday": 4}
	sort.SliceStable(entries, func(i, j int) bool {
		if dayRank[entries[i].DayOfWeek] != dayRank[entries[j].DayOfWeek] {
			return dayRank[entries[i].DayOfWeek] < dayRank[entries[j].DayOfWeek]
		}
		return entries[i].StartTime < entries[j].StartTime
	})

	data := export.Dataset{
		Headers: []string{"Day", "Start", "End", "Course Code", "Course Name", "Faculty", "Room", "Capacity"},
	}
	for _, e := range entries {
		course := courseByID[e.CourseID]
		room := roomByID[e.RoomID]
		data.Rows = append(data.Rows, map[string]string{
			"Day":         e.DayOfWeek,
			"Start":       e.StartTime,
			"End":         e.EndTime,
			"Course Code": course.Code,
			"Course Name": course.Name,
			"Faculty":     course.Faculty,
			"Room":        room.Name,
			"Capacity":    strconv.Itoa(room.Capacity),
		})
	}
	return data, nil
}

func (s *ReportService) fail(ctx context.Context, jobID string, cause error) {
	if err := s.repo.UpdateStatus(ctx, jobID, models.ReportStatusFailed, "", cause.Error()); err != nil {
		s.logger.Error("failed to mark report job failed", zap.String("job_id", jobID), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordReportJob(models.ReportStatusFailed)
	}
}

func (s *ReportService) toResponse(job *models.ReportJob) *dto.ReportResponse {
	resp := &dto.ReportResponse{
		ID:          job.ID,
		Format:      string(job.Format),
		Status:      string(job.Status),
		ErrorDetail: job.ErrorDetail,
		CreatedAt:   job.CreatedAt,
	}
	if job.Status == models.ReportStatusDone && job.FilePath != "" && s.signer != nil {
		if token, expiresAt, err := s.signer.Generate(job.ID, job.FilePath); err == nil {
			resp.DownloadURL = "/api/v1/reports/download/" + token
			resp.ExpiresAt = &expiresAt
		} else {
			s.logger.Warn("failed to sign report url", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	return resp
}
