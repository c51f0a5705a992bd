package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Druv08/smart-scheduler/internal/models"
	appErrors "github.com/Druv08/smart-scheduler/pkg/errors"
)

const dashboardStatsKey = "dashboard:stats"

type entityCounter interface {
	Count(ctx context.Context) (int, error)
}

// dashboardCache is the Get/Set slice of the cache repository.
type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// dashboardMetrics records cache hits and misses.
type dashboardMetrics interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// DashboardService aggregates entity counts for the admin landing page.
// Counts are cached in Redis; the cache is invalidated by the mutating
// services.
type DashboardService struct {
	users     entityCounter
	courses   entityCounter
	rooms     entityCounter
	timetable entityCounter
	cache     dashboardCache
	metrics   dashboardMetrics
	logger    *zap.Logger
	ttl       time.Duration
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(users, courses, rooms, timetable entityCounter, cache dashboardCache, metrics dashboardMetrics, logger *zap.Logger, ttl time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{
		users:     users,
		courses:   courses,
		rooms:     rooms,
		timetable: timetable,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		ttl:       ttl,
	}
}

// Stats returns entity totals, from cache when fresh.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if s.cache != nil {
		start := time.Now()
		var cached models.DashboardStats
		err := s.cache.Get(ctx, dashboardStatsKey, &cached)
		if err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true, time.Since(start))
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false, time.Since(start))
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	stats, err := s.computeStats(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardStatsKey, stats, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *DashboardService) computeStats(ctx context.Context) (*models.DashboardStats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
	}
	courses, err := s.courses.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}
	rooms, err := s.rooms.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rooms")
	}
	bookings, err := s.timetable.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count bookings")
	}
	return &models.DashboardStats{
		TotalUsers:    users,
		TotalCourses:  courses,
		TotalRooms:    rooms,
		TotalBookings: bookings,
	}, nil
}
