package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/samvidha-portal-api/internal/models"
	"github.com/noah-isme/samvidha-portal-api/pkg/browser"
	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
)

const attendanceCachePrefix = "att:"

type portalRunner interface {
	WithLogin(ctx context.Context, creds models.Credentials, fn func(ctx context.Context, drv browser.Driver) error) error
}

type attendancePortal interface {
	FetchAttendanceRows(ctx context.Context, drv browser.Driver) ([]string, error)
}

type attendanceCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AttendanceCacheConfig tunes result caching.
type AttendanceCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// AttendanceService is the attendance use-case: scrape, parse, cache.
type AttendanceService struct {
	client  portalRunner
	portal  attendancePortal
	parser  *AttendanceParser
	cache   attendanceCache
	metrics *MetricsService
	logger  *zap.Logger
	config  AttendanceCacheConfig
}

// NewAttendanceService constructs the service.
func NewAttendanceService(client portalRunner, portal attendancePortal, parser *AttendanceParser, cache attendanceCache, metrics *MetricsService, logger *zap.Logger, config AttendanceCacheConfig) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = 30 * time.Minute
	}
	return &AttendanceService{
		client:  client,
		portal:  portal,
		parser:  parser,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		config:  config,
	}
}

// Fetch returns the attendance result for the given credentials. A cached
// result is served unless force is set; the boolean reports whether the
// result came from cache. A fresh scrape that fails never evicts an existing
// cached entry.
func (s *AttendanceService) Fetch(ctx context.Context, creds models.Credentials, force bool) (*models.AttendanceResult, bool, error) {
	cacheKey := attendanceCachePrefix + creds.Username

	if s.config.Enabled && !force {
		start := time.Now()
		var cached models.AttendanceResult
		err := s.cache.Get(ctx, cacheKey, &cached)
		s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		if err == nil {
			s.logger.Debug("attendance served from cache", zap.String("username", creds.Username))
			return &cached, true, nil
		}
	}

	var result *models.AttendanceResult
	scrapeStart := time.Now()
	err := s.client.WithLogin(ctx, creds, func(ctx context.Context, drv browser.Driver) error {
		rows, err := s.portal.FetchAttendanceRows(ctx, drv)
		if err != nil {
			return err
		}
		result = s.parser.Parse(rows)
		return nil
	})
	s.metrics.ObserveScrape("attendance", err == nil, time.Since(scrapeStart))
	if err != nil {
		return nil, false, err
	}

	if s.config.Enabled {
		start := time.Now()
		if err := s.cache.Set(ctx, cacheKey, result, s.config.TTL); err != nil {
			s.logger.Warn("failed to cache attendance result",
				zap.String("username", creds.Username), zap.Error(err))
		}
		s.metrics.ObserveCacheWrite(time.Since(start))
	}
	return result, false, nil
}

// Cached returns the cached result for a username without touching the
// portal. ErrCacheMiss when nothing is stored.
func (s *AttendanceService) Cached(ctx context.Context, username string) (*models.AttendanceResult, error) {
	if !s.config.Enabled {
		return nil, appErrors.ErrCacheMiss
	}
	var cached models.AttendanceResult
	if err := s.cache.Get(ctx, attendanceCachePrefix+username, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

// Invalidate drops the cached result for a username.
func (s *AttendanceService) Invalidate(ctx context.Context, username string) error {
	return s.cache.Delete(ctx, attendanceCachePrefix+username)
}

// Calendar converts the date-indexed tallies into heat-map entries with
// ISO dates. Unparseable keys are skipped.
func Calendar(result *models.AttendanceResult) []models.CalendarDay {
	days := make([]models.CalendarDay, 0, len(result.DateAttendance))
	for key, tally := range result.DateAttendance {
		t, err := time.Parse("02-01-2006", key)
		if err != nil {
			continue
		}
		value := 0
		switch {
		case tally.Present > 0:
			value = 1
		case tally.Absent > 0:
			value = -1
		}
		days = append(days, models.CalendarDay{Date: t.Format("2006-01-02"), Value: value})
	}
	return days
}

// SubjectTable flattens the subject map into ordered dashboard rows.
func SubjectTable(result *models.AttendanceResult) []models.SubjectRow {
	rows := make([]models.SubjectRow, 0, len(result.SubjectOrder))
	for i, code := range result.SubjectOrder {
		subject, ok := result.Subjects[code]
		if !ok {
			continue
		}
		rows = append(rows, models.SubjectRow{
			SNo:        i + 1,
			Code:       code,
			Name:       subject.Name,
			Present:    subject.Present,
			Absent:     subject.Absent,
			Percentage: subject.Percentage,
		})
	}
	return rows
}

// ProjectedPercentage computes the attendance percentage after bunking a
// further `bunk` periods on top of the recorded counts.
func ProjectedPercentage(present, absent, bunk int) float64 {
	total := present + absent + bunk
	if total <= 0 {
		return 0
	}
	return round2(float64(present) / float64(total) * 100)
}
