package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/attainment"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/middleware/requestid"
)

// Computed attainment reports live under one key prefix. A write to courses,
// outcomes, mappings, assessments, marks or students drops the whole prefix.
const attainmentCachePattern = "attainment:*"

// courseCacheKey identifies a course report over a section scope. Section
// order does not matter; an empty scope means the whole course.
func courseCacheKey(courseID string, sections []string) string {
	if len(sections) == 0 {
		return "attainment:course:" + courseID + ":all"
	}
	sorted := append([]string(nil), sections...)
	sort.Strings(sorted)
	return "attainment:course:" + courseID + ":" + strings.Join(sorted, ",")
}

// programCacheKey identifies a program report under one set of weights.
func programCacheKey(programID string, weights attainment.Weights) string {
	return fmt.Sprintf("attainment:program:%s:%g:%g:%g", programID, weights.Direct, weights.Indirect, weights.DefaultIndirect)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// invalidateAttainment drops every cached attainment report after a write.
// Failures are logged; stale entries still expire with the TTL.
func invalidateAttainment(ctx context.Context, cache cacheInvalidator, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, attainmentCachePattern); err != nil {
		logger.Warn("failed to invalidate attainment cache",
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err),
		)
	}
}

// CacheRepository abstracts persistence for cached attainment reports.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService holds course and program attainment reports between writes.
// It records hit/miss metrics and can be switched off by config; callers
// treat every failure as a miss and recompute from the snapshot.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service. A non-positive TTL falls back
// to ten minutes.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether reports are cached at all.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get loads a cached report into dest and reports whether it was found.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if appErrors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("attainment cache read failed",
			zap.String("key", key),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err),
		)
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores a computed report. ttl <= 0 uses the configured default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("attainment cache write failed",
			zap.String("key", key),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err),
		)
	}
	return err
}

// Invalidate removes cached reports matching the pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		return err
	}
	s.logger.Debug("attainment cache invalidated",
		zap.String("pattern", pattern),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	return nil
}
