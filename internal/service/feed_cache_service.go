package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/givelane/givelane-api/internal/models"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
)

// FeedCacheRepository abstracts the Redis layer behind the listings feed.
type FeedCacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cachedFeedPage struct {
	Listings   []models.Listing   `json:"listings"`
	Pagination *models.Pagination `json:"pagination"`
}

// FeedCacheService caches pages of the public visible-listings feed. Any
// listing mutation or sweep invalidates every cached page.
type FeedCacheService struct {
	repo    FeedCacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewFeedCacheService constructs a feed cache. A nil repo disables caching.
func NewFeedCacheService(repo FeedCacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *FeedCacheService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedCacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger}
}

// Enabled indicates whether caching is active.
func (s *FeedCacheService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Get attempts to serve a feed page from cache.
func (s *FeedCacheService) Get(ctx context.Context, page, size int) ([]models.Listing, *models.Pagination, bool) {
	if !s.Enabled() {
		return nil, nil, false
	}
	start := time.Now()
	var cached cachedFeedPage
	err := s.repo.Get(ctx, feedCacheKey(page, size), &cached)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("feed cache read failed", zap.Error(err))
		}
		return nil, nil, false
	}
	s.metrics.RecordCacheOperation(true, duration)
	return cached.Listings, cached.Pagination, true
}

// Set stores a feed page.
func (s *FeedCacheService) Set(ctx context.Context, page, size int, listings []models.Listing, pagination *models.Pagination) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	if err := s.repo.Set(ctx, feedCacheKey(page, size), cachedFeedPage{Listings: listings, Pagination: pagination}, s.ttl); err != nil {
		s.logger.Warn("feed cache write failed", zap.Error(err))
		return
	}
	s.metrics.ObserveCacheWrite(time.Since(start))
}

// Invalidate drops all cached feed pages.
func (s *FeedCacheService) Invalidate(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, "feed:listings:*"); err != nil {
		s.logger.Warn("feed cache invalidation failed", zap.Error(err))
	}
}

func feedCacheKey(page, size int) string {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return fmt.Sprintf("feed:listings:%d:%d", page, size)
}
