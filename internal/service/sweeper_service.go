package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/givelane/givelane-api/internal/models"
	appErrors "github.com/givelane/givelane-api/pkg/errors"
	"github.com/givelane/givelane-api/pkg/jobs"
)

type sweepExpirationStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.Expiration, error)
	Delete(ctx context.Context, id string) error
}

type sweepListingStore interface {
	FindByID(ctx context.Context, id string) (*models.Listing, error)
	DeleteVisible(ctx context.Context, id string) (bool, error)
}

type sweepRequestStore interface {
	FindByID(ctx context.Context, id string) (*models.Request, error)
	DeleteVisible(ctx context.Context, id string) (bool, error)
}

// SweeperService reconciles due expiration records against the items they
// point at. Expired visible items are removed; hidden items are left alone
// because their removal was already handled by the claim path or the author.
type SweeperService struct {
	expirations sweepExpirationStore
	listings    sweepListingStore
	requests    sweepRequestStore
	feedCache   *FeedCacheService
	metrics     *MetricsService
	batchSize   int
	logger      *zap.Logger
	now         func() time.Time
}

// NewSweeperService constructs SweeperService.
func NewSweeperService(expirations sweepExpirationStore, listings sweepListingStore, requests sweepRequestStore, feedCache *FeedCacheService, metrics *MetricsService, batchSize int, logger *zap.Logger) *SweeperService {
	if batchSize <= 0 {
		batchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweeperService{
		expirations: expirations,
		listings:    listings,
		requests:    requests,
		feedCache:   feedCache,
		metrics:     metrics,
		batchSize:   batchSize,
		logger:      logger,
		now:         time.Now,
	}
}

// RunOnce performs a single sweep. Errors on individual records are counted
// and logged without aborting the rest of the batch; only a failure to read
// the due set itself is returned.
func (s *SweeperService) RunOnce(ctx context.Context) (*models.SweepResult, error) {
	started := s.now().UTC()

	due, err := s.expirations.ListDue(ctx, started, s.batchSize)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list due expirations")
	}

	result := &models.SweepResult{Scanned: len(due), SweptAt: started}
	for i := range due {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("sweep interrupted",
				zap.Int("processed", i),
				zap.Int("scanned", result.Scanned),
				zap.Error(err))
			break
		}
		s.sweepRecord(ctx, &due[i], result)
	}

	elapsed := s.now().UTC().Sub(started)
	result.Duration = elapsed.String()
	s.metrics.RecordSweep(result.Deleted, result.Orphans, result.Skipped, result.Failed, elapsed)
	if result.Deleted > 0 {
		s.feedCache.Invalidate(ctx)
	}

	s.logger.Info("sweep completed",
		zap.Int("scanned", result.Scanned),
		zap.Int("deleted", result.Deleted),
		zap.Int("orphans", result.Orphans),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", elapsed))
	return result, nil
}

func (s *SweeperService) sweepRecord(ctx context.Context, record *models.Expiration, result *models.SweepResult) {
	hidden, exists, err := s.lookupItem(ctx, record)
	if err != nil {
		result.Failed++
		s.logger.Error("sweep item lookup failed",
			zap.String("expiration_id", record.ID),
			zap.String("item_id", record.ItemID),
			zap.String("item_kind", string(record.ItemKind)),
			zap.Error(err))
		return
	}

	if !exists {
		// The item was deleted without its ledger entry; drop the entry.
		if err := s.expirations.Delete(ctx, record.ID); err != nil {
			result.Failed++
			s.logger.Error("failed to delete orphan expiration",
				zap.String("expiration_id", record.ID),
				zap.Error(err))
			return
		}
		result.Orphans++
		return
	}

	if hidden {
		// Hidden items stay out of the feed already; removal is not the
		// sweeper's call. The ledger entry is kept so a later unhide
		// still carries its expiry.
		result.Skipped++
		return
	}

	// Ledger entry first. If the item delete below fails the entry is
	// gone, which means a retried sweep will not see the item again; that
	// is acceptable because DeleteVisible is the authoritative removal and
	// the item is due either way.
	if err := s.expirations.Delete(ctx, record.ID); err != nil {
		result.Failed++
		s.logger.Error("failed to delete expiration record",
			zap.String("expiration_id", record.ID),
			zap.Error(err))
		return
	}

	deleted, err := s.deleteItemVisible(ctx, record)
	if err != nil {
		result.Failed++
		s.logger.Error("failed to delete expired item",
			zap.String("item_id", record.ItemID),
			zap.String("item_kind", string(record.ItemKind)),
			zap.Error(err))
		return
	}
	if !deleted {
		// The item went hidden or away between the lookup and the delete.
		result.Skipped++
		return
	}
	result.Deleted++
}

func (s *SweeperService) lookupItem(ctx context.Context, record *models.Expiration) (hidden, exists bool, err error) {
	switch record.ItemKind {
	case models.ItemKindListing:
		listing, err := s.listings.FindByID(ctx, record.ItemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return false, false, nil
			}
			return false, false, err
		}
		return listing.Hidden, true, nil
	case models.ItemKindRequest:
		request, err := s.requests.FindByID(ctx, record.ItemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return false, false, nil
			}
			return false, false, err
		}
		return request.Hidden, true, nil
	default:
		return false, false, appErrors.Clone(appErrors.ErrInternal, "unknown item kind "+string(record.ItemKind))
	}
}

func (s *SweeperService) deleteItemVisible(ctx context.Context, record *models.Expiration) (bool, error) {
	switch record.ItemKind {
	case models.ItemKindListing:
		return s.listings.DeleteVisible(ctx, record.ItemID)
	case models.ItemKindRequest:
		return s.requests.DeleteVisible(ctx, record.ItemID)
	default:
		return false, appErrors.Clone(appErrors.ErrInternal, "unknown item kind "+string(record.ItemKind))
	}
}

// SweepJobType identifies sweep jobs on the background queue.
const SweepJobType = "lifecycle_sweep"

// HandleSweepJob adapts RunOnce to the background queue handler signature.
func (s *SweeperService) HandleSweepJob(ctx context.Context, _ jobs.Job) error {
	_, err := s.RunOnce(ctx)
	return err
}

// StartTicker enqueues a sweep on the given queue at a fixed interval until
// the context is cancelled. A full queue buffer drops the tick instead of
// stacking identical sweeps behind a slow one.
func (s *SweeperService) StartTicker(ctx context.Context, queue *jobs.Queue, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				job := jobs.Job{ID: uuid.NewString(), Type: SweepJobType}
				if !queue.TryEnqueue(job) {
					s.logger.Warn("sweep tick dropped, queue busy")
				}
			}
		}
	}()
}
