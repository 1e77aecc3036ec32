package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/chapter-participation-api/internal/models"
	appErrors "github.com/noah-isme/chapter-participation-api/pkg/errors"
)

const statisticsCacheKey = "statistics:aggregate"

type rosterReader interface {
	List(ctx context.Context) ([]models.Student, error)
}

// StatisticsService computes aggregate statistics over a fresh roster
// snapshot, optionally served from cache until the next roster change.
type StatisticsService struct {
	repo    rosterReader
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger

	// generation counts invalidations. A result computed from a snapshot
	// taken before the latest invalidation is never cached.
	mu         sync.Mutex
	generation uint64
}

// NewStatisticsService constructs the service. cache may be nil.
func NewStatisticsService(repo rosterReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Statistics returns the aggregate statistics of the current roster.
func (s *StatisticsService) Statistics(ctx context.Context) (models.AggregateStatistics, error) {
	var cached models.AggregateStatistics
	if hit, _ := s.cache.Get(ctx, statisticsCacheKey, &cached); hit {
		return cached, nil
	}

	generation := s.currentGeneration()
	start := time.Now()
	students, err := s.repo.List(ctx)
	s.metrics.ObserveDBQuery("roster_snapshot", time.Since(start))
	if err != nil {
		return models.AggregateStatistics{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	stats := ComputeStatistics(students)
	s.store(ctx, generation, stats)
	return stats, nil
}

func (s *StatisticsService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *StatisticsService) store(ctx context.Context, generation uint64, stats models.AggregateStatistics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		s.logger.Debug("statistics not cached, roster changed during read")
		return
	}
	_ = s.cache.Set(ctx, statisticsCacheKey, stats, 0)
}

// Invalidate drops cached statistics. It is subscribed to roster changes.
func (s *StatisticsService) Invalidate(ctx context.Context, change models.RosterChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if err := s.cache.Invalidate(ctx, statisticsCacheKey); err != nil {
		s.logger.Warn("statistics cache not invalidated", zap.String("reason", string(change.Reason)), zap.Error(err))
	}
}
