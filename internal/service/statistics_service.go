package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jigu1688/sporttools-sub001/internal/models"
)

// StatisticsService serves cohort statistics with an optional cache in front
// of the pure aggregator.
type StatisticsService struct {
	aggregator *Aggregator
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	version    string
}

// NewStatisticsService constructs the service. version namespaces cache keys
// so a new standard revision never serves stale aggregates.
func NewStatisticsService(aggregator *Aggregator, cache *CacheService, metrics *MetricsService, logger *zap.Logger, version string) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{aggregator: aggregator, cache: cache, metrics: metrics, logger: logger, version: version}
}

// Aggregate returns statistics for the records. The boolean indicates whether
// the result came from cache.
func (s *StatisticsService) Aggregate(ctx context.Context, records []models.ScoredRecord, dims []models.Dimension) (models.CohortStatistics, bool, error) {
	if !s.cache.Enabled() {
		stats, err := s.compute(records, dims)
		return stats, false, err
	}

	cacheKey, err := s.cacheKey(records, dims)
	if err != nil {
		return models.CohortStatistics{}, false, err
	}
	var cached models.CohortStatistics
	if s.cache.Lookup(ctx, cacheKey, &cached) {
		return cached, true, nil
	}

	stats, err := s.compute(records, dims)
	if err != nil {
		return models.CohortStatistics{}, false, err
	}
	s.cache.Store(ctx, cacheKey, stats)
	return stats, false, nil
}

func (s *StatisticsService) compute(records []models.ScoredRecord, dims []models.Dimension) (models.CohortStatistics, error) {
	start := time.Now()
	stats, err := s.aggregator.Aggregate(records, dims...)
	if err != nil {
		return models.CohortStatistics{}, err
	}
	s.metrics.ObserveAggregation(dims, time.Since(start))
	s.logger.Debug("statistics computed",
		zap.Int("records", stats.RecordCount),
		zap.Int("groups", len(stats.Groups)),
		zap.Duration("took", time.Since(start)),
	)
	return stats, nil
}

// Invalidate drops every cached aggregate of the current standard version.
func (s *StatisticsService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, fmt.Sprintf("statistics:%s:*", s.version))
}

func (s *StatisticsService) cacheKey(records []models.ScoredRecord, dims []models.Dimension) (string, error) {
	payload, err := json.Marshal(struct {
		Dimensions []models.Dimension    `json:"d"`
		Records    []models.ScoredRecord `json:"r"`
	}{dims, records})
	if err != nil {
		return "", fmt.Errorf("encode statistics cache key: %w", err)
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("statistics:%s:%s", s.version, hex.EncodeToString(sum[:])), nil
}
