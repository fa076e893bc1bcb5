package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jigu1688/sporttools-sub001/internal/models"
	appErrors "github.com/jigu1688/sporttools-sub001/pkg/errors"
)

type memoryCacheRepo struct {
	store    map[string][]byte
	gets     int
	patterns []string
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.gets++
	payload, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.store {
		if strings.HasPrefix(key, prefix) {
			delete(m.store, key)
		}
	}
	return nil
}

func newStatisticsService(repo CacheRepository, enabled bool) *StatisticsService {
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), enabled)
	return NewStatisticsService(NewAggregator(2), cache, metrics, zap.NewNop(), "fixture-v1")
}

func statisticsRecords() []models.ScoredRecord {
	return []models.ScoredRecord{
		scoredRecord("c1", models.GenderMale, 91),
		scoredRecord("c1", models.GenderFemale, 64),
		scoredRecord("c2", models.GenderMale, 83),
	}
}

func TestStatisticsServiceCachesAggregates(t *testing.T) {
	repo := &memoryCacheRepo{}
	svc := newStatisticsService(repo, true)
	ctx := context.Background()
	dims := []models.Dimension{models.DimensionClass}

	first, hit, err := svc.Aggregate(ctx, statisticsRecords(), dims)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, repo.store, 1)
	for key := range repo.store {
		assert.True(t, strings.HasPrefix(key, "statistics:fixture-v1:"))
	}

	second, hit, err := svc.Aggregate(ctx, statisticsRecords(), dims)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)

	_, hit, err = svc.Aggregate(ctx, statisticsRecords(), []models.Dimension{models.DimensionGender})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, repo.store, 2)
}

func TestStatisticsServiceCacheDisabled(t *testing.T) {
	repo := &memoryCacheRepo{}
	svc := newStatisticsService(repo, false)

	for i := 0; i < 2; i++ {
		_, hit, err := svc.Aggregate(context.Background(), statisticsRecords(), []models.Dimension{models.DimensionGrade})
		require.NoError(t, err)
		assert.False(t, hit)
	}
	assert.Zero(t, repo.gets)
	assert.Empty(t, repo.store)
}

func TestStatisticsServicePropagatesValidation(t *testing.T) {
	svc := newStatisticsService(&memoryCacheRepo{}, true)

	_, _, err := svc.Aggregate(context.Background(), statisticsRecords(), []models.Dimension{"school"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestStatisticsServiceInvalidate(t *testing.T) {
	repo := &memoryCacheRepo{}
	svc := newStatisticsService(repo, true)
	ctx := context.Background()

	_, _, err := svc.Aggregate(ctx, statisticsRecords(), []models.Dimension{models.DimensionClass})
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx))

	assert.Equal(t, []string{"statistics:fixture-v1:*"}, repo.patterns)
	assert.Empty(t, repo.store)
}

func TestStatisticsServiceWithoutRepository(t *testing.T) {
	svc := newStatisticsService(nil, true)

	stats, hit, err := svc.Aggregate(context.Background(), statisticsRecords(), []models.Dimension{models.DimensionClass})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, stats.Groups, 2)
	assert.NoError(t, svc.Invalidate(context.Background()))
}

type brokenCacheRepo struct{}

func (brokenCacheRepo) Get(context.Context, string, interface{}) error {
	return errors.New("connection refused")
}

func (brokenCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenCacheRepo) DeleteByPattern(context.Context, string) error {
	return errors.New("connection refused")
}

func TestStatisticsServiceSurvivesCacheOutage(t *testing.T) {
	svc := newStatisticsService(brokenCacheRepo{}, true)

	stats, hit, err := svc.Aggregate(context.Background(), statisticsRecords(), []models.Dimension{models.DimensionClass})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, stats.Groups, 2)
	assert.Error(t, svc.Invalidate(context.Background()))
}
