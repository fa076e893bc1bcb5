package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jigu1688/sporttools-sub001/internal/models"
)

func TestMetricsSnapshotCounters(t *testing.T) {
	m := NewMetricsService()
	m.ObserveItem("run_50m", "scored")
	m.ObserveItem("bmi", "exempt")
	m.ObserveItem("sit_ups", "OUT_OF_RANGE")
	m.ObserveRecord(2 * time.Millisecond)
	m.ObserveAggregation([]models.Dimension{models.DimensionGender, models.DimensionGrade}, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RecordsScored)
	assert.Equal(t, uint64(1), snap.ItemsScored)
	assert.Equal(t, uint64(1), snap.ItemErrors)
	assert.Equal(t, uint64(1), snap.Aggregations)
	assert.Equal(t, 0.5, snap.CacheHitRatio)
	assert.InDelta(t, 2000, snap.AverageRecordMicros, 1)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveItem("run_50m", "scored")
	m.ObserveRecord(time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}

func TestDimensionLabelIsOrderIndependent(t *testing.T) {
	a := dimensionLabel([]models.Dimension{models.DimensionGrade, models.DimensionClass})
	b := dimensionLabel([]models.Dimension{models.DimensionClass, models.DimensionGrade})
	assert.Equal(t, "class,grade", a)
	assert.Equal(t, a, b)
}
