package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jigu1688/sporttools-sub001/internal/models"
	appErrors "github.com/jigu1688/sporttools-sub001/pkg/errors"
)

// BatchResult holds scored records in input order plus whole-record failures.
type BatchResult struct {
	BatchID  string                `json:"batch_id"`
	Records  []models.ScoredRecord `json:"records"`
	Failures []models.BatchFailure `json:"failures,omitempty"`
}

// RecordScorer drives the resolver across the applicable items of a record.
type RecordScorer struct {
	ref      *ReferenceData
	resolver *ScoreResolver
	metrics  *MetricsService
	logger   *zap.Logger
	workers  int
}

// NewRecordScorer constructs a scorer. workers bounds ScoreBatch concurrency.
func NewRecordScorer(ref *ReferenceData, metrics *MetricsService, logger *zap.Logger, workers int) *RecordScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 4
	}
	return &RecordScorer{ref: ref, resolver: NewScoreResolver(ref), metrics: metrics, logger: logger, workers: workers}
}

// Reference returns the reference data the scorer was built with.
func (s *RecordScorer) Reference() *ReferenceData {
	return s.ref
}

// Score produces the scored record. Per-item failures are annotated on the
// result; only a cohort with no catalog items fails the whole record.
func (s *RecordScorer) Score(record models.TestRecord) (models.ScoredRecord, error) {
	start := time.Now()
	items, err := s.ref.Catalog.ApplicableItems(record.Grade, record.Gender, record.SchoolStage)
	if err != nil {
		return models.ScoredRecord{}, err
	}

	scored := models.ScoredRecord{
		StudentID:       record.StudentID,
		ClassID:         record.ClassID,
		Grade:           record.Grade,
		Gender:          record.Gender,
		SchoolStage:     record.SchoolStage,
		TestDate:        record.TestDate,
		StandardVersion: s.ref.Version,
		PerItemScore:    make(map[string]float64, len(items)),
		Items:           make(map[string]models.ItemScore, len(items)),
	}

	var weightedSum, weightSum float64
	for _, item := range items {
		value, measured := measurementFor(item, record.Measurements)
		if !measured {
			scored.Exempt = append(scored.Exempt, item.Code)
			s.metrics.ObserveItem(item.Code, "exempt")
			continue
		}
		result, err := s.resolver.Resolve(ResolveRequest{
			ItemCode:     item.Code,
			Value:        value,
			Gender:       record.Gender,
			Grade:        record.Grade,
			SchoolStage:  record.SchoolStage,
			Measurements: record.Measurements,
		})
		if err != nil {
			appErr := appErrors.FromError(err)
			if scored.Errors == nil {
				scored.Errors = make(map[string]models.ItemError)
			}
			scored.Errors[item.Code] = models.ItemError{Code: appErr.Code, Reason: appErr.Error()}
			s.metrics.ObserveItem(item.Code, appErr.Code)
			s.logger.Debug("item not scored",
				zap.String("student_id", record.StudentID),
				zap.String("item", item.Code),
				zap.Error(err),
			)
			continue
		}
		s.metrics.ObserveItem(item.Code, "scored")
		scored.Items[item.Code] = result
		scored.PerItemScore[item.Code] = result.Score

		if item.ItemType == models.ItemBonusOnly {
			scored.ExtraScore += result.BonusPoints
			continue
		}
		weight := item.WeightFor(record.Grade)
		weightedSum += result.Score * weight
		weightSum += weight
	}

	scored.ScoredWeight = weightSum
	scored.TotalScore = roundTo(scored.ExtraScore, 2)
	if weightSum > 0 {
		// dividing by the weight actually scored renormalises exempted items away
		scored.TotalScore = roundTo(weightedSum/weightSum+scored.ExtraScore, 2)
		scored.GradeLevel = models.ClassifyScore(scored.TotalScore)
	}
	s.metrics.ObserveRecord(time.Since(start))
	return scored, nil
}

// ScoreBatch scores records concurrently, preserving input order.
func (s *RecordScorer) ScoreBatch(ctx context.Context, records []models.TestRecord) (*BatchResult, error) {
	result := &BatchResult{BatchID: uuid.NewString(), Records: make([]models.ScoredRecord, len(records))}
	failed := make([]*models.BatchFailure, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range records {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scored, err := s.Score(records[i])
			if err != nil {
				appErr := appErrors.FromError(err)
				failed[i] = &models.BatchFailure{Index: i, StudentID: records[i].StudentID, Code: appErr.Code, Reason: appErr.Error()}
				return nil
			}
			result.Records[i] = scored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := result.Records[:0]
	for i, rec := range result.Records {
		if failed[i] != nil {
			result.Failures = append(result.Failures, *failed[i])
			continue
		}
		kept = append(kept, rec)
	}
	result.Records = kept
	s.logger.Info("batch scored",
		zap.String("batch_id", result.BatchID),
		zap.Int("records", len(records)),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

// measurementFor reports the raw value of an item and whether it was measured.
// A composite item counts as measured when any prerequisite is present, so a
// half-measured BMI surfaces as a missing dependency rather than an exemption.
func measurementFor(item models.TestItemDefinition, measurements map[string]float64) (float64, bool) {
	if item.Composite() {
		for _, dep := range item.DependsOn {
			if _, ok := measurements[dep]; ok {
				return 0, true
			}
		}
		return 0, false
	}
	value, ok := measurements[item.Code]
	return value, ok
}
