package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jigu1688/sporttools-sub001/internal/dto"
	"github.com/jigu1688/sporttools-sub001/internal/models"
	appErrors "github.com/jigu1688/sporttools-sub001/pkg/errors"
)

// ScoringService validates API payloads and fronts the scorer, the catalog
// and the statistics pipeline.
type ScoringService struct {
	scorer    *RecordScorer
	stats     *StatisticsService
	validator *validator.Validate
	maxBatch  int
	logger    *zap.Logger
}

// NewScoringService wires the request-facing service. maxBatch caps records
// per batch or statistics request.
func NewScoringService(scorer *RecordScorer, stats *StatisticsService, validate *validator.Validate, maxBatch int, logger *zap.Logger) *ScoringService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBatch <= 0 {
		maxBatch = 5000
	}
	return &ScoringService{scorer: scorer, stats: stats, validator: validate, maxBatch: maxBatch, logger: logger}
}

// Version returns the standard revision in use.
func (s *ScoringService) Version() string {
	return s.scorer.Reference().Version
}

// Items lists catalog items, optionally narrowed to a cohort.
func (s *ScoringService) Items(_ context.Context, query dto.ItemQuery) ([]models.TestItemDefinition, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid item query")
	}
	catalog := s.scorer.Reference().Catalog
	if query.Grade == "" && query.Gender == "" {
		return catalog.Items(), nil
	}
	if query.Grade == "" || query.Gender == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade and gender must be given together")
	}
	return catalog.ApplicableItems(query.Grade, models.Gender(query.Gender), models.SchoolStage(query.Stage))
}

// Item returns a single catalog definition.
func (s *ScoringService) Item(_ context.Context, code string) (models.TestItemDefinition, error) {
	return s.scorer.Reference().Catalog.Item(code)
}

// Score scores one record.
func (s *ScoringService) Score(_ context.Context, req dto.MeasurementRecord) (models.ScoredRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ScoredRecord{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid record")
	}
	return s.scorer.Score(req.ToModel())
}

// ScoreBatch scores a batch; records failing as a whole are reported, not fatal.
func (s *ScoringService) ScoreBatch(ctx context.Context, req dto.BatchScoreRequest) (*BatchResult, error) {
	if len(req.Records) > s.maxBatch {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "batch of %d records exceeds limit %d", len(req.Records), s.maxBatch)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch")
	}
	return s.scorer.ScoreBatch(ctx, toModels(req.Records))
}

// Statistics aggregates the request's records. The boolean reports a cache hit.
func (s *ScoringService) Statistics(ctx context.Context, req dto.StatisticsRequest) (*dto.StatisticsResponse, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid statistics request")
	}
	if len(req.Records) > 0 && len(req.Measurements) > 0 {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "supply either records or measurements, not both")
	}
	if n := len(req.Records) + len(req.Measurements); n > s.maxBatch {
		return nil, false, appErrors.Clonef(appErrors.ErrValidation, "statistics over %d records exceeds limit %d", n, s.maxBatch)
	}

	resp := &dto.StatisticsResponse{}
	records := req.Records
	if len(req.Measurements) > 0 {
		batch, err := s.scorer.ScoreBatch(ctx, toModels(req.Measurements))
		if err != nil {
			return nil, false, err
		}
		records = batch.Records
		resp.Failures = batch.Failures
	}

	dims := make([]models.Dimension, len(req.Dimensions))
	for i, d := range req.Dimensions {
		dims[i] = models.Dimension(d)
	}
	stats, hit, err := s.stats.Aggregate(ctx, records, dims)
	if err != nil {
		return nil, false, err
	}
	resp.Statistics = stats
	return resp, hit, nil
}

func toModels(in []dto.MeasurementRecord) []models.TestRecord {
	out := make([]models.TestRecord, len(in))
	for i, r := range in {
		out[i] = r.ToModel()
	}
	return out
}
