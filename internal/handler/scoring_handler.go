package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jigu1688/sporttools-sub001/internal/dto"
	"github.com/jigu1688/sporttools-sub001/internal/middleware"
	"github.com/jigu1688/sporttools-sub001/internal/models"
	"github.com/jigu1688/sporttools-sub001/internal/service"
	appErrors "github.com/jigu1688/sporttools-sub001/pkg/errors"
	"github.com/jigu1688/sporttools-sub001/pkg/response"
)

type scoringService interface {
	Version() string
	Items(ctx context.Context, query dto.ItemQuery) ([]models.TestItemDefinition, error)
	Item(ctx context.Context, code string) (models.TestItemDefinition, error)
	Score(ctx context.Context, req dto.MeasurementRecord) (models.ScoredRecord, error)
	ScoreBatch(ctx context.Context, req dto.BatchScoreRequest) (*service.BatchResult, error)
	Statistics(ctx context.Context, req dto.StatisticsRequest) (*dto.StatisticsResponse, bool, error)
}

// ScoringHandler exposes catalog lookup, scoring and cohort statistics.
type ScoringHandler struct {
	service scoringService
}

// NewScoringHandler builds a new handler.
func NewScoringHandler(service scoringService) *ScoringHandler {
	return &ScoringHandler{service: service}
}

// Items godoc
// @Summary List test items
// @Description Lists the catalog, or the scored items tested for a grade and gender when both are given.
// @Tags Catalog
// @Produce json
// @Param grade query string false "Grade"
// @Param gender query string false "Gender" Enums(male, female)
// @Param stage query string false "School stage" Enums(primary, middle, high)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /items [get]
func (h *ScoringHandler) Items(c *gin.Context) {
	var query dto.ItemQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid item query"))
		return
	}
	items, err := h.service.Items(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, items)
}

// Item godoc
// @Summary Get a test item
// @Tags Catalog
// @Produce json
// @Param code path string true "Item code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /items/{code} [get]
func (h *ScoringHandler) Item(c *gin.Context) {
	item, err := h.service.Item(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, item)
}

// Score godoc
// @Summary Score one test record
// @Description Items that cannot be scored are reported under errors; unmeasured items are listed as exempt.
// @Tags Scoring
// @Accept json
// @Produce json
// @Param payload body dto.MeasurementRecord true "Test record"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scores [post]
func (h *ScoringHandler) Score(c *gin.Context) {
	var req dto.MeasurementRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid record payload"))
		return
	}
	scored, err := h.service.Score(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, scored)
}

// ScoreBatch godoc
// @Summary Score a batch of test records
// @Tags Scoring
// @Accept json
// @Produce json
// @Param payload body dto.BatchScoreRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scores/batch [post]
func (h *ScoringHandler) ScoreBatch(c *gin.Context) {
	var req dto.BatchScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	result, err := h.service.ScoreBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, result)
}

// Statistics godoc
// @Summary Aggregate cohort statistics
// @Description Groups scored records, or raw measurements scored on the fly, by grade, class, gender or item.
// @Tags Statistics
// @Accept json
// @Produce json
// @Param payload body dto.StatisticsRequest true "Statistics payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /statistics [post]
func (h *ScoringHandler) Statistics(c *gin.Context) {
	var req dto.StatisticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid statistics payload"))
		return
	}
	result, cacheHit, err := h.service.Statistics(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	h.respond(c, http.StatusOK, result)
}

func (h *ScoringHandler) respond(c *gin.Context, status int, data interface{}) {
	middleware.SetStandardVersion(c, h.service.Version())
	response.JSON(c, status, data, middleware.ExtractMeta(c))
}
