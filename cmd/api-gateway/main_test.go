package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jigu1688/sporttools-sub001/internal/dto"
	"github.com/jigu1688/sporttools-sub001/internal/models"
	"github.com/jigu1688/sporttools-sub001/internal/repository"
	"github.com/jigu1688/sporttools-sub001/internal/service"
	"github.com/jigu1688/sporttools-sub001/pkg/config"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:        config.EnvDevelopment,
		APIPrefix:  "/api/v1",
		Standards:  config.StandardsConfig{Source: config.SourceEmbedded},
		Scoring:    config.ScoringConfig{Workers: 2, MaxBatchSize: 100},
		Statistics: config.StatisticsConfig{Workers: 2},
	}
	set, err := loadStandard(context.Background(), cfg)
	require.NoError(t, err)
	ref, err := service.NewReferenceData(set, zap.NewNop())
	require.NoError(t, err)

	cacheRepo := repository.NewCacheRepository(nil, "test", zap.NewNop())
	a := newApp(cfg, ref, service.NewMetricsService(), cacheRepo, false, zap.NewNop())
	return a.router(nil)
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func perform(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestScoreEndpointWithEmbeddedStandard(t *testing.T) {
	r := newTestRouter(t)

	w, env := perform(t, r, http.MethodPost, "/api/v1/scores", dto.MeasurementRecord{
		StudentID:    "s-1",
		ClassID:      "1-1",
		Grade:        "一年级",
		Gender:       "male",
		Measurements: map[string]float64{"run_50m": 11.05},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rec models.ScoredRecord
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, float64(80), rec.TotalScore)
	assert.Equal(t, models.GradeGood, rec.GradeLevel)
	assert.Equal(t, 11.1, rec.Items["run_50m"].LookupValue)
	assert.Equal(t, []string{"bmi", "vital_capacity", "sit_and_reach", "rope_skip"}, rec.Exempt)
	assert.Equal(t, "national-2014-primary", env.Meta["standard_version"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestScoreEndpointRejectsInvalidPayload(t *testing.T) {
	r := newTestRouter(t)

	w, env := perform(t, r, http.MethodPost, "/api/v1/scores", map[string]interface{}{"grade": "一年级"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error["code"])
}

func TestItemsEndpointFiltersByCohort(t *testing.T) {
	r := newTestRouter(t)

	query := url.Values{"grade": {"三年级"}, "gender": {"female"}}
	w, env := perform(t, r, http.MethodGet, "/api/v1/items?"+query.Encode(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var items []models.TestItemDefinition
	require.NoError(t, json.Unmarshal(env.Data, &items))
	codes := make([]string, len(items))
	for i, item := range items {
		codes[i] = item.Code
	}
	assert.Contains(t, codes, "sit_ups")
	assert.NotContains(t, codes, "height")
	assert.NotContains(t, codes, "shuttle_run_50x8")

	w, _ = perform(t, r, http.MethodGet, "/api/v1/items/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatisticsEndpointScoresMeasurements(t *testing.T) {
	r := newTestRouter(t)

	req := dto.StatisticsRequest{
		Dimensions: []string{"class"},
		Measurements: []dto.MeasurementRecord{
			{StudentID: "a", ClassID: "1-1", Grade: "一年级", Gender: "male", Measurements: map[string]float64{"run_50m": 10.2}},
			{StudentID: "b", ClassID: "1-1", Grade: "一年级", Gender: "male", Measurements: map[string]float64{"run_50m": 11.05}},
		},
	}
	w, env := perform(t, r, http.MethodPost, "/api/v1/statistics", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.StatisticsResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Statistics.Groups, 1)
	assert.Equal(t, 2, resp.Statistics.Groups[0].Count)
	assert.Equal(t, float64(90), resp.Statistics.Groups[0].Average)
	assert.Equal(t, false, env.Meta["cache_hit"])
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w, _ := perform(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "national-2014-primary")
}

func TestLoadStandardFromMissingFile(t *testing.T) {
	cfg := &config.Config{Standards: config.StandardsConfig{Source: config.SourceFile, File: filepath.Join(t.TempDir(), "absent.yaml")}}

	_, err := loadStandard(context.Background(), cfg)
	assert.Error(t, err)
}
