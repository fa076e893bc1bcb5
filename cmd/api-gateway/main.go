package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/jigu1688/sporttools-sub001/api/swagger"
	"github.com/jigu1688/sporttools-sub001/internal/handler"
	"github.com/jigu1688/sporttools-sub001/internal/middleware"
	"github.com/jigu1688/sporttools-sub001/internal/models"
	"github.com/jigu1688/sporttools-sub001/internal/repository"
	"github.com/jigu1688/sporttools-sub001/internal/service"
	"github.com/jigu1688/sporttools-sub001/pkg/cache"
	"github.com/jigu1688/sporttools-sub001/pkg/config"
	"github.com/jigu1688/sporttools-sub001/pkg/database"
	"github.com/jigu1688/sporttools-sub001/pkg/logger"
	corsmiddleware "github.com/jigu1688/sporttools-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/jigu1688/sporttools-sub001/pkg/middleware/requestid"
	"github.com/jigu1688/sporttools-sub001/pkg/standards"
)

// @title Sporttools Fitness Scoring API
// @version 1.0.0
// @description Scores student physical fitness tests and aggregates cohort statistics
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	set, err := loadStandard(ctx, cfg)
	if err != nil {
		logr.Fatal("load standard", zap.Error(err))
	}
	ref, err := service.NewReferenceData(set, logr)
	if err != nil {
		logr.Fatal("invalid standard", zap.String("version", set.Version), zap.Error(err))
	}

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.Statistics.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("statistics cache disabled", zap.Error(err))
		} else {
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, cfg.Redis.Namespace, logr)
	defer cacheRepo.Close() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	app := newApp(cfg, ref, metrics, cacheRepo, redisClient != nil, logr)
	if err := app.stats.Invalidate(ctx); err != nil {
		logr.Warn("invalidate statistics cache", zap.Error(err))
	}
	r := app.router(checks)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("standard_version", ref.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("shutdown", zap.Error(err))
	}
	logr.Info("server stopped")
}

// loadStandard reads the reference dataset from the configured source.
func loadStandard(ctx context.Context, cfg *config.Config) (models.StandardSet, error) {
	switch cfg.Standards.Source {
	case config.SourceFile:
		return standards.LoadFile(cfg.Standards.File)
	case config.SourcePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return models.StandardSet{}, err
		}
		defer db.Close()
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(db.DB); err != nil {
				return models.StandardSet{}, err
			}
		}
		return repository.NewStandardRepository(db).Load(ctx, cfg.Standards.Version)
	default:
		return standards.Default()
	}
}

type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *service.MetricsService
	scoring *service.ScoringService
	stats   *service.StatisticsService
	version string
}

func newApp(cfg *config.Config, ref *service.ReferenceData, metrics *service.MetricsService, cacheRepo service.CacheRepository, cacheEnabled bool, logr *zap.Logger) *app {
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Statistics.CacheTTL, logr, cacheEnabled)
	scorer := service.NewRecordScorer(ref, metrics, logr, cfg.Scoring.Workers)
	stats := service.NewStatisticsService(service.NewAggregator(cfg.Statistics.Workers), cacheSvc, metrics, logr, ref.Version)
	return &app{
		cfg:     cfg,
		logger:  logr,
		metrics: metrics,
		scoring: service.NewScoringService(scorer, stats, validator.New(), cfg.Scoring.MaxBatchSize, logr),
		stats:   stats,
		version: ref.Version,
	}
}

func (a *app) router(checks map[string]handler.ReadinessCheck) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.logger))
	r.Use(corsmiddleware.New(a.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.metrics))

	metricsHandler := handler.NewMetricsHandler(a.metrics, a.version, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/snapshot", metricsHandler.Snapshot)

	if a.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	scoringHandler := handler.NewScoringHandler(a.scoring)
	api := r.Group(a.cfg.APIPrefix, middleware.WithResponseMeta())
	api.GET("/items", scoringHandler.Items)
	api.GET("/items/:code", scoringHandler.Item)
	api.POST("/scores", scoringHandler.Score)
	api.POST("/scores/batch", scoringHandler.ScoreBatch)
	api.POST("/statistics", scoringHandler.Statistics)

	return r
}
