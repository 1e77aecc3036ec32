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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/chapter-participation-api/api/swagger"
	"github.com/noah-isme/chapter-participation-api/internal/handler"
	"github.com/noah-isme/chapter-participation-api/internal/middleware"
	"github.com/noah-isme/chapter-participation-api/internal/repository"
	"github.com/noah-isme/chapter-participation-api/internal/service"
	"github.com/noah-isme/chapter-participation-api/pkg/cache"
	"github.com/noah-isme/chapter-participation-api/pkg/config"
	"github.com/noah-isme/chapter-participation-api/pkg/database"
	"github.com/noah-isme/chapter-participation-api/pkg/jobs"
	"github.com/noah-isme/chapter-participation-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/chapter-participation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/chapter-participation-api/pkg/middleware/requestid"
	"github.com/noah-isme/chapter-participation-api/pkg/storage"
)

// @title Chapter Participation API
// @version 1.0.0
// @description Roster, participation statistics and add-student composition for a student chapter
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const maxImportRows = 5000

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	app, err := build(cfg, db, redisClient, logr)
	if err != nil {
		logr.Fatal("failed to assemble services", zap.Error(err))
	}

	app.backups.Start(ctx)
	defer app.backups.Stop()

	go func() {
		if err := app.notifier.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logr.Warn("roster change listener stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

type application struct {
	router   *gin.Engine
	notifier *service.RosterNotifier
	backups  *jobs.Queue
}

func build(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*application, error) {
	metrics := service.NewMetricsService()
	validate := validator.New()

	students := repository.NewStudentRepository(db)

	var notifier *service.RosterNotifier
	if redisClient != nil {
		notifier = service.NewRosterNotifier(repository.NewRosterChannelRepository(redisClient, cfg.Redis.Channel, logr), metrics, logr)
	} else {
		notifier = service.NewRosterNotifier(nil, metrics, logr)
	}

	var statsCacheRepo service.CacheRepository = repository.NewMemorySessionRepository()
	if redisClient != nil {
		statsCacheRepo = repository.NewCacheRepository(redisClient, "chapter:", logr)
	}
	statsCache := service.NewCacheService(statsCacheRepo, metrics, cfg.Statistics.CacheTTL, logr, cfg.Statistics.CacheEnabled)

	var sessions service.CacheRepository = repository.NewMemorySessionRepository()
	if cfg.Compositions.Store == config.CompositionStoreRedis {
		if redisClient == nil {
			return nil, errors.New("COMPOSITION_STORE=redis requires REDIS_ENABLED=true")
		}
		sessions = repository.NewCacheRepository(redisClient, "chapter:", logr)
	}

	exportsDir, err := storage.NewLocalStorage(cfg.Exports.Dir)
	if err != nil {
		return nil, err
	}
	backupsDir, err := storage.NewLocalStorage(cfg.Backups.Dir)
	if err != nil {
		return nil, err
	}

	dbName := database.Filename(cfg.Database)
	studentSvc := service.NewStudentService(students, notifier, validate, logr)
	statsSvc := service.NewStatisticsService(students, statsCache, metrics, logr)
	notifier.Subscribe(statsSvc.Invalidate)
	compositionSvc := service.NewCompositionService(sessions, studentSvc, cfg.Compositions.SessionTTL, cfg.Compositions.MaxDrafts, metrics, logr)
	transferSvc := service.NewRosterTransferService(students, students, notifier, exportsDir, service.RosterTransferConfig{DatabaseName: dbName, MaxImportRows: maxImportRows}, metrics, logr)
	backupSvc := service.NewBackupService(func(ctx context.Context, destination string) error {
		return database.Backup(ctx, db, destination)
	}, backupsDir, service.BackupConfig{DatabaseName: dbName, Driver: cfg.Database.Driver}, metrics, logr)
	backupQueue := jobs.NewQueue("backups", backupSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Backups.Workers,
		MaxRetries: cfg.Backups.Retries,
		RetryDelay: cfg.Backups.RetryDelay,
		Logger:     logr,
	})
	backupSvc.AttachQueue(backupQueue)

	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		Username:          cfg.Auth.Username,
		PasswordHash:      cfg.Auth.PasswordHash,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, students)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.JWT(authSvc))
		protected.GET("/auth/me", authHandler.Me)
	}
	protected.Use(middleware.Audit(logr))
	registerRoutes(protected, routeHandlers{
		students:     handler.NewStudentHandler(studentSvc),
		statistics:   handler.NewStatisticsHandler(statsSvc),
		compositions: handler.NewCompositionHandler(compositionSvc),
		roster:       handler.NewRosterHandler(transferSvc),
		backups:      handler.NewBackupHandler(backupSvc),
	})

	return &application{router: r, notifier: notifier, backups: backupQueue}, nil
}

type routeHandlers struct {
	students     *handler.StudentHandler
	statistics   *handler.StatisticsHandler
	compositions *handler.CompositionHandler
	roster       *handler.RosterHandler
	backups      *handler.BackupHandler
}

func registerRoutes(rg *gin.RouterGroup, h routeHandlers) {
	students := rg.Group("/students")
	students.GET("", h.students.List)
	students.POST("", h.students.Create)
	students.GET("/table", h.students.Table)
	students.POST("/winner", h.students.Winner)
	students.GET("/:id/points", h.students.Points)
	students.POST("/:id/events", h.students.AddEvent)
	students.DELETE("/:id", h.students.Delete)

	rg.GET("/statistics", h.statistics.Get)

	compositions := rg.Group("/compositions")
	compositions.POST("", h.compositions.Open)
	compositions.GET("/:id", h.compositions.Get)
	compositions.DELETE("/:id", h.compositions.Close)
	compositions.PUT("/:id/student", h.compositions.SetStudent)
	compositions.POST("/:id/drafts", h.compositions.AddDraft)
	compositions.PATCH("/:id/drafts/:draftId", h.compositions.EditField)
	compositions.DELETE("/:id/drafts/:draftId", h.compositions.RemoveDraft)
	compositions.POST("/:id/reset", h.compositions.Reset)
	compositions.POST("/:id/submit", h.compositions.Submit)

	roster := rg.Group("/roster")
	roster.POST("/import", h.roster.Import)
	roster.GET("/export.csv", h.roster.ExportCSV)
	roster.GET("/export.pdf", h.roster.ExportPDF)

	rg.POST("/backups", h.backups.Create)
	rg.GET("/backups", h.backups.List)
	rg.GET("/backups/jobs/:id", h.backups.Status)
	rg.GET("/database", h.backups.Database)
}
