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

	"github.com/openscholia/sms-api/internal/handler"
	"github.com/openscholia/sms-api/internal/middleware"
	"github.com/openscholia/sms-api/internal/models"
	"github.com/openscholia/sms-api/internal/repository"
	"github.com/openscholia/sms-api/internal/service"
	"github.com/openscholia/sms-api/pkg/cache"
	"github.com/openscholia/sms-api/pkg/config"
	"github.com/openscholia/sms-api/pkg/database"
	"github.com/openscholia/sms-api/pkg/logger"
	corsmiddleware "github.com/openscholia/sms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/openscholia/sms-api/pkg/middleware/requestid"
	"github.com/openscholia/sms-api/pkg/storage"
)

// importStore adapts the session repository to the import pipeline, which
// only needs the transactional surface.
type importStore struct {
	repo *repository.SessionRepository
}

func (s importStore) Begin(ctx context.Context) (service.ImportTx, error) {
	return s.repo.Begin(ctx)
}

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, falling back to in-process cache", "error", err)
		redisClient = nil
		cacheRepo = cache.NewMemoryStore(cfg.Analytics.CacheSize)
	} else {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Analytics.CacheTTL, logr, true)

	vault, err := storage.NewBackupVault(cfg.Backups.Dir)
	if err != nil {
		logr.Sugar().Fatalw("backup vault init failed", "error", err)
	}
	reportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("report storage init failed", "error", err)
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	performanceRepo := repository.NewPerformanceRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	highlightRepo := repository.NewHighlightRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, cacheSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, courseRepo, cacheSvc, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, validate, logr)

	calculator := service.NewGradeCalculator()
	gradebookSvc := service.NewGradebookService(studentRepo, courseRepo, gradeRepo, performanceRepo, attendanceRepo, calculator, cacheSvc, metrics, logr)
	summarySvc := service.NewSummaryService(studentRepo, enrollmentRepo, courseRepo, gradeRepo, performanceRepo, attendanceRepo, calculator, cacheSvc, metrics, logr)
	analyticsSvc := service.NewAnalyticsService(studentRepo, courseRepo, gradeRepo, cacheSvc, metrics, logr)
	comparisonSvc := service.NewComparisonService(courseRepo, enrollmentRepo, studentRepo, gradeRepo, cacheSvc, metrics, logr)

	backupSvc := service.NewBackupService(sessionRepo, vault, cacheSvc, metrics, logr)
	exportSvc := service.NewExportService(sessionRepo, highlightRepo, metrics, logr)
	importSvc := service.NewImportService(importStore{repo: sessionRepo}, backupSvc, cacheSvc, metrics, logr, cfg.Sessions.MaxImportErrors, cfg.Sessions.MaxRollbackError)
	reportSvc := service.NewReportService(summarySvc, comparisonSvc, reportStorage, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	analyticsHandler := handler.NewAnalyticsHandler(gradebookSvc, summarySvc, analyticsSvc, comparisonSvc)
	sessionHandler := handler.NewSessionHandler(exportSvc, importSvc)
	backupHandler := handler.NewBackupHandler(backupSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	auth := api.Group("")
	auth.Use(middleware.JWT(authSvc))
	auth.GET("/auth/me", authHandler.Me)
	auth.GET("/metrics/stats", middleware.RBAC(string(models.RoleAdmin)), metricsHandler.Stats)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	students := auth.Group("/students")
	students.GET("", staff, studentHandler.List)
	students.GET("/:id", staff, studentHandler.Get)
	students.POST("", staff, studentHandler.Create)
	students.PUT("/:id", staff, studentHandler.Update)
	students.DELETE("/:id", adminOnly, studentHandler.Delete)
	students.GET("/:id/enrollments", staff, enrollmentHandler.List)
	students.GET("/:id/enrollments/:courseID", staff, enrollmentHandler.Get)
	students.POST("/:id/enrollments", staff, enrollmentHandler.Create)

	courses := auth.Group("/courses")
	courses.GET("", staff, courseHandler.List)
	courses.GET("/:id", staff, courseHandler.Get)
	courses.POST("", staff, courseHandler.Create)
	courses.PUT("/:id", staff, courseHandler.Update)
	courses.DELETE("/:id", adminOnly, courseHandler.Delete)

	analytics := auth.Group("/analytics")
	analytics.Use(middleware.WithResponseMeta())
	analytics.GET("/students/:id/final-grade", staff, analyticsHandler.FinalGrade)
	analytics.GET("/students/:id/summary", middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), middleware.AllowSelf), analyticsHandler.Summary)
	analytics.GET("/students/:id/performance", staff, analyticsHandler.Performance)
	analytics.GET("/students/:id/trends", staff, analyticsHandler.Trends)
	analytics.GET("/courses/:id/comparison", staff, analyticsHandler.Comparison)
	analytics.GET("/courses/:id/distribution", staff, analyticsHandler.Distribution)

	sessions := auth.Group("/sessions")
	sessions.GET("/export", staff, sessionHandler.Export)
	sessions.POST("/import", adminOnly, bodyLimit(cfg.Sessions.MaxPackageBytes), sessionHandler.Import)

	backups := auth.Group("/backups", adminOnly)
	backups.GET("", backupHandler.List)
	backups.POST("/rollback", backupHandler.Rollback)

	reports := auth.Group("/reports", staff)
	reports.GET("/students/:id/transcript", reportHandler.Transcript)
	reports.GET("/courses/:id/comparison", reportHandler.Comparison)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}

func bodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
