package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/forhay123/haybee-edu-sub012/api/swagger"
	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/handler"
	"github.com/forhay123/haybee-edu-sub012/internal/middleware"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	"github.com/forhay123/haybee-edu-sub012/internal/repository"
	"github.com/forhay123/haybee-edu-sub012/internal/service"
	"github.com/forhay123/haybee-edu-sub012/pkg/cache"
	"github.com/forhay123/haybee-edu-sub012/pkg/config"
	"github.com/forhay123/haybee-edu-sub012/pkg/database"
	"github.com/forhay123/haybee-edu-sub012/pkg/jobs"
	"github.com/forhay123/haybee-edu-sub012/pkg/logger"
	corsmiddleware "github.com/forhay123/haybee-edu-sub012/pkg/middleware/cors"
	reqidmiddleware "github.com/forhay123/haybee-edu-sub012/pkg/middleware/requestid"
)

// @title Haybee Schedule Engine API
// @version 0.1.0
// @description Individual-student schedule engine
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	termRepo := repository.NewTermRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	scheduleRepo := repository.NewScheduleEntryRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	topicRepo := repository.NewTopicRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	windowCalc := service.NewWindowCalculator(cfg.Assessment)
	calendarSvc := service.NewCalendarService(holidayRepo, termRepo, nil, logr)
	conflictSvc := service.NewConflictService(db, timetableRepo, nil, logr)
	topicSvc := service.NewTopicService(db, scheduleRepo, topicRepo, progressRepo, windowCalc, cfg.Suggestions, nil, logr)
	generatorSvc := service.NewGeneratorService(db, scheduleRepo, progressRepo, timetableRepo, termRepo, calendarSvc, topicRepo, windowCalc, cfg.Generator, nil, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, progressRepo, topicRepo, termRepo, logr)
	repairSvc := service.NewRepairService(db, scheduleRepo, progressRepo, cfg.Repair, logr)
	dashboardSvc := service.NewDashboardService(scheduleRepo, progressRepo, timetableRepo, holidayRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	generatorHandler := handler.NewGeneratorHandler(generatorSvc, metricsSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	conflictHandler := handler.NewConflictHandler(conflictSvc)
	topicHandler := handler.NewTopicHandler(topicSvc)
	holidayHandler := handler.NewHolidayHandler(calendarSvc)
	repairHandler := handler.NewRepairHandler(repairSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", dashboardHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
	staffOrSelf := middleware.RBAC("SUPERADMIN", "ADMIN", "TEACHER", "SELF")

	schedules := api.Group("/schedules")
	{
		schedules.GET("", staffOrSelf, scheduleHandler.List)
		schedules.GET("/day", staffOrSelf, scheduleHandler.ListDay)
		schedules.GET("/export", staffOrSelf, scheduleHandler.Export)
		schedules.GET("/preview", staff, generatorHandler.Preview)
		schedules.POST("/generate", staff, generatorHandler.Generate)
		schedules.POST("/regenerate", staff, generatorHandler.Regenerate)
		schedules.POST("/generate/batch", staff, generatorHandler.Batch)
	}

	timetables := api.Group("/timetables")
	{
		timetables.GET("/:timetableId/conflicts", staff, conflictHandler.List)
		timetables.POST("/:timetableId/conflicts/resolve", staff, conflictHandler.Resolve)
		timetables.PUT("/:timetableId/entries/:entryId/subject", staff, conflictHandler.UpdateMapping)
	}

	topics := api.Group("/topics")
	{
		topics.GET("/pending", staff, topicHandler.ListPending)
		topics.GET("/suggestions/:entryId", staff, topicHandler.Suggestions)
		topics.POST("/assign", staff, topicHandler.Assign)
		topics.POST("/assign/bulk", staff, topicHandler.BulkAssign)
		topics.POST("/assign/quick", staff, topicHandler.QuickAssign)
	}

	holidays := api.Group("/holidays")
	{
		holidays.GET("", holidayHandler.List)
		holidays.GET("/check", holidayHandler.Check)
		holidays.GET("/impact", staff, holidayHandler.Impact)
		holidays.POST("", staff, holidayHandler.Create)
		holidays.PUT("/:id", staff, holidayHandler.Update)
		holidays.DELETE("/:id", staff, holidayHandler.Delete)
	}

	api.POST("/repair", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), repairHandler.Run)

	if cfg.Dashboard.Enabled {
		dashboard := api.Group("/dashboard")
		dashboard.GET("/stats", staff, dashboardHandler.Stats)
		dashboard.GET("/system", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin), dashboardHandler.System)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Generator.AutoRunEnabled {
		queue := startAutoRun(ctx, cfg, generatorSvc, metricsSvc, termRepo, timetableRepo, logr)
		defer queue.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// startAutoRun wires the background queue that regenerates the current week
// for every active timetable on a fixed interval.
func startAutoRun(
	ctx context.Context,
	cfg *config.Config,
	generator *service.GeneratorService,
	metrics *service.MetricsService,
	terms *repository.TermRepository,
	timetables *repository.TimetableRepository,
	logr *zap.Logger,
) *jobs.Queue {
	queue := jobs.NewQueue("schedule-generation", func(ctx context.Context, job jobs.Job) error {
		req, ok := job.Payload.(dto.BatchGenerateRequest)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		result, err := generator.GenerateBatch(ctx, req)
		if err != nil {
			return err
		}
		for _, item := range result.Results {
			metrics.ObserveGeneration(item.Created)
		}
		return nil
	}, jobs.QueueConfig{
		Workers: 1,
		Logger:  logr,
	})
	queue.Start(ctx)

	go func() {
		ticker := time.NewTicker(cfg.Generator.AutoRunInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := enqueueCurrentWeek(ctx, queue, terms, timetables); err != nil {
					logr.Warn("auto-run enqueue failed", zap.Error(err))
				}
			}
		}
	}()

	return queue
}

func enqueueCurrentWeek(ctx context.Context, queue *jobs.Queue, terms *repository.TermRepository, timetables *repository.TimetableRepository) error {
	term, err := terms.FindActive(ctx)
	if err != nil {
		return fmt.Errorf("find active term: %w", err)
	}

	weekNumber := term.WeekNumberOf(time.Now().UTC())
	if weekNumber < 1 || weekNumber > term.WeekCount() {
		return nil
	}

	active, err := timetables.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active timetables: %w", err)
	}
	if len(active) == 0 {
		return nil
	}

	studentIDs := make([]string, 0, len(active))
	for _, t := range active {
		studentIDs = append(studentIDs, t.StudentID)
	}

	return queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: "generate-current-week",
		Payload: dto.BatchGenerateRequest{
			StudentIDs: studentIDs,
			TermID:     term.ID,
			WeekNumber: weekNumber,
		},
	})
}
