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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/exam-slot-api/api/swagger"
	"github.com/noah-isme/exam-slot-api/internal/handler"
	internalmiddleware "github.com/noah-isme/exam-slot-api/internal/middleware"
	"github.com/noah-isme/exam-slot-api/internal/models"
	"github.com/noah-isme/exam-slot-api/internal/repository"
	"github.com/noah-isme/exam-slot-api/internal/scheduler"
	"github.com/noah-isme/exam-slot-api/internal/service"
	"github.com/noah-isme/exam-slot-api/pkg/cache"
	"github.com/noah-isme/exam-slot-api/pkg/config"
	"github.com/noah-isme/exam-slot-api/pkg/database"
	"github.com/noah-isme/exam-slot-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/exam-slot-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/exam-slot-api/pkg/middleware/requestid"
)

// @title Exam Slot API
// @version 1.0.0
// @description Exam slot generation, room and proctor assignment
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

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

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return fmt.Errorf("scheduler timezone: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			return err
		}
	}

	metricsSvc := service.NewMetricsService()
	probes := map[string]handler.Pinger{"postgres": db}

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		cacheRepo := repository.NewCacheRepository(client, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
		probes["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	validate := validator.New()
	clock := scheduler.NewZonedClock(loc)

	studentRepo := repository.NewStudentRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	examRepo := repository.NewExamRepository(db)
	slotRepo := repository.NewExamSlotRepository(db)
	slotRoomRepo := repository.NewExamSlotRoomRepository(db)

	generatorSvc := service.NewExamSlotGeneratorService(studentRepo, roomRepo, slotRepo, slotRoomRepo, db, cacheSvc, metricsSvc, validate, logr, service.ExamSlotGeneratorConfig{
		ProposalTTL: cfg.Scheduler.ProposalTTL,
		MaxWindows:  cfg.Scheduler.MaxWindows,
		DayStart:    cfg.Scheduler.DayStart,
		DayEnd:      cfg.Scheduler.DayEnd,
		Clock:       clock,
	})
	examSlotSvc := service.NewExamSlotService(slotRepo, examRepo, slotRoomRepo, teacherRepo, clock, cacheSvc, metricsSvc, validate, logr)
	assignmentSvc := service.NewTeacherAssignmentService(slotRoomRepo, teacherRepo, db, cacheSvc, metricsSvc, validate, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)

	examSlotHandler := handler.NewExamSlotHandler(generatorSvc, examSlotSvc)
	assignmentHandler := handler.NewTeacherAssignmentHandler(assignmentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, probes)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staff := internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	withTeachers := internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
	api := r.Group(cfg.APIPrefix, internalmiddleware.JWT(tokenSvc))
	{
		slots := api.Group("/exam-slots")
		slots.GET("", withTeachers, examSlotHandler.List)
		slots.GET("/:id", withTeachers, examSlotHandler.Get)
		slots.POST("/generate", staff, examSlotHandler.Generate)
		slots.POST("", staff, examSlotHandler.Save)
		slots.POST("/assignments", staff, assignmentHandler.Assign)
		slots.PUT("/:id/exam", staff, examSlotHandler.AttachExam)
		slots.PATCH("/:id/status", withTeachers, examSlotHandler.ChangeStatus)
		slots.DELETE("/:id", staff, examSlotHandler.Delete)

		api.GET("/teachers/:id/exam-duties",
			internalmiddleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), internalmiddleware.RoleSelf),
			examSlotHandler.TeacherDuties,
		)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
