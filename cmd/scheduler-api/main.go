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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Druv08/smart-scheduler/api/swagger"
	"github.com/Druv08/smart-scheduler/internal/handler"
	"github.com/Druv08/smart-scheduler/internal/middleware"
	"github.com/Druv08/smart-scheduler/internal/models"
	"github.com/Druv08/smart-scheduler/internal/repository"
	"github.com/Druv08/smart-scheduler/internal/service"
	"github.com/Druv08/smart-scheduler/pkg/cache"
	"github.com/Druv08/smart-scheduler/pkg/config"
	"github.com/Druv08/smart-scheduler/pkg/database"
	"github.com/Druv08/smart-scheduler/pkg/logger"
	corsmiddleware "github.com/Druv08/smart-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/Druv08/smart-scheduler/pkg/middleware/requestid"
	"github.com/Druv08/smart-scheduler/pkg/storage"
)

// @title Smart Scheduler API
// @version 1.0.0
// @description Course, room and timetable scheduling backend
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The API degrades gracefully without Redis; the dashboard just
		// recomputes stats on every request.
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	artifacts, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	courseSvc := service.NewCourseService(courseRepo, cacheRepo, nil, logr)
	roomSvc := service.NewRoomService(roomRepo, cacheRepo, nil, logr)
	userSvc := service.NewUserService(userRepo, nil, logr)
	conflictSvc := service.NewConflictService(timetableRepo, courseRepo, nil, logr)
	bookingSvc := service.NewBookingService(timetableRepo, courseRepo, roomRepo, conflictSvc, courseRepo, metricsSvc, nil, logr)
	scheduleSvc := service.NewAutoScheduleService(courseRepo, roomRepo, timetableRepo, conflictSvc, courseRepo, metricsSvc, nil, logr, cfg.Scheduler)
	dashboardSvc := service.NewDashboardService(userRepo, courseRepo, roomRepo, timetableRepo, cacheRepo, metricsSvc, logr, cfg.Dashboard.CacheTTL)
	reportSvc := service.NewReportService(reportRepo, timetableRepo, courseRepo, roomRepo, artifacts, signer, metricsSvc, nil, logr, service.ReportQueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	reportSvc.Start(workerCtx)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc, conflictSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	userHandler := handler.NewUserHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Metrics)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.GET("/me", authHandler.Me)
		authed.PUT("/password", authHandler.ChangePassword)
	}

	// Artifact downloads authenticate via the signed token in the path.
	api.GET("/reports/download/:token", reportHandler.Download)

	protected := api.Group("", middleware.JWT(authSvc))
	{
		courses := protected.Group("/courses")
		courses.GET("", courseHandler.List)
		courses.GET("/:id", courseHandler.Get)
		courses.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), courseHandler.Create)
		courses.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), courseHandler.Update)
		courses.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), courseHandler.Delete)

		rooms := protected.Group("/rooms")
		rooms.GET("", roomHandler.List)
		rooms.GET("/:id", roomHandler.Get)
		rooms.POST("", middleware.RequireRoles(models.RoleAdmin), roomHandler.Create)
		rooms.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), roomHandler.Update)
		rooms.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), roomHandler.Delete)

		timetable := protected.Group("/timetable")
		timetable.GET("", bookingHandler.List)
		timetable.GET("/:id", bookingHandler.Get)
		timetable.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), bookingHandler.Create)
		timetable.POST("/check", bookingHandler.CheckConflict)
		timetable.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), bookingHandler.Delete)

		protected.POST("/schedule/generate", middleware.RequireRoles(models.RoleAdmin), scheduleHandler.Generate)

		reports := protected.Group("/reports")
		reports.POST("", reportHandler.Create)
		reports.GET("", reportHandler.List)
		reports.GET("/:id", reportHandler.Get)

		protected.GET("/dashboard/stats", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), dashboardHandler.Stats)

		users := protected.Group("/users", middleware.RequireRoles(models.RoleAdmin))
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.DELETE("/:id", userHandler.Delete)
	}

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
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}

	stopWorkers()
	reportSvc.Stop()
	logr.Info("server stopped")
}
