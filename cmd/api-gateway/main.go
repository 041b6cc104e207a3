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

	_ "github.com/classmanager/backend/api/swagger"
	"github.com/classmanager/backend/internal/handler"
	"github.com/classmanager/backend/internal/middleware"
	"github.com/classmanager/backend/internal/models"
	"github.com/classmanager/backend/internal/repository"
	"github.com/classmanager/backend/internal/service"
	"github.com/classmanager/backend/pkg/cache"
	"github.com/classmanager/backend/pkg/config"
	"github.com/classmanager/backend/pkg/database"
	"github.com/classmanager/backend/pkg/jobs"
	"github.com/classmanager/backend/pkg/logger"
	"github.com/classmanager/backend/pkg/mailer"
	corsmiddleware "github.com/classmanager/backend/pkg/middleware/cors"
	reqidmiddleware "github.com/classmanager/backend/pkg/middleware/requestid"
	"github.com/classmanager/backend/pkg/storage"
)

// @title Class Manager API
// @version 1.0.0
// @description Scheduling backend: courses, class groups, timetable placement and exports.
// @BasePath /api/v1
// @schemes http https
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	disciplineRepo := repository.NewDisciplineRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	termRepo := repository.NewTermRepository(db)
	windowRepo := repository.NewTimeWindowRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Public.CacheTTL, logr)
	} else {
		cacheService = service.NewCacheService(nil, metricsService, 0, logr)
	}

	// Services.
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userService := service.NewUserService(userRepo, validate, logr)

	var outboundMail mailer.Mailer
	if cfg.Mail.Enabled && cfg.Mail.SendgridAPIKey != "" {
		outboundMail = mailer.NewSendgridMailer(cfg.Mail.SendgridAPIKey, cfg.Mail.FromName, cfg.Mail.FromAddress)
	} else {
		outboundMail = mailer.NewLogMailer(logr)
	}
	resetService := service.NewPasswordResetService(userRepo, outboundMail, service.PasswordResetConfig{
		TokenTTL:        cfg.Mail.ResetTokenTTL,
		FrontendBaseURL: cfg.Mail.FrontendBaseURL,
	}, validate, logr)

	courseService := service.NewCourseService(courseRepo, validate, logr)
	disciplineService := service.NewDisciplineService(disciplineRepo, courseRepo, validate, logr)
	classroomService := service.NewClassroomService(classroomRepo, validate, logr)
	groupService := service.NewGroupService(groupRepo, disciplineRepo, classroomRepo, validate, logr)
	termService := service.NewTermService(termRepo, validate, logr)
	windowService := service.NewTimeWindowService(windowRepo, courseRepo, validate, logr)
	scheduleService := service.NewScheduleService(scheduleRepo, groupRepo, windowRepo, termService, cacheService, metricsService, validate, logr)
	importService := service.NewImportService(userService, termService, classroomService, courseService, windowService, disciplineService, groupService, logr)
	dashboardService := service.NewDashboardService(service.DashboardServiceParams{
		ScheduleRepo: scheduleRepo,
		TermRepo:     termRepo,
		Cache:        cacheService,
		Config:       service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
		Logger:       logr,
	})

	var exportService *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init export storage", zap.Error(err))
		}
		exportService = service.NewExportService(service.ExportServiceParams{
			JobRepo:      exportJobRepo,
			ScheduleRepo: scheduleRepo,
			CourseRepo:   courseRepo,
			TermRepo:     termRepo,
			Storage:      store,
			Signer:       storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
			QueueConfig: jobs.QueueConfig{
				Workers:    cfg.Exports.WorkerConcurrency,
				MaxRetries: cfg.Exports.WorkerRetries,
				Logger:     logr,
			},
			Metrics:   metricsService,
			Validator: validate,
			Logger:    logr,
		})
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	metricsHandler := handler.NewMetricsHandler(metricsService, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, routeDeps{
		auth:       handler.NewAuthHandler(authService, userService, resetService),
		users:      handler.NewUserHandler(userService),
		courses:    handler.NewCourseHandler(courseService),
		windows:    handler.NewTimeWindowHandler(windowService),
		discipline: handler.NewDisciplineHandler(disciplineService),
		classrooms: handler.NewClassroomHandler(classroomService),
		groups:     handler.NewGroupHandler(groupService),
		terms:      handler.NewTermHandler(termService),
		schedules:  handler.NewScheduleHandler(scheduleService, termService, cacheService, cfg.Public.CacheTTL),
		dashboard:  handler.NewDashboardHandler(dashboardService, metricsService),
		exports:    handler.NewExportHandler(exportService),
		imports:    handler.NewImportHandler(importService),
		authSvc:    authService,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if exportService != nil {
		exportService.Start(runCtx)
		defer exportService.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-runCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type routeDeps struct {
	auth       *handler.AuthHandler
	users      *handler.UserHandler
	courses    *handler.CourseHandler
	windows    *handler.TimeWindowHandler
	discipline *handler.DisciplineHandler
	classrooms *handler.ClassroomHandler
	groups     *handler.GroupHandler
	terms      *handler.TermHandler
	schedules  *handler.ScheduleHandler
	dashboard  *handler.DashboardHandler
	exports    *handler.ExportHandler
	imports    *handler.ImportHandler
	authSvc    *service.AuthService
}

func registerRoutes(r *gin.Engine, cfg *config.Config, deps routeDeps) {
	api := r.Group(cfg.APIPrefix)

	authed := middleware.JWT(deps.authSvc)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.auth.Login)
		auth.POST("/refresh", deps.auth.Refresh)
		auth.POST("/logout", authed, deps.auth.Logout)
		auth.PUT("/password", authed, deps.auth.ChangePassword)
		auth.GET("/me", authed, deps.auth.Me)
		auth.POST("/reset-password/request", deps.auth.RequestPasswordReset)
		auth.POST("/reset-password", deps.auth.ResetPassword)
	}

	api.POST("/import", authed, adminOnly, deps.imports.Run)

	users := api.Group("/users", authed)
	{
		users.GET("", adminOnly, deps.users.List)
		users.GET("/teachers", deps.users.ListTeachers)
		users.GET("/:id", middleware.RBAC("ADMIN", "SELF"), deps.users.Get)
		users.POST("", adminOnly, deps.users.Create)
		users.PUT("/:id", adminOnly, deps.users.Update)
		users.DELETE("/:id", adminOnly, deps.users.Delete)
	}

	courses := api.Group("/courses", authed)
	{
		courses.GET("", deps.courses.List)
		courses.GET("/:id", deps.courses.Get)
		courses.POST("", adminOnly, deps.courses.Create)
		courses.PUT("/:id", staff, deps.courses.Update)
		courses.DELETE("/:id", adminOnly, deps.courses.Delete)

		courses.GET("/:id/time-window", deps.windows.Get)
		courses.GET("/:id/slots", deps.windows.Slots)
		courses.PUT("/:id/time-window", staff, deps.windows.Upsert)
		courses.DELETE("/:id/time-window", staff, deps.windows.Delete)
	}

	disciplines := api.Group("/disciplines", authed)
	{
		disciplines.GET("", deps.discipline.List)
		disciplines.GET("/:id", deps.discipline.Get)
		disciplines.POST("", staff, deps.discipline.Create)
		disciplines.PUT("/:id", staff, deps.discipline.Update)
		disciplines.DELETE("/:id", staff, deps.discipline.Delete)
	}

	classrooms := api.Group("/classrooms", authed)
	{
		classrooms.GET("", deps.classrooms.List)
		classrooms.GET("/:id", deps.classrooms.Get)
		classrooms.POST("", staff, deps.classrooms.Create)
		classrooms.PUT("/:id", staff, deps.classrooms.Update)
		classrooms.DELETE("/:id", staff, deps.classrooms.Delete)
	}

	groups := api.Group("/groups", authed)
	{
		groups.GET("", deps.groups.List)
		groups.GET("/:id", deps.groups.Get)
		groups.POST("", staff, deps.groups.Create)
		groups.PUT("/:id", staff, deps.groups.Update)
		groups.DELETE("/:id", staff, deps.groups.Delete)
	}

	terms := api.Group("/terms", authed)
	{
		terms.GET("", deps.terms.List)
		terms.GET("/schedulable", deps.terms.Schedulable)
		terms.GET("/:id", deps.terms.Get)
		terms.POST("", adminOnly, deps.terms.Create)
		terms.PUT("/:id", adminOnly, deps.terms.Update)
		terms.POST("/:id/finalize", adminOnly, deps.terms.Finalize)
		terms.DELETE("/:id", adminOnly, deps.terms.Delete)
	}

	schedules := api.Group("/schedules")
	{
		if cfg.Public.Enabled {
			schedules.GET("/public", middleware.OptionalJWT(deps.authSvc), deps.schedules.Public)
		}
		schedules.GET("", authed, deps.schedules.List)
		schedules.GET("/mine", authed, deps.schedules.Mine)
		schedules.POST("", authed, staff, deps.schedules.Save)
		schedules.POST("/copy", authed, staff, deps.schedules.Copy)
		if cfg.Generator.Enabled {
			schedules.POST("/generate", authed, staff, deps.schedules.Generate)
		}
		schedules.DELETE("/:id", authed, staff, deps.schedules.Delete)
	}

	if cfg.Dashboard.Enabled {
		dashboard := api.Group("/dashboard", authed, staff)
		{
			dashboard.GET("", deps.dashboard.Report)
			dashboard.GET("/system", adminOnly, deps.dashboard.System)
		}
	}

	if cfg.Exports.Enabled {
		exports := api.Group("/exports")
		{
			exports.GET("/download", deps.exports.Download)
			exports.POST("", authed, deps.exports.Request)
			exports.GET("", authed, deps.exports.List)
			exports.GET("/:id", authed, deps.exports.Get)
			exports.POST("/:id/download-token", authed, deps.exports.DownloadToken)
		}
	}
}
