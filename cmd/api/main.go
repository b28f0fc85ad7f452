package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/school-records-api/api/swagger"
	"github.com/noah-isme/school-records-api/internal/handler"
	"github.com/noah-isme/school-records-api/internal/middleware"
	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/repository"
	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/cache"
	"github.com/noah-isme/school-records-api/pkg/config"
	"github.com/noah-isme/school-records-api/pkg/database"
	"github.com/noah-isme/school-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-records-api/pkg/middleware/requestid"

	"github.com/go-playground/validator/v10"
)

// @title School Records API
// @version 1.0.0
// @description Administration service for academic years, classes, students and scores
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	yearRepo := repository.NewAcademicYearRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	parentRepo := repository.NewParentRepository(db)
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	yearSvc := service.NewAcademicYearService(yearRepo, cacheRepo, cfg.Cache.ActiveYearTTL, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, gradeRepo, yearRepo, userRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, classRepo, validate, logr)
	scoreSvc := service.NewScoreService(scoreRepo, enrollmentRepo, subjectRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, parentRepo, validate, logr)
	parentSvc := service.NewParentService(parentRepo, studentRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	reportSvc := service.NewReportService(reportRepo, scoreRepo, classRepo, cacheRepo, cfg.Cache.DashboardTTL, logr)

	yearHandler := handler.NewAcademicYearHandler(yearSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	classHandler := handler.NewClassHandler(classSvc, enrollmentSvc)
	scoreHandler := handler.NewScoreHandler(scoreSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, enrollmentSvc)
	parentHandler := handler.NewParentHandler(parentSvc)
	userHandler := handler.NewUserHandler(userSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	years := authed.Group("/academic-years")
	{
		years.GET("", staff, yearHandler.List)
		years.GET("/active", staff, yearHandler.GetActive)
		years.GET("/:id", staff, yearHandler.Get)
		years.POST("", adminOnly, yearHandler.Create)
		years.PUT("/:id", adminOnly, yearHandler.Update)
		years.PUT("/:id/activate", adminOnly, yearHandler.Activate)
		years.DELETE("/:id", adminOnly, yearHandler.Delete)
	}

	grades := authed.Group("/grades")
	{
		grades.GET("", staff, gradeHandler.List)
		grades.GET("/:id", staff, gradeHandler.Get)
		grades.POST("", adminOnly, gradeHandler.Create)
		grades.PUT("/:id", adminOnly, gradeHandler.Update)
		grades.DELETE("/:id", adminOnly, gradeHandler.Delete)
	}

	subjects := authed.Group("/subjects")
	{
		subjects.GET("", staff, subjectHandler.List)
		subjects.GET("/:id", staff, subjectHandler.Get)
		subjects.POST("", adminOnly, subjectHandler.Create)
		subjects.PUT("/:id", adminOnly, subjectHandler.Update)
		subjects.DELETE("/:id", adminOnly, subjectHandler.Delete)
	}

	classes := authed.Group("/classes")
	{
		classes.GET("", staff, classHandler.List)
		classes.GET("/:id", staff, classHandler.Get)
		classes.POST("", adminOnly, classHandler.Create)
		classes.PUT("/:id", adminOnly, classHandler.Update)
		classes.DELETE("/:id", adminOnly, classHandler.Delete)
		classes.GET("/:id/students", staff, classHandler.ListStudents)
		classes.POST("/:id/students", staff, classHandler.EnrollStudent)
		classes.DELETE("/:id/students/:studentId", staff, classHandler.UnenrollStudent)
	}

	scores := authed.Group("/scores")
	{
		scores.GET("", staff, scoreHandler.List)
		scores.GET("/:id", staff, scoreHandler.Get)
		scores.POST("", staff, scoreHandler.Record)
		scores.PUT("/:id", staff, scoreHandler.Update)
		scores.DELETE("/:id", staff, scoreHandler.Delete)
	}

	students := authed.Group("/students")
	{
		students.GET("", staff, studentHandler.List)
		students.GET("/:id", staff, studentHandler.Get)
		students.GET("/:id/classes", staff, studentHandler.ListEnrollments)
		students.POST("", adminOnly, studentHandler.Create)
		students.PUT("/:id", adminOnly, studentHandler.Update)
		students.DELETE("/:id", adminOnly, studentHandler.Delete)
	}

	parents := authed.Group("/parents")
	{
		parents.GET("", staff, parentHandler.List)
		parents.GET("/:id", staff, parentHandler.Get)
		parents.POST("", adminOnly, parentHandler.Create)
		parents.PUT("/:id", adminOnly, parentHandler.Update)
		parents.DELETE("/:id", adminOnly, parentHandler.Delete)
	}

	users := authed.Group("/users")
	{
		users.GET("", adminOnly, userHandler.List)
		users.GET("/:id", adminOnly, userHandler.Get)
		users.POST("", adminOnly, userHandler.Create)
		users.PUT("/:id", adminOnly, userHandler.Update)
		users.DELETE("/:id", adminOnly, userHandler.Delete)
	}

	reports := authed.Group("/reports")
	{
		reports.GET("/dashboard", staff, reportHandler.Dashboard)
		reports.GET("/hierarchy", staff, reportHandler.Hierarchy)
		reports.GET("/classes/:id/scores/export", staff, reportHandler.ExportScores)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
