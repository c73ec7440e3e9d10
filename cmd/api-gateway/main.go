package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/obe-attainment-api/api/swagger"
	"github.com/noah-isme/obe-attainment-api/internal/handler"
	internalmiddleware "github.com/noah-isme/obe-attainment-api/internal/middleware"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/internal/repository"
	"github.com/noah-isme/obe-attainment-api/internal/service"
	"github.com/noah-isme/obe-attainment-api/pkg/cache"
	"github.com/noah-isme/obe-attainment-api/pkg/config"
	"github.com/noah-isme/obe-attainment-api/pkg/database"
	"github.com/noah-isme/obe-attainment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/obe-attainment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/obe-attainment-api/pkg/middleware/requestid"
	"github.com/noah-isme/obe-attainment-api/pkg/storage"
)

// @title OBE Attainment API
// @version 1.0.0
// @description Course and program outcome attainment for outcome-based education
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
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	var redisRepo *repository.CacheRepository
	if cfg.Attainment.CacheEnabled {
		client, err := cache.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, attainment cache disabled", zap.Error(err))
		} else {
			redisRepo = repository.NewCacheRepository(client, logr)
			cacheRepo = redisRepo
			defer redisRepo.Close() //nolint:errcheck
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Attainment.CacheTTL, logr, cfg.Attainment.CacheEnabled)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	hierarchyRepo := repository.NewHierarchyRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	outcomeRepo := repository.NewOutcomeRepository(db)
	mappingRepo := repository.NewMappingRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	markRepo := repository.NewMarkRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	snapshotSvc := service.NewSnapshotService(snapshotRepo, metricsSvc, logr)
	hierarchySvc := service.NewHierarchyService(hierarchyRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, hierarchyRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, enrollmentRepo, snapshotSvc, cacheSvc, validate, logr)
	outcomeSvc := service.NewOutcomeService(outcomeRepo, mappingRepo, snapshotSvc, cacheSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, snapshotSvc, cacheSvc, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, markRepo, snapshotSvc, cacheSvc, validate, logr)
	uploadSvc := service.NewUploadService(outcomeSvc, studentSvc, assessmentSvc, metricsSvc, cfg.Uploads.MaxRows, validate, logr)
	attainmentSvc := service.NewAttainmentService(snapshotSvc, cacheSvc, metricsSvc, service.AttainmentConfig{
		DirectWeight:   cfg.Attainment.DirectWeight,
		IndirectWeight: cfg.Attainment.IndirectWeight,
		IndirectScore:  cfg.Attainment.IndirectScore,
		CacheTTL:       cfg.Attainment.CacheTTL,
	}, logr)

	var reportStore *storage.LocalStorage
	if cfg.Reports.Enabled {
		reportStore, err = storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare report storage", zap.Error(err))
		}
	}
	exportSvc := service.NewExportService(attainmentSvc, reportStore,
		storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
		service.ExportConfig{Enabled: cfg.Reports.Enabled, APIPrefix: cfg.APIPrefix, Retention: cfg.Reports.Retention},
		validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	dataHandler := handler.NewDataHandler(snapshotSvc)
	hierarchyHandler := handler.NewHierarchyHandler(hierarchySvc)
	userHandler := handler.NewUserHandler(userSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	outcomeHandler := handler.NewOutcomeHandler(outcomeSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc)
	uploadHandler := handler.NewUploadHandler(uploadSvc, cfg.Uploads.MaxFileSizeBytes)
	attainmentHandler := handler.NewAttainmentHandler(attainmentSvc)
	reportHandler := handler.NewReportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health"))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		status := gin.H{"status": "ready", "cache": cacheSvc.Enabled()}
		if redisRepo != nil {
			if err := redisRepo.Ping(ctx); err != nil {
				status["cache_error"] = err.Error()
			}
		}
		c.JSON(http.StatusOK, status)
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/reports/download", reportHandler.Download)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	can := internalmiddleware.RequireCapability
	secured.GET("/auth/me", authHandler.Me)
	secured.GET("/data", can(models.CapViewCourses), dataHandler.All)
	secured.GET("/metrics/summary", internalmiddleware.RequireRoles(models.RoleAdmin), metricsHandler.Summary)

	users := secured.Group("/users", internalmiddleware.RequireRoles(models.RoleAdmin))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)

	secured.GET("/colleges", can(models.CapViewCourses), hierarchyHandler.ListColleges)
	secured.POST("/colleges", can(models.CapManageHierarchy), hierarchyHandler.CreateCollege)
	secured.GET("/colleges/:id/programs", can(models.CapViewCourses), hierarchyHandler.ListPrograms)
	secured.POST("/colleges/:id/programs", can(models.CapManageHierarchy), hierarchyHandler.CreateProgram)

	programs := secured.Group("/programs/:id")
	programs.GET("/batches", can(models.CapViewCourses), hierarchyHandler.ListBatches)
	programs.POST("/batches", can(models.CapManageHierarchy), hierarchyHandler.CreateBatch)
	programs.GET("/sections", can(models.CapViewCourses), hierarchyHandler.ListSections)
	programs.POST("/sections", can(models.CapManageHierarchy), hierarchyHandler.CreateSection)
	programs.GET("/outcomes", can(models.CapViewOutcomes), outcomeHandler.ListProgramOutcomes)
	programs.POST("/outcomes", can(models.CapEditOutcomes), outcomeHandler.CreateProgramOutcome)
	programs.GET("/students", can(models.CapManageStudents), studentHandler.List)
	programs.POST("/students", can(models.CapManageStudents), studentHandler.Save)
	programs.POST("/students/upload", can(models.CapManageStudents), uploadHandler.Students)
	programs.GET("/po-attainment", can(models.CapViewProgramAttainment), attainmentHandler.Program)

	secured.GET("/courses", can(models.CapViewCourses), courseHandler.List)
	secured.POST("/courses", can(models.CapEditCourses), courseHandler.Create)
	courses := secured.Group("/courses/:id")
	courses.GET("", can(models.CapViewCourses), courseHandler.Get)
	courses.PUT("", can(models.CapEditCourses), courseHandler.Update)
	courses.PATCH("/status", can(models.CapEditCourses), courseHandler.UpdateStatus)
	courses.PUT("/teachers", can(models.CapEditCourses), courseHandler.UpdateTeachers)
	courses.GET("/sections", can(models.CapViewCourses), courseHandler.Sections)
	courses.GET("/enrollments", can(models.CapViewCourses), courseHandler.Enrollments)
	courses.GET("/outcomes", can(models.CapViewOutcomes), outcomeHandler.ListCourseOutcomes)
	courses.POST("/outcomes", can(models.CapEditOutcomes), outcomeHandler.SaveCourseOutcomes)
	courses.POST("/outcomes/upload", can(models.CapEditOutcomes), uploadHandler.CourseOutcomes)
	courses.GET("/mappings", can(models.CapViewOutcomes), outcomeHandler.Mappings)
	courses.PUT("/mappings", can(models.CapEditMappings), outcomeHandler.ReplaceMappings)
	courses.GET("/assessments", can(models.CapViewCourses), assessmentHandler.List)
	courses.POST("/assessments", can(models.CapUploadMarks), assessmentHandler.Create)
	courses.GET("/attainment", can(models.CapViewAttainment), attainmentHandler.Course)
	courses.GET("/students/:studentId/attainment", can(models.CapViewAttainment), attainmentHandler.Student)
	courses.GET("/linkage", can(models.CapViewOutcomes), attainmentHandler.Linkage)

	secured.PUT("/outcomes/:id", can(models.CapEditOutcomes), outcomeHandler.UpdateCourseOutcome)
	secured.DELETE("/outcomes/:id", can(models.CapEditOutcomes), outcomeHandler.DeleteCourseOutcome)

	assessments := secured.Group("/assessments/:id")
	assessments.DELETE("", can(models.CapUploadMarks), assessmentHandler.Delete)
	assessments.GET("/marks", can(models.CapViewCourses), assessmentHandler.Marks)
	assessments.PUT("/marks", can(models.CapUploadMarks), assessmentHandler.SaveMarks)
	assessments.POST("/marks/upload", can(models.CapUploadMarks), uploadHandler.Marks)

	secured.POST("/reports/attainment", can(models.CapExportReports), reportHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}
