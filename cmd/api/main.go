// @title DocQuiz API
// @version 1.0
// @description Generates multiple-choice quiz questions from uploaded documents.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "docquiz/cmd/api/docs"
	"docquiz/internal/adapter"
	"docquiz/internal/adapter/blob"
	"docquiz/internal/adapter/completion"
	"docquiz/internal/adapter/events"
	"docquiz/internal/cache"
	"docquiz/internal/config"
	"docquiz/internal/database"
	"docquiz/internal/domain"
	"docquiz/internal/extract"
	"docquiz/internal/handler"
	"docquiz/internal/logger"
	"docquiz/internal/middleware"
	"docquiz/internal/parser"
	"docquiz/internal/prompt"
	"docquiz/internal/repository"
	"docquiz/internal/service"
	"docquiz/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx := context.Background()

	db, err := database.NewPostgresDB(ctx, cfg.DB, cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	documentRepository := repository.NewDocumentDatabaseAdapter(db)
	quizRepository := repository.NewQuizDatabaseAdapter(db)
	usageRepository := repository.NewUsageDatabaseAdapter(db)
	planRepository := repository.NewPlanDatabaseAdapter(db)
	jobRepository := repository.NewGenerationJobDatabaseAdapter(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Redis is optional; without it plans are read per request and quiz
	// locks only cover this process.
	var cacheAdapter domain.Cache
	var quizLocker domain.QuizLocker
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		appLogger.Info("Successfully connected to Redis")
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		quizLocker = adapter.NewRedisQuizLocker(redisClient, cfg.Generation.QuizLockTTL, cfg.Generation.QuizLockWait)
	} else {
		appLogger.Warn("Redis address not set, using in-process quiz locks")
		quizLocker = adapter.NewLocalQuizLocker(cfg.Generation.QuizLockWait)
	}

	blobStore, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		appLogger.Fatal("Failed to create blob store", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	appLogger.Info("Blob store initialized", zap.String("backend", cfg.Storage.Backend))

	completionService, err := completion.New(ctx, cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create completion service", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
	}
	appLogger.Info("Completion service initialized", zap.String("provider", completionService.Name()))

	publisher, err := events.New(cfg.Events, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create job event publisher", zap.Error(err))
	}
	defer publisher.Close()

	usageGate := service.NewUsageGate(usageRepository, planRepository, txManager, cacheAdapter,
		cfg.Usage.Plans, cfg.Usage.PlanCacheTTL, appLogger)
	persister := service.NewQuizPersister(quizRepository, txManager, appLogger)
	pipeline := service.NewGenerationPipeline(service.PipelineDeps{
		Documents: documentRepository,
		Quizzes:   quizRepository,
		Jobs:      jobRepository,
		Gate:      usageGate,
		Locker:    quizLocker,
		Blobs:     blobStore,
		Extractor: extract.NewDefaultRegistry(appLogger, cfg.Generation.MinExtractedChars),
		Composer: prompt.NewComposer(prompt.Options{
			MaxSourceChars:      cfg.Generation.MaxSourceChars,
			Temperature:         cfg.LLM.Temperature,
			MaxTokens:           cfg.LLM.MaxTokens,
			IncludeExplanations: cfg.LLM.IncludeExplanations,
		}),
		Completion: completionService,
		Parser:     parser.NewResponseParser(appLogger),
		Persister:  persister,
		Events:     publisher,
	}, cfg.LLM.Timeout, appLogger)

	validator := validation.NewValidator(cfg.Generation.MaxQuestions)
	handlers := handler.Handlers{
		Generation: handler.NewGenerationHandler(pipeline, validator, cfg.Server.GenerateTimeout),
		Usage:      handler.NewUsageHandler(usageGate, validator),
		Health:     handler.NewHealthHandler(db, cacheAdapter, completionService.Name()),
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: middleware.ErrorHandler(cfg.IsProduction()),
	})

	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)
	handler.RegisterRoutes(app, handlers, cfg.Auth.JWTSecret)
	if cfg.Auth.JWTSecret == "" {
		appLogger.Warn("JWT secret not set, /api routes are unauthenticated")
	}

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
