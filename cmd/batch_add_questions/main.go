// Command batch_add_questions runs the generation pipeline for every request
// in a JSON file, bypassing the HTTP layer.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sync/atomic"

	"docquiz/internal/adapter"
	"docquiz/internal/adapter/blob"
	"docquiz/internal/adapter/completion"
	"docquiz/internal/adapter/events"
	"docquiz/internal/cache"
	"docquiz/internal/config"
	"docquiz/internal/database"
	"docquiz/internal/domain"
	"docquiz/internal/dto"
	"docquiz/internal/extract"
	"docquiz/internal/logger"
	"docquiz/internal/parser"
	"docquiz/internal/prompt"
	"docquiz/internal/repository"
	"docquiz/internal/service"
	"docquiz/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	requestsFile := flag.String("file", "", "JSON array of generation requests")
	concurrency := flag.Int("concurrency", 2, "requests run in parallel")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	if *requestsFile == "" {
		log.Fatal("-file is required")
	}
	requests, err := loadRequests(*requestsFile, validation.NewValidator(cfg.Generation.MaxQuestions))
	if err != nil {
		log.Fatal("Failed to load requests", zap.Error(err))
	}
	log.Info("Batch process starting up...", zap.Int("requests", len(requests)))

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, cfg.DB, cfg.GetDSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	quizRepo := repository.NewQuizDatabaseAdapter(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	var cacheAdapter domain.Cache
	var locker domain.QuizLocker
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to initialize Redis Client", zap.Error(err))
		}
		defer redisClient.Close()
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		locker = adapter.NewRedisQuizLocker(redisClient, cfg.Generation.QuizLockTTL, cfg.Generation.QuizLockWait)
	} else {
		log.Warn("Redis cache is not configured. Running without cache.")
		locker = adapter.NewLocalQuizLocker(cfg.Generation.QuizLockWait)
	}

	blobStore, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("Failed to initialize blob store", zap.Error(err))
	}
	llm, err := completion.New(ctx, cfg.LLM)
	if err != nil {
		log.Fatal("Failed to initialize completion service", zap.Error(err))
	}
	publisher, err := events.New(cfg.Events, log)
	if err != nil {
		log.Fatal("Failed to initialize job event publisher", zap.Error(err))
	}
	defer publisher.Close()

	pipeline := service.NewGenerationPipeline(service.PipelineDeps{
		Documents: repository.NewDocumentDatabaseAdapter(db),
		Quizzes:   quizRepo,
		Jobs:      repository.NewGenerationJobDatabaseAdapter(db),
		Gate: service.NewUsageGate(repository.NewUsageDatabaseAdapter(db), repository.NewPlanDatabaseAdapter(db),
			txManager, cacheAdapter, cfg.Usage.Plans, cfg.Usage.PlanCacheTTL, log),
		Locker:    locker,
		Blobs:     blobStore,
		Extractor: extract.NewDefaultRegistry(log, cfg.Generation.MinExtractedChars),
		Composer: prompt.NewComposer(prompt.Options{
			MaxSourceChars:      cfg.Generation.MaxSourceChars,
			Temperature:         cfg.LLM.Temperature,
			MaxTokens:           cfg.LLM.MaxTokens,
			IncludeExplanations: cfg.LLM.IncludeExplanations,
		}),
		Completion: llm,
		Parser:     parser.NewResponseParser(log),
		Persister:  service.NewQuizPersister(quizRepo, txManager, log),
		Events:     publisher,
	}, cfg.LLM.Timeout, log)

	var failed, generated atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*concurrency, 1))
	for _, req := range requests {
		g.Go(func() error {
			result, err := pipeline.Generate(gctx, req)
			if err != nil {
				failed.Add(1)
				log.Error("Generation failed",
					zap.String("quizID", req.QuizID),
					zap.String("documentID", req.DocumentID),
					zap.Error(err))
				return nil
			}
			generated.Add(int64(result.Count))
			return nil
		})
	}
	_ = g.Wait()

	log.Info("Batch process completed",
		zap.Int("requests", len(requests)),
		zap.Int64("failed", failed.Load()),
		zap.Int64("questions", generated.Load()))
	if failed.Load() > 0 {
		os.Exit(1)
	}
}

// loadRequests reads the same body the HTTP endpoint accepts, one per element.
func loadRequests(path string, v *validation.Validator) ([]service.GenerateRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var bodies []dto.GenerateRequest
	if err := json.Unmarshal(data, &bodies); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	requests := make([]service.GenerateRequest, 0, len(bodies))
	for i := range bodies {
		if errs := v.ValidateGenerateRequest(&bodies[i]); len(errs) > 0 {
			return nil, fmt.Errorf("request %d: %w", i, errs)
		}
		requests = append(requests, service.GenerateRequest{
			UserID:                 bodies[i].UserID,
			QuizID:                 bodies[i].QuizID,
			DocumentID:             bodies[i].DocumentID,
			RequestedQuestionCount: bodies[i].RequestedQuestionCount,
		})
	}
	return requests, nil
}
