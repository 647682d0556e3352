package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docquiz/internal/adapter/events"
	"docquiz/internal/domain"
	"docquiz/internal/util"

	"go.uber.org/zap"
)

const jobUpdateTimeout = 5 * time.Second

// TextExtractor turns document bytes into plain text.
type TextExtractor interface {
	Extract(data []byte, mimeType, filename string) (string, error)
}

// PromptComposer builds the completion request for extracted text.
type PromptComposer interface {
	Compose(text string, count int) domain.Prompt
	Truncated(text string) bool
}

// ResponseParser turns raw model output into validated drafts.
type ResponseParser interface {
	Parse(raw string) ([]domain.QuestionDraft, error)
}

// GenerateRequest asks for questions generated from a document into a quiz.
type GenerateRequest struct {
	UserID                 string
	QuizID                 string
	DocumentID             string
	RequestedQuestionCount int
}

// GenerateResult reports a successful run.
type GenerateResult struct {
	JobID     string
	Count     int
	Truncated bool
}

// GenerationPipeline runs document-to-quiz generation end to end.
type GenerationPipeline interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// PipelineDeps groups the collaborators of the pipeline.
type PipelineDeps struct {
	Documents  domain.DocumentRepository
	Quizzes    domain.QuizRepository
	Jobs       domain.GenerationJobRepository
	Gate       UsageGate
	Locker     domain.QuizLocker
	Blobs      domain.BlobStore
	Extractor  TextExtractor
	Composer   PromptComposer
	Completion domain.CompletionService
	Parser     ResponseParser
	Persister  QuizPersister
	Events     domain.JobEventPublisher
}

type generationPipeline struct {
	deps       PipelineDeps
	llmTimeout time.Duration
	logger     *zap.Logger
	newID      func() string
	now        func() time.Time
}

// NewGenerationPipeline wires the pipeline. llmTimeout bounds the completion call.
func NewGenerationPipeline(deps PipelineDeps, llmTimeout time.Duration, logger *zap.Logger) GenerationPipeline {
	if deps.Events == nil {
		deps.Events = events.NopPublisher{}
	}
	return &generationPipeline{
		deps:       deps,
		llmTimeout: llmTimeout,
		logger:     logger,
		newID:      util.NewULID,
		now:        time.Now,
	}
}

func (p *generationPipeline) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if req.RequestedQuestionCount < 1 {
		return nil, domain.NewInvalidInputError("requested_question_count must be at least 1")
	}

	doc, err := p.loadTargets(ctx, req)
	if err != nil {
		return nil, err
	}

	release, err := p.deps.Locker.Acquire(ctx, req.QuizID)
	if err != nil {
		p.logger.Warn("GenerationPipeline: quiz is busy",
			zap.String("quizID", req.QuizID),
			zap.Error(err))
		if _, ok := domain.AsDomainError(err); ok {
			return nil, err
		}
		return nil, domain.NewInternalError("Failed to acquire quiz lock", err)
	}
	defer release()

	p.logStage(req, domain.StageGating)
	if _, err := p.deps.Gate.CheckAndConsumeAll(ctx, req.UserID, domain.ResourceTypes); err != nil {
		return nil, err
	}

	job := &domain.GenerationJob{
		ID:                     p.newID(),
		OwnerID:                req.UserID,
		DocumentID:             req.DocumentID,
		QuizID:                 req.QuizID,
		RequestedQuestionCount: req.RequestedQuestionCount,
		RequestedTypes:         []string{domain.QuestionTypeMCQ},
		Status:                 domain.JobRunning,
		Stage:                  domain.StageGating,
		CreatedAt:              p.now(),
	}
	job.UpdatedAt = job.CreatedAt
	if err := p.deps.Jobs.CreateJob(ctx, job); err != nil {
		return nil, domain.NewPersistenceError("Failed to record generation job", err)
	}
	p.publish(ctx, job)

	result, err := p.run(ctx, job, doc, req)
	if err != nil {
		p.fail(ctx, job, err)
		return nil, err
	}

	job.Status = domain.JobSucceeded
	job.Stage = domain.StageDone
	job.QuestionCount = result.Count
	p.finish(ctx, job)

	p.logger.Info("GenerationPipeline: generation completed",
		zap.String("jobID", job.ID),
		zap.String("quizID", req.QuizID),
		zap.Int("requested", req.RequestedQuestionCount),
		zap.Int("count", result.Count))
	return result, nil
}

// loadTargets checks that the document and quiz exist and belong to the user.
// Foreign rows are reported as missing.
func (p *generationPipeline) loadTargets(ctx context.Context, req GenerateRequest) (*domain.Document, error) {
	doc, err := p.deps.Documents.GetDocumentByID(ctx, req.DocumentID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load document", err)
	}
	if doc == nil || doc.OwnerID != req.UserID {
		return nil, domain.NewDocumentNotFoundError(req.DocumentID)
	}

	quiz, err := p.deps.Quizzes.GetQuizByID(ctx, req.QuizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load quiz", err)
	}
	if quiz == nil || quiz.OwnerID != req.UserID {
		return nil, domain.NewQuizNotFoundError(req.QuizID)
	}
	return doc, nil
}

func (p *generationPipeline) run(ctx context.Context, job *domain.GenerationJob, doc *domain.Document, req GenerateRequest) (*GenerateResult, error) {
	p.advance(job, req, domain.StageExtracting)
	data, err := p.deps.Blobs.Download(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, domain.ErrBlobNotFound) {
			return nil, domain.NewStorageError("Document file is missing from storage", err)
		}
		return nil, domain.NewStorageError("Failed to download document", err)
	}
	text, err := p.deps.Extractor.Extract(data, doc.MimeType, doc.Filename)
	if err != nil {
		return nil, err
	}

	p.advance(job, req, domain.StageComposing)
	truncated := p.deps.Composer.Truncated(text)
	if truncated {
		p.logger.Info("GenerationPipeline: document text truncated for prompt",
			zap.String("documentID", doc.ID))
	}
	prompt := p.deps.Composer.Compose(text, req.RequestedQuestionCount)

	p.advance(job, req, domain.StageInvoking)
	raw, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	p.advance(job, req, domain.StageParsing)
	drafts, err := p.deps.Parser.Parse(raw)
	if err != nil {
		return nil, err
	}

	p.advance(job, req, domain.StagePersisting)
	count, err := p.deps.Persister.Persist(ctx, req.QuizID, req.UserID, drafts)
	if err != nil {
		return nil, err
	}

	return &GenerateResult{JobID: job.ID, Count: count, Truncated: truncated}, nil
}

func (p *generationPipeline) complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	callCtx := ctx
	if p.llmTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.llmTimeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := p.deps.Completion.Complete(callCtx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		p.logger.Error("GenerationPipeline: completion failed",
			zap.String("provider", p.deps.Completion.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		if _, ok := domain.AsDomainError(err); ok {
			return "", err
		}
		return "", domain.NewLLMServiceError(err)
	}
	p.logger.Debug("GenerationPipeline: completion received",
		zap.String("provider", p.deps.Completion.Name()),
		zap.Duration("elapsed", elapsed),
		zap.Int("chars", len(raw)))
	return raw, nil
}

func (p *generationPipeline) advance(job *domain.GenerationJob, req GenerateRequest, stage domain.Stage) {
	job.Stage = stage
	p.logStage(req, stage)
}

func (p *generationPipeline) logStage(req GenerateRequest, stage domain.Stage) {
	p.logger.Debug("GenerationPipeline: stage",
		zap.String("stage", string(stage)),
		zap.String("quizID", req.QuizID),
		zap.String("documentID", req.DocumentID))
}

func (p *generationPipeline) fail(ctx context.Context, job *domain.GenerationJob, err error) {
	job.Status = domain.JobFailed
	job.Error = jobErrorMessage(err)
	p.logger.Warn("GenerationPipeline: generation failed",
		zap.String("jobID", job.ID),
		zap.String("stage", string(job.Stage)),
		zap.Error(err))
	p.finish(ctx, job)
}

// finish records the terminal state even when the request was cancelled.
func (p *generationPipeline) finish(ctx context.Context, job *domain.GenerationJob) {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), jobUpdateTimeout)
	defer cancel()

	job.UpdatedAt = p.now()
	if err := p.deps.Jobs.UpdateJobStatus(detached, job); err != nil {
		p.logger.Error("GenerationPipeline: failed to update job",
			zap.String("jobID", job.ID),
			zap.String("status", string(job.Status)),
			zap.Error(err))
	}
	p.publish(detached, job)
}

func (p *generationPipeline) publish(ctx context.Context, job *domain.GenerationJob) {
	if err := p.deps.Events.PublishJobEvent(context.WithoutCancel(ctx), events.EventFromJob(job, p.now())); err != nil {
		p.logger.Warn("GenerationPipeline: failed to publish job event",
			zap.String("jobID", job.ID),
			zap.Error(err))
	}
}

// jobErrorMessage keeps the code and client-safe message only; causes may
// contain raw model output.
func jobErrorMessage(err error) string {
	if de, ok := domain.AsDomainError(err); ok {
		return fmt.Sprintf("%s: %s", de.Code, de.Message)
	}
	return err.Error()
}
