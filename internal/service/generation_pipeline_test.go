package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"docquiz/internal/domain"
	"docquiz/internal/extract"
	"docquiz/internal/parser"
	"docquiz/internal/prompt"
	"docquiz/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var lectureNotes = strings.Repeat("Photosynthesis converts light energy into chemical energy. ", 50)

func fencedQuestions(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"question": "Question %d?", "choices": ["A%d", "B%d", "C%d", "D%d"], "correct": "C%d"}`, i+1, i, i, i, i, i)
	}
	return "```json\n[" + strings.Join(items, ",\n") + "]\n```"
}

type pipelineFixture struct {
	docs       *MockDocumentRepository
	quizzes    *MockQuizRepository
	jobs       *MockGenerationJobRepository
	gate       *MockUsageGate
	blobs      *MockBlobStore
	completion *MockCompletionService
	events     *MockJobEventPublisher
	tx         *MockTransactionManager
	locker     domain.QuizLocker

	mu        sync.Mutex
	published []domain.JobEvent
	updates   []domain.GenerationJob
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		docs:       new(MockDocumentRepository),
		quizzes:    new(MockQuizRepository),
		jobs:       new(MockGenerationJobRepository),
		gate:       new(MockUsageGate),
		blobs:      new(MockBlobStore),
		completion: new(MockCompletionService),
		events:     new(MockJobEventPublisher),
		tx:         new(MockTransactionManager),
		locker:     &noopLocker{},
	}
	f.events.On("PublishJobEvent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			f.mu.Lock()
			f.published = append(f.published, args.Get(1).(domain.JobEvent))
			f.mu.Unlock()
		}).Return(nil)
	return f
}

func (f *pipelineFixture) pipeline(llmTimeout time.Duration) GenerationPipeline {
	logger := zap.NewNop()
	return NewGenerationPipeline(PipelineDeps{
		Documents:  f.docs,
		Quizzes:    f.quizzes,
		Jobs:       f.jobs,
		Gate:       f.gate,
		Locker:     f.locker,
		Blobs:      f.blobs,
		Extractor:  extract.NewDefaultRegistry(logger, 50),
		Composer:   prompt.NewComposer(prompt.Options{IncludeExplanations: true}),
		Completion: f.completion,
		Parser:     parser.NewResponseParser(logger),
		Persister:  NewQuizPersister(f.quizzes, f.tx, logger),
		Events:     f.events,
	}, llmTimeout, logger)
}

func (f *pipelineFixture) withTargets(mime, filename string) {
	f.docs.On("GetDocumentByID", mock.Anything, "doc-1").Return(&domain.Document{
		ID:          "doc-1",
		OwnerID:     "user-1",
		StoragePath: "user-1/doc-1",
		MimeType:    mime,
		Filename:    filename,
	}, nil)
	f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(&domain.Quiz{ID: "quiz-1", OwnerID: "user-1"}, nil)
}

func (f *pipelineFixture) withGateOpen() {
	f.gate.On("CheckAndConsumeAll", mock.Anything, "user-1", domain.ResourceTypes).
		Return([]*domain.UsageDecision{{Allowed: true}}, nil).Once()
}

func (f *pipelineFixture) withJobs() {
	f.jobs.On("CreateJob", mock.Anything, mock.AnythingOfType("*domain.GenerationJob")).Return(nil).Once()
	f.jobs.On("UpdateJobStatus", mock.Anything, mock.AnythingOfType("*domain.GenerationJob")).
		Run(func(args mock.Arguments) {
			f.mu.Lock()
			f.updates = append(f.updates, *args.Get(1).(*domain.GenerationJob))
			f.mu.Unlock()
		}).Return(nil).Once()
}

func (f *pipelineFixture) lastUpdate(t *testing.T) domain.GenerationJob {
	t.Helper()
	require.Len(t, f.updates, 1)
	return f.updates[0]
}

func generateRequest(count int) GenerateRequest {
	return GenerateRequest{UserID: "user-1", QuizID: "quiz-1", DocumentID: "doc-1", RequestedQuestionCount: count}
}

func TestGenerationPipeline_HappyPath(t *testing.T) {
	f := newPipelineFixture()
	f.withTargets("text/plain", "notes.txt")
	f.withGateOpen()
	f.withJobs()
	f.blobs.On("Download", mock.Anything, "user-1/doc-1").Return([]byte(lectureNotes), nil).Once()
	f.completion.On("Complete", mock.Anything, mock.MatchedBy(func(p domain.Prompt) bool {
		return strings.Contains(p.User, "Photosynthesis") && p.JSONOutput
	})).Return(fencedQuestions(5), nil).Once()
	f.tx.On("WithTransaction", mock.Anything).Return(nil).Once()

	var choices int
	f.quizzes.On("InsertQuestion", mock.Anything, mock.AnythingOfType("*domain.Question")).
		Run(func(args mock.Arguments) {
			choices += len(args.Get(1).(*domain.Question).Choices)
		}).Return(nil).Times(5)

	result, err := f.pipeline(time.Second).Generate(context.Background(), generateRequest(5))

	require.NoError(t, err)
	assert.Equal(t, 5, result.Count)
	assert.True(t, util.IsValidULID(result.JobID), result.JobID)
	assert.False(t, result.Truncated)
	assert.Equal(t, 20, choices)

	job := f.lastUpdate(t)
	assert.Equal(t, domain.JobSucceeded, job.Status)
	assert.Equal(t, domain.StageDone, job.Stage)
	assert.Equal(t, 5, job.QuestionCount)

	require.Len(t, f.published, 2)
	assert.Equal(t, domain.JobRunning, f.published[0].Status)
	assert.Equal(t, domain.JobSucceeded, f.published[1].Status)
	f.quizzes.AssertExpectations(t)
	f.completion.AssertExpectations(t)
}

func TestGenerationPipeline_QuotaDeniedBeforeDownload(t *testing.T) {
	f := newPipelineFixture()
	f.withTargets("text/plain", "notes.txt")
	quotaErr := domain.NewQuotaExceededError(domain.PlanFree, domain.ResourceAICalls, 50)
	f.gate.On("CheckAndConsumeAll", mock.Anything, "user-1", domain.ResourceTypes).Return(nil, quotaErr).Once()

	_, err := f.pipeline(time.Second).Generate(context.Background(), generateRequest(5))

	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeQuotaExceeded))
	f.blobs.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
	f.jobs.AssertNotCalled(t, "CreateJob", mock.Anything, mock.Anything)
	f.completion.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestGenerationPipeline_MalformedBatchPersistsNothing(t *testing.T) {
	f := newPipelineFixture()
	f.withTargets("text/plain", "notes.txt")
	f.withGateOpen()
	f.withJobs()
	f.blobs.On("Download", mock.Anything, "user-1/doc-1").Return([]byte(lectureNotes), nil).Once()

	bad := `{"question": "Broken?", "choices": ["One", "Two", "Three"], "correct": "One"}`
	raw := strings.TrimSuffix(strings.TrimSuffix(fencedQuestions(4), "]\n```"), "\n") + ",\n" + bad + "]\n```"
	f.completion.On("Complete", mock.Anything, mock.Anything).Return(raw, nil).Once()

	_, err := f.pipeline(time.Second).Generate(context.Background(), generateRequest(5))

	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeMalformedOutput))
	f.quizzes.AssertNotCalled(t, "InsertQuestion", mock.Anything, mock.Anything)

	job := f.lastUpdate(t)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Equal(t, domain.StageParsing, job.Stage)
	assert.True(t, strings.HasPrefix(job.Error, string(domain.CodeMalformedOutput)))
}

func TestGenerationPipeline_UnsupportedFormat(t *testing.T) {
	f := newPipelineFixture()
	f.withTargets("image/png", "diagram.png")
	f.withGateOpen()
	f.withJobs()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	f.blobs.On("Download", mock.Anything, "user-1/doc-1").Return(png, nil).Once()

	_, err := f.pipeline(time.Second).Generate(context.Background(), generateRequest(3))

	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeUnsupportedFormat))
	f.completion.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	f.gate.AssertNumberOfCalls(t, "CheckAndConsumeAll", 1)

	job := f.lastUpdate(t)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Equal(t, domain.StageExtracting, job.Stage)
}

func TestGenerationPipeline_EmptyExtraction(t *testing.T) {
	f := newPipelineFixture()
	f.withTargets("text/plain", "notes.txt")
	f.withGateOpen()
	f.withJobs()
	f.blobs.On("Download", mock.Anything, "user-1/doc-1").Return([]byte("too short"), nil).Once()

	_, err := f.pipeline(time.Second).Generate(context.Background(), generateRequest(3))

	assert.True(t, domain.HasCode(err, domain.CodeEmptyExtraction))
	assert.Equal(t, domain.StageExtracting, f.lastUpdate(t).Stage)
}

func TestGenerationPipeline_StorageFailure(t *testing.T) {
	f := newPipelineFixture()
	f.withTargets("text/plain", "notes.txt")
	f.withGateOpen()
	f.withJobs()
	f.blobs.On("Download", mock.Anything, "user-1/doc-1").
		Return(nil, fmt.Errorf("%w: user-1/doc-1", domain.ErrBlobNotFound)).Once()

	_, err := f.pipeline(time.Second).Generate(context.Background(), generateRequest(3))

	assert.True(t, domain.HasCode(err, domain.CodeStorageError))
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
}

func TestGenerationPipeline_CompletionTimeout(t *testing.T) {
	f := newPipelineFixture()
	f.withTargets("text/plain", "notes.txt")
	f.withGateOpen()
	f.withJobs()
	f.blobs.On("Download", mock.Anything, "user-1/doc-1").Return([]byte(lectureNotes), nil).Once()
	f.completion.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).Return("", context.DeadlineExceeded).Once()

	_, err := f.pipeline(20*time.Millisecond).Generate(context.Background(), generateRequest(3))

	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.CodeLLMServiceError))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.StageInvoking, f.lastUpdate(t).Stage)
}

func TestGenerationPipeline_JobUpdateSurvivesCancellation(t *testing.T) {
	f := newPipelineFixture()
	f.withTargets("text/plain", "notes.txt")
	f.withGateOpen()
	f.jobs.On("CreateJob", mock.Anything, mock.Anything).Return(nil).Once()
	f.jobs.On("UpdateJobStatus", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything).Return(nil).Once()
	f.blobs.On("Download", mock.Anything, "user-1/doc-1").Return([]byte(lectureNotes), nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	f.completion.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { cancel() }).
		Return("", context.Canceled).Once()

	_, err := f.pipeline(time.Second).Generate(ctx, generateRequest(3))

	require.Error(t, err)
	f.jobs.AssertExpectations(t)
}

func TestGenerationPipeline_OwnershipChecks(t *testing.T) {
	t.Run("foreign document", func(t *testing.T) {
		f := newPipelineFixture()
		f.docs.On("GetDocumentByID", mock.Anything, "doc-1").
			Return(&domain.Document{ID: "doc-1", OwnerID: "someone-else"}, nil)

		_, err := f.pipeline(time.Second).Generate(context.Background(), generateRequest(3))

		assert.True(t, domain.HasCode(err, domain.CodeDocumentNotFound))
		f.gate.AssertNotCalled(t, "CheckAndConsumeAll", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing quiz", func(t *testing.T) {
		f := newPipelineFixture()
		f.docs.On("GetDocumentByID", mock.Anything, "doc-1").
			Return(&domain.Document{ID: "doc-1", OwnerID: "user-1"}, nil)
		f.quizzes.On("GetQuizByID", mock.Anything, "quiz-1").Return(nil, nil)

		_, err := f.pipeline(time.Second).Generate(context.Background(), generateRequest(3))

		assert.True(t, domain.HasCode(err, domain.CodeQuizNotFound))
		f.gate.AssertNotCalled(t, "CheckAndConsumeAll", mock.Anything, mock.Anything, mock.Anything)
	})
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (func(), error) {
	return nil, domain.ErrLockNotAcquired
}

func TestGenerationPipeline_QuizBusy(t *testing.T) {
	f := newPipelineFixture()
	f.locker = busyLocker{}
	f.withTargets("text/plain", "notes.txt")

	_, err := f.pipeline(time.Second).Generate(context.Background(), generateRequest(3))

	assert.True(t, domain.HasCode(err, domain.CodeConflict))
	f.gate.AssertNotCalled(t, "CheckAndConsumeAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationPipeline_RejectsZeroCount(t *testing.T) {
	f := newPipelineFixture()

	_, err := f.pipeline(time.Second).Generate(context.Background(), generateRequest(0))

	assert.True(t, domain.HasCode(err, domain.CodeInvalidInput))
	f.docs.AssertNotCalled(t, "GetDocumentByID", mock.Anything, mock.Anything)
}
