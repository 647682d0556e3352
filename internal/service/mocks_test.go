package service

import (
	"context"
	"time"

	"docquiz/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockTransactionManager ---
// Runs fn unless an error is configured, so callbacks see rollback-worthy errors.
type MockTransactionManager struct {
	mock.Mock
	fnErr error
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	m.fnErr = fn(ctx)
	return m.fnErr
}

// --- MockUsageRepository ---
type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) EnsureCounter(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUsageRepository) ResetIfDue(ctx context.Context, userID string, cutoff, now time.Time) (bool, error) {
	args := m.Called(ctx, userID, cutoff, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsageRepository) IncrementIfBelow(ctx context.Context, userID string, resource domain.ResourceType, limit int) (int, bool, error) {
	args := m.Called(ctx, userID, resource, limit)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockUsageRepository) GetCounter(ctx context.Context, userID string) (*domain.UsageCounter, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UsageCounter), args.Error(1)
}

// --- MockPlanRepository ---
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) GetActivePlanName(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- MockQuizRepository ---
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quiz), args.Error(1)
}

func (m *MockQuizRepository) InsertQuestion(ctx context.Context, q *domain.Question) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuizRepository) CountQuestions(ctx context.Context, quizID string) (int, error) {
	args := m.Called(ctx, quizID)
	return args.Int(0), args.Error(1)
}

// --- MockDocumentRepository ---
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) GetDocumentByID(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

// --- MockGenerationJobRepository ---
type MockGenerationJobRepository struct {
	mock.Mock
}

func (m *MockGenerationJobRepository) CreateJob(ctx context.Context, job *domain.GenerationJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockGenerationJobRepository) UpdateJobStatus(ctx context.Context, job *domain.GenerationJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// --- MockUsageGate ---
type MockUsageGate struct {
	mock.Mock
}

func (m *MockUsageGate) CheckAndConsume(ctx context.Context, userID string, resource domain.ResourceType) (*domain.UsageDecision, error) {
	args := m.Called(ctx, userID, resource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UsageDecision), args.Error(1)
}

func (m *MockUsageGate) CheckAndConsumeAll(ctx context.Context, userID string, resources []domain.ResourceType) ([]*domain.UsageDecision, error) {
	args := m.Called(ctx, userID, resources)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UsageDecision), args.Error(1)
}

// --- MockBlobStore ---
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Download(ctx context.Context, path string) ([]byte, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// --- MockCompletionService ---
type MockCompletionService struct {
	mock.Mock
}

func (m *MockCompletionService) Complete(ctx context.Context, p domain.Prompt) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MockCompletionService) Name() string {
	return "mock/model"
}

// --- MockJobEventPublisher ---
type MockJobEventPublisher struct {
	mock.Mock
}

func (m *MockJobEventPublisher) PublishJobEvent(ctx context.Context, event domain.JobEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockJobEventPublisher) Close() error {
	return nil
}

// noopLocker always grants the lock.
type noopLocker struct{ acquired int }

func (l *noopLocker) Acquire(ctx context.Context, quizID string) (func(), error) {
	l.acquired++
	return func() {}, nil
}
