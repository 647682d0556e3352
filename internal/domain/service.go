package domain

import (
	"context"
	"time"
)

// TransactionManager runs fn inside a database transaction carried by ctx.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// DocumentRepository reads document metadata rows.
type DocumentRepository interface {
	// GetDocumentByID returns nil, nil when the document does not exist.
	GetDocumentByID(ctx context.Context, id string) (*Document, error)
}

// QuizRepository reads quizzes and appends generated questions.
type QuizRepository interface {
	// GetQuizByID returns nil, nil when the quiz does not exist.
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)

	// InsertQuestion writes the question row and its choices.
	InsertQuestion(ctx context.Context, q *Question) error

	// CountQuestions returns how many questions the quiz already has.
	CountQuestions(ctx context.Context, quizID string) (int, error)
}

// UsageRepository owns the per-user counter row. Every method participates
// in the transaction carried by ctx, if any.
type UsageRepository interface {
	// EnsureCounter creates a zeroed row for the user if none exists.
	EnsureCounter(ctx context.Context, userID string) error

	// ResetIfDue zeroes every counter when last_reset is at or before cutoff.
	// It reports whether a reset happened.
	ResetIfDue(ctx context.Context, userID string, cutoff, now time.Time) (bool, error)

	// IncrementIfBelow atomically adds one to the resource counter when it is
	// below limit (or limit is Unlimited). ok is false when the limit is reached,
	// in which case the counter is untouched.
	IncrementIfBelow(ctx context.Context, userID string, resource ResourceType, limit int) (used int, ok bool, err error)

	// GetCounter returns nil, nil when the user has no row yet.
	GetCounter(ctx context.Context, userID string) (*UsageCounter, error)
}

// PlanRepository resolves subscription plans.
type PlanRepository interface {
	// GetActivePlanName returns "" when the user has no active subscription.
	GetActivePlanName(ctx context.Context, userID string) (string, error)
}

// GenerationJobRepository stores pipeline audit rows.
type GenerationJobRepository interface {
	CreateJob(ctx context.Context, job *GenerationJob) error
	UpdateJobStatus(ctx context.Context, job *GenerationJob) error
}
