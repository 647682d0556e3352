package service

import (
	"context"
	"fmt"
	"time"

	"docquiz/internal/domain"
	"docquiz/internal/util"

	"go.uber.org/zap"
)

// QuizPersister writes validated drafts as questions of an existing quiz.
type QuizPersister interface {
	// Persist stores every draft or none of them and returns the number stored.
	Persist(ctx context.Context, quizID, ownerID string, drafts []domain.QuestionDraft) (int, error)
}

type quizPersister struct {
	quizRepo  domain.QuizRepository
	txManager domain.TransactionManager
	logger    *zap.Logger
	newID     func() string
	now       func() time.Time
}

func NewQuizPersister(quizRepo domain.QuizRepository, txManager domain.TransactionManager, logger *zap.Logger) QuizPersister {
	return &quizPersister{
		quizRepo:  quizRepo,
		txManager: txManager,
		logger:    logger,
		newID:     util.NewULID,
		now:       time.Now,
	}
}

func (p *quizPersister) Persist(ctx context.Context, quizID, ownerID string, drafts []domain.QuestionDraft) (int, error) {
	if len(drafts) == 0 {
		return 0, nil
	}

	inserted := 0
	err := p.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		inserted = 0
		for i, draft := range drafts {
			if err := txCtx.Err(); err != nil {
				return err
			}
			if err := draft.Validate(); err != nil {
				return fmt.Errorf("draft %d: %w", i, err)
			}
			question := draft.ToQuestion(p.newID(), quizID, ownerID, p.newID)
			question.CreatedAt = p.now()
			if err := p.quizRepo.InsertQuestion(txCtx, question); err != nil {
				return fmt.Errorf("draft %d: %w", i, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		p.logger.Error("QuizPersister: failed to persist questions, rolled back",
			zap.String("quizID", quizID),
			zap.Int("drafts", len(drafts)),
			zap.Error(err))
		return 0, domain.NewPersistenceError("Failed to save generated questions", err)
	}

	p.logger.Info("QuizPersister: questions persisted",
		zap.String("quizID", quizID),
		zap.Int("count", inserted))
	return inserted, nil
}
