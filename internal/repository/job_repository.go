package repository

import (
	"context"
	"fmt"
	"time"

	"docquiz/internal/domain"
	"docquiz/internal/repository/models"
	"docquiz/internal/util"
)

// maxJobErrorLength keeps audit rows small.
const maxJobErrorLength = 1000

type GenerationJobDatabaseAdapter struct {
	db DBTX
}

func NewGenerationJobDatabaseAdapter(db DBTX) domain.GenerationJobRepository {
	return &GenerationJobDatabaseAdapter{db: db}
}

func (a *GenerationJobDatabaseAdapter) CreateJob(ctx context.Context, job *domain.GenerationJob) error {
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	row := toModelJob(job)
	query := `INSERT INTO generation_jobs (id, owner_id, document_id, quiz_id, requested_question_count,
			requested_types, status, stage, error, question_count, created_at, updated_at)
		VALUES (:id, :owner_id, :document_id, :quiz_id, :requested_question_count,
			:requested_types, :status, :stage, :error, :question_count, :created_at, :updated_at)`
	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create generation job: %w", err)
	}
	return nil
}

func (a *GenerationJobDatabaseAdapter) UpdateJobStatus(ctx context.Context, job *domain.GenerationJob) error {
	job.UpdatedAt = time.Now()
	query := `UPDATE generation_jobs
		SET status = $2, stage = $3, error = $4, question_count = $5, updated_at = $6
		WHERE id = $1`
	_, err := GetExecutor(ctx, a.db).ExecContext(ctx, query,
		job.ID,
		string(job.Status),
		string(job.Stage),
		util.StringToNullString(util.Truncate(job.Error, maxJobErrorLength)),
		job.QuestionCount,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update generation job: %w", err)
	}
	return nil
}

func toModelJob(job *domain.GenerationJob) *models.GenerationJob {
	return &models.GenerationJob{
		ID:                     job.ID,
		OwnerID:                job.OwnerID,
		DocumentID:             job.DocumentID,
		QuizID:                 job.QuizID,
		RequestedQuestionCount: job.RequestedQuestionCount,
		RequestedTypes:         models.StringSlice(job.RequestedTypes),
		Status:                 string(job.Status),
		Stage:                  string(job.Stage),
		Error:                  util.StringToNullString(util.Truncate(job.Error, maxJobErrorLength)),
		QuestionCount:          job.QuestionCount,
		CreatedAt:              job.CreatedAt,
		UpdatedAt:              job.UpdatedAt,
	}
}
