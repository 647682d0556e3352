package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"docquiz/internal/domain"
	"docquiz/internal/repository/models"
)

// QuizDatabaseAdapter implements domain.QuizRepository using sqlx.
type QuizDatabaseAdapter struct {
	db DBTX
}

func NewQuizDatabaseAdapter(db DBTX) domain.QuizRepository {
	return &QuizDatabaseAdapter{db: db}
}

func (a *QuizDatabaseAdapter) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	var row models.Quiz
	query := `SELECT id, owner_id, title, description, is_published, created_at, updated_at
		FROM quizzes
		WHERE id = $1`

	if err := GetExecutor(ctx, a.db).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by id: %w", err)
	}
	return &domain.Quiz{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Title:       row.Title,
		Description: row.Description.String,
		IsPublished: row.IsPublished,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func (a *QuizDatabaseAdapter) CountQuestions(ctx context.Context, quizID string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM questions WHERE quiz_id = $1`
	if err := GetExecutor(ctx, a.db).GetContext(ctx, &n, query, quizID); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return n, nil
}

// InsertQuestion writes the question row followed by one multi-row insert of
// its choices. Callers wanting atomicity run it inside WithTransaction.
func (a *QuizDatabaseAdapter) InsertQuestion(ctx context.Context, q *domain.Question) error {
	if len(q.Choices) == 0 {
		return errors.New("question has no choices")
	}
	exec := GetExecutor(ctx, a.db)

	metadata, err := json.Marshal(q.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode question metadata: %w", err)
	}
	createdAt := q.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	questionQuery := `INSERT INTO questions (id, quiz_id, owner_id, type, text, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := exec.ExecContext(ctx, questionQuery,
		q.ID, q.QuizID, q.OwnerID, q.Type, q.Text, models.JSONB(metadata), createdAt,
	); err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}

	query, args := buildChoicesInsert(q.Choices)
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert choices: %w", err)
	}
	return nil
}

const choiceColumns = 5

func buildChoicesInsert(choices []domain.Choice) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO choices (id, question_id, text, is_correct, position) VALUES ")
	args := make([]interface{}, 0, len(choices)*choiceColumns)
	for i, c := range choices {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * choiceColumns
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5)
		args = append(args, c.ID, c.QuestionID, c.Text, c.IsCorrect, c.Position)
	}
	return sb.String(), args
}
