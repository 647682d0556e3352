package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"docquiz/internal/domain"
	"docquiz/internal/repository/models"
)

// usageColumns whitelists the counter columns a resource may touch.
var usageColumns = map[domain.ResourceType]string{
	domain.ResourceAICalls:           "ai_calls",
	domain.ResourceDocumentsUploaded: "documents_uploaded",
	domain.ResourceQuizzesCreated:    "quizzes_created",
}

// UsageDatabaseAdapter implements domain.UsageRepository on PostgreSQL.
type UsageDatabaseAdapter struct {
	db DBTX
}

func NewUsageDatabaseAdapter(db DBTX) domain.UsageRepository {
	return &UsageDatabaseAdapter{db: db}
}

func (a *UsageDatabaseAdapter) EnsureCounter(ctx context.Context, userID string) error {
	query := `INSERT INTO usage (user_id, ai_calls, documents_uploaded, quizzes_created, last_reset, updated_at)
		VALUES ($1, 0, 0, 0, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING`
	if _, err := GetExecutor(ctx, a.db).ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to ensure usage row: %w", err)
	}
	return nil
}

func (a *UsageDatabaseAdapter) ResetIfDue(ctx context.Context, userID string, cutoff, now time.Time) (bool, error) {
	query := `UPDATE usage
		SET ai_calls = 0, documents_uploaded = 0, quizzes_created = 0, last_reset = $2, updated_at = $2
		WHERE user_id = $1 AND last_reset <= $3`
	res, err := GetExecutor(ctx, a.db).ExecContext(ctx, query, userID, now, cutoff)
	if err != nil {
		return false, fmt.Errorf("failed to reset usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read reset result: %w", err)
	}
	return n > 0, nil
}

// IncrementIfBelow relies on the row lock taken by UPDATE: concurrent callers
// queue on the row and re-evaluate the limit predicate against the committed value.
func (a *UsageDatabaseAdapter) IncrementIfBelow(ctx context.Context, userID string, resource domain.ResourceType, limit int) (int, bool, error) {
	col, ok := usageColumns[resource]
	if !ok {
		return 0, false, fmt.Errorf("unknown resource type %q", resource)
	}

	query := fmt.Sprintf(`UPDATE usage
		SET %[1]s = %[1]s + 1, updated_at = NOW()
		WHERE user_id = $1 AND ($2 = -1 OR %[1]s < $2)
		RETURNING %[1]s`, col)

	var used int
	err := GetExecutor(ctx, a.db).GetContext(ctx, &used, query, userID, limit)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to increment %s: %w", col, err)
	}
	return used, true, nil
}

func (a *UsageDatabaseAdapter) GetCounter(ctx context.Context, userID string) (*domain.UsageCounter, error) {
	var row models.Usage
	query := `SELECT user_id, ai_calls, documents_uploaded, quizzes_created, last_reset, updated_at
		FROM usage
		WHERE user_id = $1`
	if err := GetExecutor(ctx, a.db).GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}
	return &domain.UsageCounter{
		UserID:            row.UserID,
		AICalls:           row.AICalls,
		DocumentsUploaded: row.DocumentsUploaded,
		QuizzesCreated:    row.QuizzesCreated,
		LastReset:         row.LastReset,
		UpdatedAt:         row.UpdatedAt,
	}, nil
}
