package repository

import (
	"context"
	"fmt"
	"time"

	"docquiz/internal/domain"
	"docquiz/internal/repository/models"
	"docquiz/internal/util"
)

// FixtureDatabaseAdapter writes the rows that other services own in
// production (subscriptions, documents and quizzes). It backs the dev seeder.
// Every insert is idempotent on the primary key.
type FixtureDatabaseAdapter struct {
	db DBTX
}

func NewFixtureDatabaseAdapter(db DBTX) *FixtureDatabaseAdapter {
	return &FixtureDatabaseAdapter{db: db}
}

// SaveSubscription subscribes userID to the named plan. It returns false when
// the plan does not exist.
func (a *FixtureDatabaseAdapter) SaveSubscription(ctx context.Context, id, userID, planName string) (bool, error) {
	query := `INSERT INTO subscriptions (id, user_id, plan_id, status)
		SELECT $1, $2, p.id, 'active' FROM plans p WHERE p.name = $3
		ON CONFLICT (id) DO NOTHING`
	res, err := GetExecutor(ctx, a.db).ExecContext(ctx, query, id, userID, planName)
	if err != nil {
		return false, fmt.Errorf("failed to save subscription: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if err := GetExecutor(ctx, a.db).GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM plans WHERE name = $1)`, planName); err != nil {
			return false, fmt.Errorf("failed to check plan: %w", err)
		}
		return exists, nil
	}
	return true, nil
}

func (a *FixtureDatabaseAdapter) SaveDocument(ctx context.Context, doc *domain.Document) error {
	row := models.Document{
		ID:          doc.ID,
		OwnerID:     doc.OwnerID,
		StoragePath: doc.StoragePath,
		MimeType:    doc.MimeType,
		Filename:    doc.Filename,
		FileSize:    doc.FileSize,
		CreatedAt:   orNow(doc.CreatedAt),
	}
	query := `INSERT INTO documents (id, owner_id, storage_path, mime_type, filename, file_size, created_at)
		VALUES (:id, :owner_id, :storage_path, :mime_type, :filename, :file_size, :created_at)
		ON CONFLICT (id) DO NOTHING`
	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (a *FixtureDatabaseAdapter) SaveQuiz(ctx context.Context, quiz *domain.Quiz) error {
	createdAt := orNow(quiz.CreatedAt)
	row := models.Quiz{
		ID:          quiz.ID,
		OwnerID:     quiz.OwnerID,
		Title:       quiz.Title,
		Description: util.StringToNullString(quiz.Description),
		IsPublished: quiz.IsPublished,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	query := `INSERT INTO quizzes (id, owner_id, title, description, is_published, created_at, updated_at)
		VALUES (:id, :owner_id, :title, :description, :is_published, :created_at, :updated_at)
		ON CONFLICT (id) DO NOTHING`
	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save quiz: %w", err)
	}
	return nil
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
