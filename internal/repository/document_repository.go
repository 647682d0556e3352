package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"docquiz/internal/domain"
	"docquiz/internal/repository/models"
)

// DocumentDatabaseAdapter implements domain.DocumentRepository using sqlx.
type DocumentDatabaseAdapter struct {
	db DBTX
}

func NewDocumentDatabaseAdapter(db DBTX) domain.DocumentRepository {
	return &DocumentDatabaseAdapter{db: db}
}

func (a *DocumentDatabaseAdapter) GetDocumentByID(ctx context.Context, id string) (*domain.Document, error) {
	var row models.Document
	query := `SELECT id, owner_id, storage_path, mime_type, filename, file_size, created_at
		FROM documents
		WHERE id = $1`

	if err := GetExecutor(ctx, a.db).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document by id: %w", err)
	}
	return toDomainDocument(&row), nil
}

func toDomainDocument(m *models.Document) *domain.Document {
	return &domain.Document{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		StoragePath: m.StoragePath,
		MimeType:    m.MimeType,
		Filename:    m.Filename,
		FileSize:    m.FileSize,
		CreatedAt:   m.CreatedAt,
	}
}
