package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StringSlice is stored as a JSON array in a JSONB column.
type StringSlice []string

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	b, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("StringSlice Scan: %w", err)
	}
	if len(b) == 0 || string(b) == "null" {
		*s = StringSlice{}
		return nil
	}
	return json.Unmarshal(b, s)
}

// JSONB holds an arbitrary JSON document.
type JSONB json.RawMessage

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "{}", nil
	}
	if !json.Valid(j) {
		return nil, errors.New("JSONB Value: invalid json")
	}
	return string(j), nil
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	b, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("JSONB Scan: %w", err)
	}
	*j = append((*j)[:0], b...)
	return nil
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}

type Document struct {
	ID          string    `db:"id"`
	OwnerID     string    `db:"owner_id"`
	StoragePath string    `db:"storage_path"`
	MimeType    string    `db:"mime_type"`
	Filename    string    `db:"filename"`
	FileSize    int64     `db:"file_size"`
	CreatedAt   time.Time `db:"created_at"`
}

type Quiz struct {
	ID          string         `db:"id"`
	OwnerID     string         `db:"owner_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	IsPublished bool           `db:"is_published"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type Question struct {
	ID        string    `db:"id"`
	QuizID    string    `db:"quiz_id"`
	OwnerID   string    `db:"owner_id"`
	Type      string    `db:"type"`
	Text      string    `db:"text"`
	Metadata  JSONB     `db:"metadata"`
	CreatedAt time.Time `db:"created_at"`
}

type Choice struct {
	ID         string `db:"id"`
	QuestionID string `db:"question_id"`
	Text       string `db:"text"`
	IsCorrect  bool   `db:"is_correct"`
	Position   int    `db:"position"`
}

type Usage struct {
	UserID            string    `db:"user_id"`
	AICalls           int       `db:"ai_calls"`
	DocumentsUploaded int       `db:"documents_uploaded"`
	QuizzesCreated    int       `db:"quizzes_created"`
	LastReset         time.Time `db:"last_reset"`
	UpdatedAt         time.Time `db:"updated_at"`
}

type GenerationJob struct {
	ID                     string         `db:"id"`
	OwnerID                string         `db:"owner_id"`
	DocumentID             string         `db:"document_id"`
	QuizID                 string         `db:"quiz_id"`
	RequestedQuestionCount int            `db:"requested_question_count"`
	RequestedTypes         StringSlice    `db:"requested_types"`
	Status                 string         `db:"status"`
	Stage                  string         `db:"stage"`
	Error                  sql.NullString `db:"error"`
	QuestionCount          int            `db:"question_count"`
	CreatedAt              time.Time      `db:"created_at"`
	UpdatedAt              time.Time      `db:"updated_at"`
}
