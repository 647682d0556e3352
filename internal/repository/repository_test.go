package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"docquiz/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a new sqlx.DB instance and sqlmock for repository testing.
func setupTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestDocumentDatabaseAdapter_GetDocumentByID(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewDocumentDatabaseAdapter(db)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "owner_id", "storage_path", "mime_type", "filename", "file_size", "created_at"}).
			AddRow("doc1", "user1", "user1/notes.pdf", "application/pdf", "notes.pdf", 1024, now)
		mock.ExpectQuery(regexp.QuoteMeta("FROM documents")).WithArgs("doc1").WillReturnRows(rows)

		doc, err := repo.GetDocumentByID(ctx, "doc1")
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "user1/notes.pdf", doc.StoragePath)
		assert.Equal(t, "application/pdf", doc.MimeType)
		assert.Equal(t, int64(1024), doc.FileSize)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM documents")).WithArgs("missing").WillReturnError(sql.ErrNoRows)

		doc, err := repo.GetDocumentByID(ctx, "missing")
		assert.NoError(t, err)
		assert.Nil(t, doc)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM documents")).WithArgs("doc1").WillReturnError(errors.New("connection reset"))

		doc, err := repo.GetDocumentByID(ctx, "doc1")
		assert.Error(t, err)
		assert.Nil(t, doc)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQuizDatabaseAdapter_GetQuizByID(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewQuizDatabaseAdapter(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "owner_id", "title", "description", "is_published", "created_at", "updated_at"}).
		AddRow("quiz1", "user1", "Biology", nil, false, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM quizzes")).WithArgs("quiz1").WillReturnRows(rows)

	quiz, err := repo.GetQuizByID(context.Background(), "quiz1")
	require.NoError(t, err)
	assert.Equal(t, "Biology", quiz.Title)
	assert.Equal(t, "", quiz.Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func sampleQuestion() *domain.Question {
	d := domain.QuestionDraft{
		Question: "What gas do plants absorb?",
		Choices:  []string{"Oxygen", "Carbon dioxide", "Nitrogen", "Helium"},
		Correct:  "Carbon dioxide",
	}
	ids := []string{"c0", "c1", "c2", "c3"}
	i := 0
	return d.ToQuestion("q1", "quiz1", "user1", func() string {
		id := ids[i]
		i++
		return id
	})
}

func TestQuizDatabaseAdapter_InsertQuestion(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewQuizDatabaseAdapter(db)
	q := sampleQuestion()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO questions")).
		WithArgs("q1", "quiz1", "user1", "mcq", "What gas do plants absorb?", `{}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO choices (id, question_id, text, is_correct, position) VALUES ($1, $2, $3, $4, $5), ($6")).
		WithArgs(
			"c0", "q1", "Oxygen", false, 0,
			"c1", "q1", "Carbon dioxide", true, 1,
			"c2", "q1", "Nitrogen", false, 2,
			"c3", "q1", "Helium", false, 3,
		).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, repo.InsertQuestion(context.Background(), q))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizDatabaseAdapter_InsertQuestion_ChoiceFailure(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewQuizDatabaseAdapter(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO questions")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO choices")).WillReturnError(errors.New("check constraint violated"))

	err := repo.InsertQuestion(context.Background(), sampleQuestion())
	assert.ErrorContains(t, err, "failed to insert choices")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	db, mock := setupTestDB(t)
	tm := NewTransactionManagerAdapter(db)
	repo := NewQuizDatabaseAdapter(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO questions")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO choices")).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		return repo.InsertQuestion(ctx, sampleQuestion())
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_CommitsAndNests(t *testing.T) {
	db, mock := setupTestDB(t)
	tm := NewTransactionManagerAdapter(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE usage").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		return tm.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := GetExecutor(ctx, db).ExecContext(ctx, "UPDATE usage SET ai_calls = 0")
			return err
		})
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageDatabaseAdapter_IncrementIfBelow(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewUsageDatabaseAdapter(db)
	ctx := context.Background()

	t.Run("below limit", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SET ai_calls = ai_calls + 1")).
			WithArgs("user1", 50).
			WillReturnRows(sqlmock.NewRows([]string{"ai_calls"}).AddRow(11))

		used, ok, err := repo.IncrementIfBelow(ctx, "user1", domain.ResourceAICalls, 50)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 11, used)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("at limit", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SET quizzes_created = quizzes_created + 1")).
			WithArgs("user1", 5).
			WillReturnRows(sqlmock.NewRows([]string{"quizzes_created"}))

		used, ok, err := repo.IncrementIfBelow(ctx, "user1", domain.ResourceQuizzesCreated, 5)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 0, used)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown resource", func(t *testing.T) {
		_, _, err := repo.IncrementIfBelow(ctx, "user1", domain.ResourceType("bytes; DROP TABLE usage"), 5)
		assert.Error(t, err)
	})
}

func TestUsageDatabaseAdapter_ResetIfDue(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewUsageDatabaseAdapter(db)
	now := time.Now()
	cutoff := now.AddDate(0, -1, 0)

	mock.ExpectExec(regexp.QuoteMeta("WHERE user_id = $1 AND last_reset <= $3")).
		WithArgs("user1", now, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 1))
	reset, err := repo.ResetIfDue(context.Background(), "user1", cutoff, now)
	require.NoError(t, err)
	assert.True(t, reset)

	mock.ExpectExec(regexp.QuoteMeta("WHERE user_id = $1 AND last_reset <= $3")).
		WithArgs("user1", now, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 0))
	reset, err = repo.ResetIfDue(context.Background(), "user1", cutoff, now)
	require.NoError(t, err)
	assert.False(t, reset)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageDatabaseAdapter_EnsureAndGet(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewUsageDatabaseAdapter(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (user_id) DO NOTHING")).WithArgs("user1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.EnsureCounter(ctx, "user1"))

	rows := sqlmock.NewRows([]string{"user_id", "ai_calls", "documents_uploaded", "quizzes_created", "last_reset", "updated_at"}).
		AddRow("user1", 50, 2, 4, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM usage")).WithArgs("user1").WillReturnRows(rows)
	counter, err := repo.GetCounter(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, 50, counter.Get(domain.ResourceAICalls))
	assert.Equal(t, 2, counter.Get(domain.ResourceDocumentsUploaded))

	mock.ExpectQuery(regexp.QuoteMeta("FROM usage")).WithArgs("nobody").WillReturnError(sql.ErrNoRows)
	counter, err = repo.GetCounter(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, counter)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanDatabaseAdapter_GetActivePlanName(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewPlanDatabaseAdapter(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("JOIN plans p ON p.id = s.plan_id")).WithArgs("user1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Standard"))
	name, err := repo.GetActivePlanName(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "Standard", name)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN plans p ON p.id = s.plan_id")).WithArgs("user2").WillReturnError(sql.ErrNoRows)
	name, err = repo.GetActivePlanName(ctx, "user2")
	require.NoError(t, err)
	assert.Equal(t, "", name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationJobDatabaseAdapter(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewGenerationJobDatabaseAdapter(db)
	ctx := context.Background()

	job := &domain.GenerationJob{
		ID:                     "job1",
		OwnerID:                "user1",
		DocumentID:             "doc1",
		QuizID:                 "quiz1",
		RequestedQuestionCount: 5,
		RequestedTypes:         []string{"mcq"},
		Status:                 domain.JobRunning,
		Stage:                  domain.StageGating,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generation_jobs")).
		WithArgs("job1", "user1", "doc1", "quiz1", 5, `["mcq"]`, "running", "gating", nil, 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.CreateJob(ctx, job))
	assert.False(t, job.CreatedAt.IsZero())

	job.Status = domain.JobFailed
	job.Stage = domain.StageParsing
	job.Error = "Model returned malformed quiz data"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE generation_jobs")).
		WithArgs("job1", "failed", "parsing", "Model returned malformed quiz data", 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateJobStatus(ctx, job))

	assert.NoError(t, mock.ExpectationsWereMet())
}
