package domain

import (
	"context"
	"time"
)

// JobStatus is the lifecycle state of a GenerationJob row. The synchronous
// pipeline inserts jobs as running; queued is reserved for jobs recorded
// ahead of execution.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Stage is a step of the generation pipeline. A failed job keeps the stage it failed in.
type Stage string

const (
	StageGating     Stage = "gating"
	StageExtracting Stage = "extracting"
	StageComposing  Stage = "composing"
	StageInvoking   Stage = "invoking"
	StageParsing    Stage = "parsing"
	StagePersisting Stage = "persisting"
	StageDone       Stage = "done"
)

// GenerationJob is the audit record of one pipeline run.
type GenerationJob struct {
	ID                     string
	OwnerID                string
	DocumentID             string
	QuizID                 string
	RequestedQuestionCount int
	RequestedTypes         []string
	Status                 JobStatus
	Stage                  Stage
	Error                  string
	QuestionCount          int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// JobEvent is published whenever a job changes status.
type JobEvent struct {
	JobID         string    `json:"job_id"`
	QuizID        string    `json:"quiz_id"`
	DocumentID    string    `json:"document_id"`
	OwnerID       string    `json:"owner_id"`
	Status        JobStatus `json:"status"`
	Stage         Stage     `json:"stage"`
	QuestionCount int       `json:"question_count,omitempty"`
	Error         string    `json:"error,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// JobEventPublisher fans job status changes out to other systems.
type JobEventPublisher interface {
	PublishJobEvent(ctx context.Context, event JobEvent) error
	Close() error
}
