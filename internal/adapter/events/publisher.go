// Package events publishes generation job status changes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"docquiz/internal/config"
	"docquiz/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher sends JobEvents as persistent JSON messages to a durable queue.
type RabbitPublisher struct {
	conn   *amqp.Connection
	queue  string
	logger *zap.Logger

	mu sync.Mutex
	ch channel
}

// Dial connects to the broker and declares the queue.
func Dial(url, queue string, logger *zap.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	p, err := newRabbitPublisher(ch, queue, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newRabbitPublisher(ch channel, queue string, logger *zap.Logger) (*RabbitPublisher, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue failed: %w", err)
	}
	return &RabbitPublisher{ch: ch, queue: queue, logger: logger}, nil
}

func (p *RabbitPublisher) PublishJobEvent(ctx context.Context, event domain.JobEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal job event failed: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.JobID + ":" + string(event.Status),
		Timestamp:    event.OccurredAt,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish job event failed: %w", err)
	}
	p.logger.Debug("Published job event",
		zap.String("job_id", event.JobID),
		zap.String("status", string(event.Status)))
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishJobEvent(context.Context, domain.JobEvent) error { return nil }
func (NopPublisher) Close() error { return nil }

// New builds the publisher selected by cfg.Backend.
func New(cfg config.EventsConfig, logger *zap.Logger) (domain.JobEventPublisher, error) {
	switch cfg.Backend {
	case "rabbitmq":
		return Dial(cfg.URL, cfg.Queue, logger)
	case "none", "":
		return NopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unsupported events backend %q", cfg.Backend)
	}
}

// EventFromJob snapshots a job for publishing.
func EventFromJob(job *domain.GenerationJob, now time.Time) domain.JobEvent {
	return domain.JobEvent{
		JobID:         job.ID,
		QuizID:        job.QuizID,
		DocumentID:    job.DocumentID,
		OwnerID:       job.OwnerID,
		Status:        job.Status,
		Stage:         job.Stage,
		QuestionCount: job.QuestionCount,
		Error:         job.Error,
		OccurredAt:    now,
	}
}
