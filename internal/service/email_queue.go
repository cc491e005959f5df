package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"campus-rentals-backend/internal/logger"
)

var (
	ErrEmailQueueFull   = errors.New("email queue is full")
	ErrEmailQueueClosed = errors.New("email queue is closed")
)

type EmailQueueConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
	MaxRetries  int
	// RetryBackoff is multiplied by the square of the attempt number.
	RetryBackoff time.Duration
}

type emailJob struct {
	kind     string
	rentalID uuid.UUID
	send     func(ctx context.Context, email EmailService) error
}

// EmailQueue delivers notifications with a fixed pool of workers. Each
// attempt gets its own deadline, independent of the request that queued it.
type EmailQueue struct {
	email EmailService
	cfg   EmailQueueConfig
	jobs  chan emailJob
	done  chan struct{}
	log   *slog.Logger

	mu      sync.RWMutex
	closed  bool
	workers sync.WaitGroup
	pending sync.WaitGroup
	once    sync.Once
}

func NewEmailQueue(email EmailService, cfg EmailQueueConfig) *EmailQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &EmailQueue{
		email: email,
		cfg:   cfg,
		jobs:  make(chan emailJob, cfg.QueueSize),
		done:  make(chan struct{}),
		log:   logger.WithService("email_queue"),
	}
}

// Start launches the workers.
func (q *EmailQueue) Start() {
	for i := 0; i < q.cfg.Workers; i++ {
		q.workers.Add(1)
		go q.worker()
	}
	q.log.Info("Email queue started", "workers", q.cfg.Workers, "queue_size", q.cfg.QueueSize)
}

func (q *EmailQueue) Enqueue(kind string, rentalID uuid.UUID, send func(ctx context.Context, email EmailService) error) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrEmailQueueClosed
	}
	q.pending.Add(1)
	select {
	case q.jobs <- emailJob{kind: kind, rentalID: rentalID, send: send}:
		return nil
	default:
		q.pending.Done()
		return ErrEmailQueueFull
	}
}

// Wait blocks until every job queued so far has been processed.
func (q *EmailQueue) Wait() {
	q.pending.Wait()
}

// Close stops accepting jobs, lets the workers drain what is queued and
// returns once they exit. Pending retries are abandoned.
func (q *EmailQueue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.jobs)
		close(q.done)
		q.mu.Unlock()
		q.workers.Wait()
		q.log.Info("Email queue stopped")
	})
}

func (q *EmailQueue) worker() {
	defer q.workers.Done()
	for job := range q.jobs {
		q.process(job)
		q.pending.Done()
	}
}

func (q *EmailQueue) process(job emailJob) {
	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), q.cfg.SendTimeout)
		err := job.send(ctx, q.email)
		cancel()
		if err == nil {
			q.log.Debug("Notification sent", "rental_id", job.rentalID, "kind", job.kind, "attempt", attempt+1)
			return
		}
		if attempt >= q.cfg.MaxRetries {
			logger.BestEffortFailure("email", err, "rental_id", job.rentalID, "kind", job.kind, "attempts", attempt+1)
			return
		}

		backoff := q.cfg.RetryBackoff * time.Duration((attempt+1)*(attempt+1))
		select {
		case <-time.After(backoff):
		case <-q.done:
			logger.BestEffortFailure("email", err, "rental_id", job.rentalID, "kind", job.kind, "attempts", attempt+1, "reason", "shutdown")
			return
		}
	}
}
