package jobs

import (
	"sync"
	"time"

	"campus-rentals-backend/internal/config"
	"campus-rentals-backend/internal/logger"
	"campus-rentals-backend/internal/repository"
	"campus-rentals-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	deps   *Dependencies
	config *config.Config
	now    func() time.Time

	mu       sync.Mutex
	reminded map[reminderKey]time.Time
}

// Dependencies holds the stores and services needed by jobs
type Dependencies struct {
	Rentals repository.RentalRepository
	Items   repository.ItemRepository
	Users   repository.UserRepository
	Email   service.EmailService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(deps *Dependencies, cfg *config.Config) *JobRunner {
	return &JobRunner{
		deps:     deps,
		config:   cfg,
		now:      time.Now,
		reminded: make(map[reminderKey]time.Time),
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// Jobs maps job names accepted by -run-once to their entry points.
func (jr *JobRunner) Jobs() map[string]func() {
	return map[string]func(){
		"send-exchange-reminders": jr.SendExchangeReminders,
	}
}
