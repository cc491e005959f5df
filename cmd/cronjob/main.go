package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	_ "github.com/lib/pq"

	"campus-rentals-backend/internal/config"
	"campus-rentals-backend/internal/jobs"
	"campus-rentals-backend/internal/logger"
	"campus-rentals-backend/internal/repository/postgres"
	"campus-rentals-backend/internal/scheduler"
	"campus-rentals-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'send-exchange-reminders')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Campus Rentals Cronjob Runner...", "log_level", cfg.Log.Level)

	// The standalone runner needs shared storage to see the API server's rentals
	if cfg.Storage.Type != config.StoragePostgres {
		log.Fatalf("Cronjob runner requires postgres storage, got %q", cfg.Storage.Type)
	}

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	var emailService service.EmailService
	if cfg.SendGrid.APIKey == "" {
		emailService = service.NewLogEmailService()
	} else {
		emailService = service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(&jobs.Dependencies{
		Rentals: store.RentalRepository,
		Items:   store.ItemRepository,
		Users:   store.UserRepository,
		Email:   emailService,
	}, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	available := jobRunner.Jobs()
	if job, ok := available[jobName]; ok {
		job()
		return
	}

	logger.Error("Unknown job name", "job", jobName)
	names := make([]string, 0, len(available))
	for name := range available {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("Available jobs:\n")
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}
	os.Exit(1)
}
