package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	httpapi "campus-rentals-backend/internal/api/http"
	"campus-rentals-backend/internal/config"
	"campus-rentals-backend/internal/jobs"
	"campus-rentals-backend/internal/logger"
	"campus-rentals-backend/internal/relay"
	"campus-rentals-backend/internal/repository"
	"campus-rentals-backend/internal/repository/memory"
	"campus-rentals-backend/internal/repository/postgres"
	"campus-rentals-backend/internal/scheduler"
	"campus-rentals-backend/internal/security"
	"campus-rentals-backend/internal/service"
)

type stores struct {
	users   repository.UserRepository
	items   repository.ItemRepository
	rentals repository.RentalRepository
}

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	devToken := flag.String("dev-token", "", "Print an access token for this user id and exit")
	devTokenEmail := flag.String("dev-token-email", "", "Email claim for -dev-token")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Campus Rentals Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	if *devToken != "" {
		tok, err := issueDevToken(cfg, *devToken, *devTokenEmail)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(tok)
		return
	}

	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "storage", cfg.Storage.Type)

	// Initialize Repositories
	st, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	// Initialize Messaging Relay
	rentalRelay := relay.New(relay.Config{OutputBuffer: cfg.Relay.OutputBuffer})
	defer rentalRelay.Close()

	// Initialize Email Service
	var emailSvc service.EmailService
	if cfg.SendGrid.APIKey == "" {
		logger.Warn("SendGrid API key not configured, emails will only be logged")
		emailSvc = service.NewLogEmailService()
	} else {
		emailSvc = service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	}

	emailQueue := service.NewEmailQueue(emailSvc, service.EmailQueueConfig{
		Workers:      cfg.Email.Workers,
		QueueSize:    cfg.Email.QueueSize,
		SendTimeout:  cfg.EmailSendTimeout(),
		MaxRetries:   cfg.Email.MaxRetries,
		RetryBackoff: cfg.EmailRetryBackoff(),
	})
	emailQueue.Start()

	// Initialize Services
	rentalSvc := service.NewRentalService(st.rentals, st.items, st.users, security.NewExchangeTokenGenerator(), emailQueue, rentalRelay)
	verifier := service.NewExchangeVerifier(st.rentals, st.items, st.users, emailQueue, rentalRelay)
	messageSvc := service.NewMessageService(st.rentals, rentalRelay)
	itemSvc := service.NewItemService(st.items)

	// Initialize HTTP handlers
	handler := httpapi.NewHandler(rentalSvc, verifier, messageSvc, itemSvc, rentalRelay)
	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(handler, tokenManager),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Optionally run scheduled jobs in this process
	var cronScheduler *scheduler.Scheduler
	if cfg.Scheduler.InProcess {
		jobRunner := jobs.NewJobRunner(&jobs.Dependencies{
			Rentals: st.rentals,
			Items:   st.items,
			Users:   st.users,
			Email:   emailSvc,
		}, cfg)
		cronScheduler, err = scheduler.NewScheduler(jobRunner)
		if err != nil {
			log.Fatalf("Failed to initialize scheduler: %v", err)
		}
		cronScheduler.Start()
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down server...")
	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown did not complete", "error", err)
	}
	emailQueue.Close()
	logger.Info("Server stopped. Goodbye!")
}

// issueDevToken signs an access token for userID with the configured secret
// so the API can be exercised before an identity provider is wired in.
func issueDevToken(cfg *config.Config, userID, email string) (string, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return "", errors.Wrap(err, "invalid user id")
	}
	return security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL()).GenerateAccessToken(id, email)
}

// openStore returns the configured repositories and a function releasing
// their resources.
func openStore(cfg *config.Config) (*stores, func(), error) {
	if cfg.Storage.Type == config.StorageMemory {
		logger.Info("Using in-memory storage, data is lost on restart")
		m := memory.NewStore()
		return &stores{users: m.UserRepository, items: m.ItemRepository, rentals: m.RentalRepository}, func() {}, nil
	}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("Database connection established")

	if err := postgres.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	p := postgres.NewStore(db)
	return &stores{users: p.UserRepository, items: p.ItemRepository, rentals: p.RentalRepository}, func() { db.Close() }, nil
}
