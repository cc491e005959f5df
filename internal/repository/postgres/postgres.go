package postgres

import (
	"database/sql"
	"embed"
	"io/fs"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"campus-rentals-backend/internal/logger"
	"campus-rentals-backend/internal/repository"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.ItemRepository
	repository.RentalRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:               db,
		UserRepository:   NewUserRepository(db),
		ItemRepository:   NewItemRepository(db),
		RentalRepository: NewRentalRepository(db),
	}
}

// Migrate applies all pending embedded migrations.
func Migrate(db *sql.DB) error {
	files, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "failed to open embedded migrations")
	}
	goose.SetBaseFS(files)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "failed to set goose dialect")
	}
	logger.Info("Applying database migrations")
	if err := goose.Up(db, "."); err != nil {
		return errors.Wrap(err, "failed to apply migrations")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// notFound maps sql.ErrNoRows to repository.ErrNotFound and wraps anything else.
func notFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return errors.Wrap(err, msg)
}
