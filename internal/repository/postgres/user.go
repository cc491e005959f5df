package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedOn = time.Now().UTC()
	query := `INSERT INTO users (id, name, email, created_on) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.CreatedOn); err != nil {
		return errors.Wrap(err, "failed to insert user")
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT id, name, email, created_on FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedOn)
	if err != nil {
		return nil, notFound(err, "failed to load user")
	}
	return u, nil
}
