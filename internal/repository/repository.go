package repository

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleRental is returned by RentalRepository.Update when the stored
	// version no longer matches the version the caller loaded.
	ErrStaleRental = errors.New("rental was modified concurrently")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
}

// RentalRepository is the only component allowed to persist rental state.
type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	// GetByID returns the rental with its messages in arrival order.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error)
	// Update writes status, schedule and tokens if rental.Version still matches
	// the stored version, then bumps rental.Version. Otherwise it returns
	// ErrStaleRental and leaves the record untouched.
	Update(ctx context.Context, rental *domain.Rental) error
	// AppendMessage atomically appends msg to the rental's transcript and
	// assigns msg.ID. It does not bump the rental version.
	AppendMessage(ctx context.Context, msg *domain.RentalMessage) error
	ListByParty(ctx context.Context, userID uuid.UUID, status string, page, pageSize int32) ([]domain.Rental, int32, error)
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]domain.Rental, error)
}
