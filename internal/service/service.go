package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
)

// RentalService is the rental lifecycle engine. Every mutating call is a
// single load-validate-apply-persist cycle guarded by the rental version.
type RentalService interface {
	RequestRental(ctx context.Context, renterID, itemID uuid.UUID, quantity int32) (*domain.Rental, error)
	Decide(ctx context.Context, rentalID, actorID uuid.UUID, decision domain.RentalStatus) (*domain.Rental, error)
	Schedule(ctx context.Context, rentalID uuid.UUID, scheduledTime time.Time, scheduledLocation string) (*domain.Rental, error)
	Cancel(ctx context.Context, rentalID, actorID uuid.UUID) (*domain.Rental, error)
	GetRental(ctx context.Context, userID, rentalID uuid.UUID) (*domain.Rental, error)
	ListMyRentals(ctx context.Context, userID uuid.UUID, status string, page, pageSize int32) ([]domain.Rental, int32, error)
}

// ExchangeResult reports the outcome of a successful token presentation.
type ExchangeResult struct {
	Rental    *domain.Rental
	NewStatus domain.RentalStatus
	Message   string
}

type ExchangeVerifier interface {
	VerifyExchange(ctx context.Context, rentalID uuid.UUID, token string) (*ExchangeResult, error)
}

type MessageService interface {
	AppendMessage(ctx context.Context, rentalID, senderID uuid.UUID, text string) (*domain.RentalMessage, error)
}

type ItemService interface {
	CreateItem(ctx context.Context, ownerID uuid.UUID, item *domain.Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error)
}

type EmailService interface {
	SendRentalRequestNotification(ctx context.Context, ownerEmail, renterName, itemTitle string) error
	SendRentalDecisionNotification(ctx context.Context, renterEmail, itemTitle string, decision domain.RentalStatus) error
	SendExchangeScheduledNotification(ctx context.Context, email, itemTitle string, at time.Time, location string) error
	SendRentalCancellationNotification(ctx context.Context, ownerEmail, renterName, itemTitle string) error
	SendRentalCompletedNotification(ctx context.Context, email, itemTitle string) error
	SendExchangeReminder(ctx context.Context, email, itemTitle string, at time.Time, location string) error
}

// Notifier accepts notification sends and runs them off the request path.
// Enqueue never waits for delivery.
type Notifier interface {
	Enqueue(kind string, rentalID uuid.UUID, send func(ctx context.Context, email EmailService) error) error
}

// MessageRelay delivers payloads to whoever is subscribed to channel.
// Implementations must not block on slow subscribers.
type MessageRelay interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
