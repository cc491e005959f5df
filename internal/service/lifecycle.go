package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/logger"
	"campus-rentals-backend/internal/relay"
	"campus-rentals-backend/internal/repository"
)

// lifecycle holds what the engine and the exchange verifier share: loading,
// version-checked persistence and the best-effort side effects that follow a
// committed transition.
type lifecycle struct {
	rentalRepo repository.RentalRepository
	itemRepo   repository.ItemRepository
	userRepo   repository.UserRepository
	notifier   Notifier
	relay      MessageRelay
	now        func() time.Time
}

type statusChange struct {
	From    domain.RentalStatus `json:"from"`
	To      domain.RentalStatus `json:"to"`
	Version int64               `json:"version"`
}

func (l *lifecycle) load(ctx context.Context, rentalID uuid.UUID) (*domain.Rental, error) {
	rt, err := l.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("rental not found")
		}
		return nil, domain.Internal(err, "failed to load rental")
	}
	return rt, nil
}

// mutate runs one read-modify-write cycle. apply sees a private copy; when
// another writer commits first the caller gets InvalidState naming the status
// that won.
func (l *lifecycle) mutate(ctx context.Context, op string, rentalID uuid.UUID, apply func(rt *domain.Rental) error) (*domain.Rental, domain.RentalStatus, error) {
	rt, err := l.load(ctx, rentalID)
	if err != nil {
		return nil, "", err
	}
	from := rt.Status
	if err := apply(rt); err != nil {
		return nil, from, err
	}

	if err := l.rentalRepo.Update(ctx, rt); err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleRental):
			current, lerr := l.load(ctx, rentalID)
			if lerr != nil {
				return nil, from, lerr
			}
			logger.Warn("Lost concurrent update", "op", op, "rental_id", rentalID, "status", current.Status)
			return nil, from, domain.InvalidState("rental was modified concurrently; it is now '%s'", current.Status)
		case errors.Is(err, repository.ErrNotFound):
			return nil, from, domain.NotFound("rental not found")
		default:
			return nil, from, domain.Internal(err, "failed to update rental")
		}
	}

	logger.Transition(rt.ID, string(from), string(rt.Status), "op", op, "version", rt.Version)
	l.publishStatus(ctx, rt, from)
	return rt, from, nil
}

func (l *lifecycle) publish(ctx context.Context, rentalID uuid.UUID, eventType string, data any) {
	if l.relay == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		logger.BestEffortFailure("relay", err, "rental_id", rentalID, "event", eventType)
		return
	}
	payload, err := json.Marshal(relay.Event{
		Type:     eventType,
		RentalID: rentalID.String(),
		SentAt:   l.now().UTC(),
		Data:     raw,
	})
	if err != nil {
		logger.BestEffortFailure("relay", err, "rental_id", rentalID, "event", eventType)
		return
	}
	if err := l.relay.Publish(ctx, relay.RentalChannel(rentalID.String()), payload); err != nil {
		logger.BestEffortFailure("relay", err, "rental_id", rentalID, "event", eventType)
	}
}

func (l *lifecycle) publishStatus(ctx context.Context, rt *domain.Rental, from domain.RentalStatus) {
	l.publish(ctx, rt.ID, relay.EventStatusChanged, statusChange{From: from, To: rt.Status, Version: rt.Version})
}

// parties resolves the people and item behind a rental for notifications.
// Missing records come back nil.
func (l *lifecycle) parties(ctx context.Context, rt *domain.Rental) (renter, owner *domain.User, itemTitle string) {
	renter, _ = l.userRepo.GetByID(ctx, rt.RenterID)
	owner, _ = l.userRepo.GetByID(ctx, rt.OwnerID)
	itemTitle = "your item"
	if item, err := l.itemRepo.GetByID(ctx, rt.ItemID); err == nil {
		itemTitle = item.Title
	}
	return renter, owner, itemTitle
}

// notify hands send to the notifier. Delivery happens after the caller
// returns, so send must not capture the request context.
func (l *lifecycle) notify(rentalID uuid.UUID, kind string, send func(ctx context.Context, email EmailService) error) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Enqueue(kind, rentalID, send); err != nil {
		logger.BestEffortFailure("email", err, "rental_id", rentalID, "kind", kind)
	}
}
