package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/repository"
)

const (
	msgPickupConfirmed = "Pickup confirmed!"
	msgReturnConfirmed = "Return confirmed!"
)

type exchangeVerifier struct {
	*lifecycle
}

func NewExchangeVerifier(
	rentalRepo repository.RentalRepository,
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	relay MessageRelay,
) ExchangeVerifier {
	return &exchangeVerifier{
		lifecycle: &lifecycle{
			rentalRepo: rentalRepo,
			itemRepo:   itemRepo,
			userRepo:   userRepo,
			notifier:   notifier,
			relay:      relay,
			now:        time.Now,
		},
	}
}

// VerifyExchange advances a scheduled rental on its pickup token and an
// in-progress rental on its return token. There is no identity check; the
// token is the capability.
func (v *exchangeVerifier) VerifyExchange(ctx context.Context, rentalID uuid.UUID, token string) (*ExchangeResult, error) {
	var next domain.RentalStatus
	rt, _, err := v.mutate(ctx, "verify_exchange", rentalID, func(rt *domain.Rental) error {
		status, err := rt.ConfirmExchange(token)
		next = status
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &ExchangeResult{Rental: rt, NewStatus: next, Message: msgPickupConfirmed}
	if next == domain.RentalStatusCompleted {
		result.Message = msgReturnConfirmed
		renter, owner, title := v.parties(ctx, rt)
		for _, u := range []*domain.User{renter, owner} {
			if u != nil {
				to := u.Email
				v.notify(rt.ID, "completed", func(ctx context.Context, email EmailService) error {
					return email.SendRentalCompletedNotification(ctx, to, title)
				})
			}
		}
	}
	return result, nil
}
