package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/logger"
	"campus-rentals-backend/internal/repository"
	"campus-rentals-backend/internal/security"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type rentalService struct {
	*lifecycle
	tokens security.ExchangeTokenGenerator
}

func NewRentalService(
	rentalRepo repository.RentalRepository,
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	tokens security.ExchangeTokenGenerator,
	notifier Notifier,
	relay MessageRelay,
) RentalService {
	return &rentalService{
		lifecycle: &lifecycle{
			rentalRepo: rentalRepo,
			itemRepo:   itemRepo,
			userRepo:   userRepo,
			notifier:   notifier,
			relay:      relay,
			now:        time.Now,
		},
		tokens: tokens,
	}
}

func (s *rentalService) RequestRental(ctx context.Context, renterID, itemID uuid.UUID, quantity int32) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.RequestRental", "renterID", renterID, "itemID", itemID, "quantity", quantity)

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("item not found")
		}
		return nil, domain.Internal(err, "failed to load item")
	}
	if !item.IsAvailable {
		return nil, domain.InvalidState("This item is not currently available.")
	}

	rt, err := domain.NewRental(item, renterID, quantity)
	if err != nil {
		logger.ExitMethodWithError("rentalService.RequestRental", err, "itemID", itemID)
		return nil, err
	}
	if err := s.rentalRepo.Create(ctx, rt); err != nil {
		logger.ExitMethodWithError("rentalService.RequestRental", err, "itemID", itemID)
		return nil, domain.Internal(err, "failed to create rental")
	}
	logger.Transition(rt.ID, "", string(rt.Status), "op", "request", "total_price_cents", rt.TotalPriceCents)

	renter, owner, _ := s.parties(ctx, rt)
	if owner != nil {
		renterName := "A student"
		if renter != nil {
			renterName = renter.Name
		}
		to, title := owner.Email, item.Title
		s.notify(rt.ID, "request", func(ctx context.Context, email EmailService) error {
			return email.SendRentalRequestNotification(ctx, to, renterName, title)
		})
	}

	logger.ExitMethod("rentalService.RequestRental", "rentalID", rt.ID)
	return rt, nil
}

func (s *rentalService) Decide(ctx context.Context, rentalID, actorID uuid.UUID, decision domain.RentalStatus) (*domain.Rental, error) {
	if decision != domain.RentalStatusApproved && decision != domain.RentalStatusDenied {
		return nil, domain.InvalidInput("invalid decision %q", decision)
	}

	rt, _, err := s.mutate(ctx, "decide", rentalID, func(rt *domain.Rental) error {
		return rt.Decide(actorID, decision)
	})
	if err != nil {
		return nil, err
	}

	renter, _, title := s.parties(ctx, rt)
	if renter != nil {
		to := renter.Email
		s.notify(rt.ID, "decision", func(ctx context.Context, email EmailService) error {
			return email.SendRentalDecisionNotification(ctx, to, title, decision)
		})
	}
	return rt, nil
}

// Schedule has neither an actor nor a status precondition. Either party may
// reschedule at any time and each call replaces both tokens.
func (s *rentalService) Schedule(ctx context.Context, rentalID uuid.UUID, scheduledTime time.Time, scheduledLocation string) (*domain.Rental, error) {
	rt, from, err := s.mutate(ctx, "schedule", rentalID, func(rt *domain.Rental) error {
		pickup, ret, err := s.tokens.NewPair()
		if err != nil {
			return domain.Internal(err, "failed to generate exchange tokens")
		}
		rt.Schedule(scheduledTime, scheduledLocation, pickup, ret)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if from != domain.RentalStatusApproved && from != domain.RentalStatusScheduled {
		logger.Warn("Rental scheduled outside the approved state", "rental_id", rt.ID, "from", from)
	}

	renter, owner, title := s.parties(ctx, rt)
	at, location := *rt.ScheduledTime, rt.ScheduledLocation
	for _, u := range []*domain.User{renter, owner} {
		if u != nil {
			to := u.Email
			s.notify(rt.ID, "schedule", func(ctx context.Context, email EmailService) error {
				return email.SendExchangeScheduledNotification(ctx, to, title, at, location)
			})
		}
	}
	return rt, nil
}

func (s *rentalService) Cancel(ctx context.Context, rentalID, actorID uuid.UUID) (*domain.Rental, error) {
	rt, _, err := s.mutate(ctx, "cancel", rentalID, func(rt *domain.Rental) error {
		return rt.Cancel(actorID)
	})
	if err != nil {
		return nil, err
	}

	renter, owner, title := s.parties(ctx, rt)
	if owner != nil && renter != nil {
		to, renterName := owner.Email, renter.Name
		s.notify(rt.ID, "cancel", func(ctx context.Context, email EmailService) error {
			return email.SendRentalCancellationNotification(ctx, to, renterName, title)
		})
	}
	return rt, nil
}

func (s *rentalService) GetRental(ctx context.Context, userID, rentalID uuid.UUID) (*domain.Rental, error) {
	rt, err := s.load(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if !rt.IsParty(userID) {
		return nil, domain.Unauthorized("you are not a party to this rental")
	}
	return rt, nil
}

func (s *rentalService) ListMyRentals(ctx context.Context, userID uuid.UUID, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	logger.EnterMethod("rentalService.ListMyRentals", "userID", userID, "status", status, "page", page)
	if status != "" && !domain.RentalStatus(status).IsValid() {
		return nil, 0, domain.InvalidInput("unknown rental status %q", status)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	rentals, total, err := s.rentalRepo.ListByParty(ctx, userID, status, page, pageSize)
	if err != nil {
		logger.ExitMethodWithError("rentalService.ListMyRentals", err, "userID", userID)
		return nil, 0, domain.Internal(err, "failed to list rentals")
	}
	logger.ExitMethod("rentalService.ListMyRentals", "userID", userID, "count", len(rentals), "total", total)
	return rentals, total, nil
}
