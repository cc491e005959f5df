package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/repository"
)

type rentalRepository struct {
	mu      sync.Mutex
	now     func() time.Time
	rentals map[uuid.UUID]*domain.Rental
	nextMsg int64
}

func NewRentalRepository(now func() time.Time) repository.RentalRepository {
	return &rentalRepository{now: now, rentals: make(map[uuid.UUID]*domain.Rental)}
}

func (r *rentalRepository) Create(_ context.Context, rt *domain.Rental) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	now := r.now().UTC()
	rt.CreatedOn = now
	rt.UpdatedOn = now
	rt.Version = 1
	if rt.Messages == nil {
		rt.Messages = []domain.RentalMessage{}
	}
	r.rentals[rt.ID] = rt.Clone()
	return nil
}

func (r *rentalRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Rental, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.rentals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rt.Clone(), nil
}

func (r *rentalRepository) Update(_ context.Context, rt *domain.Rental) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rentals[rt.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != rt.Version {
		return repository.ErrStaleRental
	}

	next := stored.Clone()
	next.Status = rt.Status
	next.ScheduledTime = rt.Clone().ScheduledTime
	next.ScheduledLocation = rt.ScheduledLocation
	next.PickupToken = rt.PickupToken
	next.ReturnToken = rt.ReturnToken
	next.Version = stored.Version + 1
	next.UpdatedOn = r.now().UTC()
	r.rentals[rt.ID] = next

	rt.Version = next.Version
	rt.UpdatedOn = next.UpdatedOn
	return nil
}

func (r *rentalRepository) AppendMessage(_ context.Context, msg *domain.RentalMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rentals[msg.RentalID]
	if !ok {
		return repository.ErrNotFound
	}
	r.nextMsg++
	msg.ID = r.nextMsg
	stored.Messages = append(stored.Messages, *msg)
	stored.UpdatedOn = r.now().UTC()
	return nil
}

func (r *rentalRepository) ListByParty(_ context.Context, userID uuid.UUID, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	r.mu.Lock()
	var matched []domain.Rental
	for _, rt := range r.rentals {
		if !rt.IsParty(userID) {
			continue
		}
		if status != "" && string(rt.Status) != status {
			continue
		}
		matched = append(matched, *rt.Clone())
	}
	r.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedOn.After(matched[j].CreatedOn)
	})

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	total := int32(len(matched))
	start := int64(page-1) * int64(pageSize)
	if start >= int64(len(matched)) {
		return []domain.Rental{}, total, nil
	}
	end := min(start+int64(pageSize), int64(len(matched)))
	return matched[start:end], total, nil
}

func (r *rentalRepository) ListScheduledBetween(_ context.Context, from, to time.Time) ([]domain.Rental, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Rental
	for _, rt := range r.rentals {
		if rt.Status != domain.RentalStatusScheduled || rt.ScheduledTime == nil {
			continue
		}
		if rt.ScheduledTime.Before(from) || !rt.ScheduledTime.Before(to) {
			continue
		}
		out = append(out, *rt.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledTime.Before(*out[j].ScheduledTime)
	})
	return out, nil
}
