// Package memory keeps all records in process memory. It backs the "memory"
// storage type used for local development and the service-level tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/repository"
)

type Store struct {
	repository.UserRepository
	repository.ItemRepository
	repository.RentalRepository
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock is NewStore with an injectable time source for
// created_on/updated_on stamps.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		UserRepository:   NewUserRepository(now),
		ItemRepository:   NewItemRepository(now),
		RentalRepository: NewRentalRepository(now),
	}
}

type userRepository struct {
	mu    sync.RWMutex
	now   func() time.Time
	users map[uuid.UUID]domain.User
}

func NewUserRepository(now func() time.Time) repository.UserRepository {
	return &userRepository{now: now, users: make(map[uuid.UUID]domain.User)}
}

func (r *userRepository) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedOn = r.now().UTC()
	r.users[u.ID] = *u
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

type itemRepository struct {
	mu    sync.RWMutex
	now   func() time.Time
	items map[uuid.UUID]domain.Item
}

func NewItemRepository(now func() time.Time) repository.ItemRepository {
	return &itemRepository{now: now, items: make(map[uuid.UUID]domain.Item)}
}

func (r *itemRepository) Create(_ context.Context, it *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	it.CreatedOn = r.now().UTC()
	r.items[it.ID] = *it
	return nil
}

func (r *itemRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}
