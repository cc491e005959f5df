package service

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/logger"
	"campus-rentals-backend/internal/repository"
)

type itemService struct {
	itemRepo repository.ItemRepository
}

func NewItemService(itemRepo repository.ItemRepository) ItemService {
	return &itemService{itemRepo: itemRepo}
}

func (s *itemService) CreateItem(ctx context.Context, ownerID uuid.UUID, item *domain.Item) error {
	item.OwnerID = ownerID
	item.Normalize()
	if err := item.Validate(); err != nil {
		return err
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		logger.ExitMethodWithError("itemService.CreateItem", err, "ownerID", ownerID)
		return domain.Internal(err, "failed to create item")
	}
	logger.Info("Item listed", "item_id", item.ID, "owner_id", ownerID, "category", item.Category)
	return nil
}

func (s *itemService) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("item not found")
		}
		return nil, domain.Internal(err, "failed to load item")
	}
	return item, nil
}
