package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/repository/memory"
)

func TestItemService(t *testing.T) {
	store := memory.NewStore()
	svc := NewItemService(store.ItemRepository)
	ctx := context.Background()
	owner := uuid.New()

	t.Run("Create applies defaults", func(t *testing.T) {
		item := &domain.Item{Title: "  Organic Chemistry 8th ed. ", Category: domain.ItemCategoryTextbooks, CourseCode: "CHEM 210", PriceCents: 1200, IsAvailable: true}
		require.NoError(t, svc.CreateItem(ctx, owner, item))
		assert.Equal(t, owner, item.OwnerID)
		assert.Equal(t, "Organic Chemistry 8th ed.", item.Title)
		assert.Equal(t, domain.ItemPriceTypePerWeek, item.PriceType)

		got, err := svc.GetItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, item.Title, got.Title)
	})

	t.Run("Validation", func(t *testing.T) {
		cases := map[string]*domain.Item{
			"missing title":  {Category: domain.ItemCategoryOther},
			"bad category":   {Title: "Thing", Category: "furniture"},
			"bad price type": {Title: "Thing", Category: domain.ItemCategoryOther, PriceType: "per_hour"},
			"negative price": {Title: "Thing", Category: domain.ItemCategoryOther, PriceCents: -1},
		}
		for name, item := range cases {
			err := svc.CreateItem(ctx, owner, item)
			assert.True(t, domain.IsKind(err, domain.KindInvalidInput), name)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		_, err := svc.GetItem(ctx, uuid.New())
		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})
}
