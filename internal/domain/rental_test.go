package domain

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []RentalStatus{
	RentalStatusPending,
	RentalStatusApproved,
	RentalStatusDenied,
	RentalStatusScheduled,
	RentalStatusInProgress,
	RentalStatusCompleted,
	RentalStatusCancelled,
}

func newTestItem(owner uuid.UUID, price int64) *Item {
	return &Item{ID: uuid.New(), OwnerID: owner, Title: "Calculus", PriceCents: price, IsAvailable: true}
}

func TestNewRental(t *testing.T) {
	owner, renter := uuid.New(), uuid.New()

	t.Run("Price frozen from item", func(t *testing.T) {
		item := newTestItem(owner, 100)
		rt, err := NewRental(item, renter, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(200), rt.TotalPriceCents)
		assert.Equal(t, RentalStatusPending, rt.Status)
		assert.Equal(t, owner, rt.OwnerID)
		assert.Equal(t, renter, rt.RenterID)
		assert.NotEqual(t, uuid.Nil, rt.ID)
		assert.Empty(t, rt.PickupToken)
		assert.Empty(t, rt.ReturnToken)

		item.PriceCents = 999
		assert.Equal(t, int64(200), rt.TotalPriceCents)
	})

	t.Run("Quantity defaults to one", func(t *testing.T) {
		rt, err := NewRental(newTestItem(owner, 150), renter, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(1), rt.Quantity)
		assert.Equal(t, int64(150), rt.TotalPriceCents)
	})

	t.Run("Negative quantity", func(t *testing.T) {
		_, err := NewRental(newTestItem(owner, 100), renter, -1)
		assert.True(t, IsKind(err, KindInvalidInput))
	})

	t.Run("Self rental rejected", func(t *testing.T) {
		_, err := NewRental(newTestItem(owner, 100), owner, 1)
		assert.True(t, IsKind(err, KindInvalidInput))
	})

	t.Run("Quantity above cap", func(t *testing.T) {
		_, err := NewRental(newTestItem(owner, 100), renter, 2_000_000_000)
		assert.True(t, IsKind(err, KindInvalidInput))
		assert.Equal(t, "quantity must not exceed 100", MessageOf(err))

		rt, err := NewRental(newTestItem(owner, 100), renter, MaxRentalQuantity)
		require.NoError(t, err)
		assert.Equal(t, int64(10_000), rt.TotalPriceCents)
	})

	t.Run("Total that would overflow", func(t *testing.T) {
		_, err := NewRental(newTestItem(owner, math.MaxInt64/2+1), renter, 2)
		assert.True(t, IsKind(err, KindInvalidInput))
		assert.Equal(t, "total price is too large", MessageOf(err))

		rt, err := NewRental(newTestItem(owner, 10_000_000_000), renter, MaxRentalQuantity)
		require.NoError(t, err)
		assert.Equal(t, int64(1_000_000_000_000), rt.TotalPriceCents)
		assert.Positive(t, rt.TotalPriceCents)
	})
}

func TestItem_Validate(t *testing.T) {
	valid := func() *Item {
		return &Item{Title: "Bike", Category: ItemCategoryBikesScooters, PriceType: ItemPriceTypePerDay, PriceCents: 500}
	}

	t.Run("Success", func(t *testing.T) {
		item := valid()
		item.PriceCents = MaxItemPriceCents
		assert.NoError(t, item.Validate())
	})

	t.Run("Negative price", func(t *testing.T) {
		item := valid()
		item.PriceCents = -1
		assert.True(t, IsKind(item.Validate(), KindInvalidInput))
	})

	t.Run("Price above cap", func(t *testing.T) {
		item := valid()
		item.PriceCents = 10_000_000_000
		err := item.Validate()
		assert.True(t, IsKind(err, KindInvalidInput))
		assert.Equal(t, "price must not exceed 100000000 cents", MessageOf(err))
	})
}

func TestRentalStatus_Transitions(t *testing.T) {
	legal := map[RentalStatus][]RentalStatus{
		RentalStatusPending:    {RentalStatusApproved, RentalStatusDenied, RentalStatusCancelled},
		RentalStatusApproved:   {RentalStatusScheduled, RentalStatusCancelled},
		RentalStatusScheduled:  {RentalStatusInProgress, RentalStatusCancelled},
		RentalStatusInProgress: {RentalStatusCompleted},
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := false
			for _, l := range legal[from] {
				if l == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, RentalStatusDenied.IsTerminal())
	assert.True(t, RentalStatusCompleted.IsTerminal())
	assert.True(t, RentalStatusCancelled.IsTerminal())
	assert.False(t, RentalStatusScheduled.IsTerminal())
	assert.False(t, RentalStatus("lost").IsValid())
}

func TestRental_Decide(t *testing.T) {
	owner, renter := uuid.New(), uuid.New()

	for _, status := range allStatuses {
		for _, actor := range []uuid.UUID{owner, renter} {
			rt := &Rental{OwnerID: owner, RenterID: renter, Status: status}
			err := rt.Decide(actor, RentalStatusApproved)
			switch {
			case actor != owner:
				assert.True(t, IsKind(err, KindUnauthorized), "status %s", status)
				assert.Equal(t, status, rt.Status)
			case status != RentalStatusPending:
				require.True(t, IsKind(err, KindInvalidState), "status %s", status)
				assert.Contains(t, MessageOf(err), string(status))
				assert.Equal(t, status, rt.Status)
			default:
				assert.NoError(t, err)
				assert.Equal(t, RentalStatusApproved, rt.Status)
			}
		}
	}

	t.Run("Unknown decision", func(t *testing.T) {
		rt := &Rental{OwnerID: owner, RenterID: renter, Status: RentalStatusPending}
		err := rt.Decide(owner, RentalStatusCompleted)
		assert.True(t, IsKind(err, KindInvalidInput))
		assert.Equal(t, RentalStatusPending, rt.Status)
	})
}

func TestRental_Cancel(t *testing.T) {
	owner, renter := uuid.New(), uuid.New()
	cancellable := map[RentalStatus]bool{
		RentalStatusPending:   true,
		RentalStatusApproved:  true,
		RentalStatusScheduled: true,
	}

	for _, status := range allStatuses {
		rt := &Rental{OwnerID: owner, RenterID: renter, Status: status}
		err := rt.Cancel(renter)
		if cancellable[status] {
			assert.NoError(t, err, "status %s", status)
			assert.Equal(t, RentalStatusCancelled, rt.Status)
			continue
		}
		require.True(t, IsKind(err, KindInvalidState), "status %s", status)
		assert.Contains(t, MessageOf(err), "'"+string(status)+"'")
		assert.Equal(t, status, rt.Status)
	}

	t.Run("Owner cannot cancel", func(t *testing.T) {
		rt := &Rental{OwnerID: owner, RenterID: renter, Status: RentalStatusPending}
		assert.True(t, IsKind(rt.Cancel(owner), KindUnauthorized))
	})
}

func TestRental_ConfirmExchange(t *testing.T) {
	rt := &Rental{Status: RentalStatusApproved}
	rt.Schedule(time.Now(), " Library ", "pick", "ret")
	assert.Equal(t, "Library", rt.ScheduledLocation)
	assert.True(t, rt.Status.HasExchangeTokens())

	t.Run("Return token before pickup", func(t *testing.T) {
		_, err := rt.ConfirmExchange("ret")
		assert.True(t, IsKind(err, KindInvalidToken))
		assert.Equal(t, RentalStatusScheduled, rt.Status)
	})

	t.Run("Pickup", func(t *testing.T) {
		status, err := rt.ConfirmExchange("pick")
		require.NoError(t, err)
		assert.Equal(t, RentalStatusInProgress, status)
	})

	t.Run("Pickup token is inert afterwards", func(t *testing.T) {
		_, err := rt.ConfirmExchange("pick")
		assert.True(t, IsKind(err, KindInvalidToken))
	})

	t.Run("Return", func(t *testing.T) {
		status, err := rt.ConfirmExchange("ret")
		require.NoError(t, err)
		assert.Equal(t, RentalStatusCompleted, status)
	})

	t.Run("Empty token never matches", func(t *testing.T) {
		unscheduled := &Rental{Status: RentalStatusScheduled}
		_, err := unscheduled.ConfirmExchange("")
		assert.True(t, IsKind(err, KindInvalidToken))
	})
}

func TestRental_Clone(t *testing.T) {
	now := time.Now()
	rt := &Rental{ScheduledTime: &now, Messages: []RentalMessage{{Text: "hi"}}}
	c := rt.Clone()
	c.Messages[0].Text = "changed"
	*c.ScheduledTime = now.Add(time.Hour)
	assert.Equal(t, "hi", rt.Messages[0].Text)
	assert.Equal(t, now, *rt.ScheduledTime)
}
