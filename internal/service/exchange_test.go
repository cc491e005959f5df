package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-rentals-backend/internal/domain"
)

func TestExchangeVerifier_VerifyExchange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("Wrong token and wrong state look the same", func(t *testing.T) {
		scheduled := f.seed(t, domain.RentalStatusScheduled)
		_, wrongToken := f.verifier.VerifyExchange(ctx, scheduled.ID, "nope")

		inProgress := f.seed(t, domain.RentalStatusInProgress)
		_, wrongState := f.verifier.VerifyExchange(ctx, inProgress.ID, inProgress.PickupToken)

		require.Error(t, wrongToken)
		require.Error(t, wrongState)
		assert.Equal(t, domain.KindOf(wrongToken), domain.KindOf(wrongState))
		assert.Equal(t, domain.MessageOf(wrongToken), domain.MessageOf(wrongState))
		assert.Equal(t, "Invalid or incorrect QR code.", domain.MessageOf(wrongToken))
	})

	t.Run("Return token cannot start the rental", func(t *testing.T) {
		rt := f.seed(t, domain.RentalStatusScheduled)
		_, err := f.verifier.VerifyExchange(ctx, rt.ID, rt.ReturnToken)
		assert.True(t, domain.IsKind(err, domain.KindInvalidToken))
	})

	t.Run("Empty token", func(t *testing.T) {
		rt := f.seed(t, domain.RentalStatusScheduled)
		_, err := f.verifier.VerifyExchange(ctx, rt.ID, "")
		assert.True(t, domain.IsKind(err, domain.KindInvalidToken))
	})

	t.Run("Rejected tokens do not write", func(t *testing.T) {
		rt := f.seed(t, domain.RentalStatusScheduled)
		_, err := f.verifier.VerifyExchange(ctx, rt.ID, "guess")
		require.Error(t, err)

		after := f.reload(t, rt.ID)
		assert.Equal(t, rt.Version, after.Version)
		assert.Equal(t, domain.RentalStatusScheduled, after.Status)
	})

	t.Run("Terminal and early states reject every token", func(t *testing.T) {
		for _, status := range []domain.RentalStatus{
			domain.RentalStatusPending, domain.RentalStatusApproved, domain.RentalStatusDenied,
			domain.RentalStatusCompleted, domain.RentalStatusCancelled,
		} {
			rt := f.seed(t, status)
			_, err := f.verifier.VerifyExchange(ctx, rt.ID, rt.PickupToken)
			assert.True(t, domain.IsKind(err, domain.KindInvalidToken), "status %s", status)
			_, err = f.verifier.VerifyExchange(ctx, rt.ID, rt.ReturnToken)
			assert.True(t, domain.IsKind(err, domain.KindInvalidToken), "status %s", status)
		}
	})

	t.Run("No identity needed", func(t *testing.T) {
		rt := f.seed(t, domain.RentalStatusScheduled)
		res, err := f.verifier.VerifyExchange(ctx, rt.ID, rt.PickupToken)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusInProgress, res.NewStatus)
		assert.Equal(t, domain.RentalStatusInProgress, res.Rental.Status)
	})

	t.Run("Missing rental", func(t *testing.T) {
		_, err := f.verifier.VerifyExchange(ctx, uuid.New(), "anything")
		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})
}
