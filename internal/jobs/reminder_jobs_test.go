package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-rentals-backend/internal/config"
	"campus-rentals-backend/internal/domain"
	"campus-rentals-backend/internal/repository"
	"campus-rentals-backend/internal/repository/memory"
)

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendRentalRequestNotification(ctx context.Context, ownerEmail, renterName, itemTitle string) error {
	return m.Called(ctx, ownerEmail, renterName, itemTitle).Error(0)
}
func (m *MockEmailService) SendRentalDecisionNotification(ctx context.Context, renterEmail, itemTitle string, decision domain.RentalStatus) error {
	return m.Called(ctx, renterEmail, itemTitle, decision).Error(0)
}
func (m *MockEmailService) SendExchangeScheduledNotification(ctx context.Context, email, itemTitle string, at time.Time, location string) error {
	return m.Called(ctx, email, itemTitle, at, location).Error(0)
}
func (m *MockEmailService) SendRentalCancellationNotification(ctx context.Context, ownerEmail, renterName, itemTitle string) error {
	return m.Called(ctx, ownerEmail, renterName, itemTitle).Error(0)
}
func (m *MockEmailService) SendRentalCompletedNotification(ctx context.Context, email, itemTitle string) error {
	return m.Called(ctx, email, itemTitle).Error(0)
}
func (m *MockEmailService) SendExchangeReminder(ctx context.Context, email, itemTitle string, at time.Time, location string) error {
	return m.Called(ctx, email, itemTitle, at, location).Error(0)
}

type failingRentals struct {
	repository.RentalRepository
}

func (failingRentals) ListScheduledBetween(context.Context, time.Time, time.Time) ([]domain.Rental, error) {
	return nil, errors.New("connection reset")
}

type reminderFixture struct {
	store  *memory.Store
	email  *MockEmailService
	runner *JobRunner
	now    time.Time
	owner  *domain.User
	renter *domain.User
	item   *domain.Item
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()
	ctx := context.Background()
	f := &reminderFixture{
		store:  memory.NewStore(),
		email:  new(MockEmailService),
		now:    time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		owner:  &domain.User{Name: "Olivia", Email: "olivia@campus.edu"},
		renter: &domain.User{Name: "Riley", Email: "riley@campus.edu"},
	}
	require.NoError(t, f.store.UserRepository.Create(ctx, f.owner))
	require.NoError(t, f.store.UserRepository.Create(ctx, f.renter))
	f.item = &domain.Item{OwnerID: f.owner.ID, Title: "Bike helmet", Category: domain.ItemCategoryBikesScooters, PriceType: domain.ItemPriceTypePerDay, IsAvailable: true}
	require.NoError(t, f.store.ItemRepository.Create(ctx, f.item))

	cfg := &config.Config{Scheduler: config.SchedulerConfig{ReminderWindowMinutes: 60}}
	f.runner = NewJobRunner(&Dependencies{
		Rentals: f.store.RentalRepository,
		Items:   f.store.ItemRepository,
		Users:   f.store.UserRepository,
		Email:   f.email,
	}, cfg)
	f.runner.now = func() time.Time { return f.now }
	return f
}

func (f *reminderFixture) seed(t *testing.T, status domain.RentalStatus, in time.Duration) *domain.Rental {
	t.Helper()
	at := f.now.Add(in)
	rt := &domain.Rental{
		ItemID:            f.item.ID,
		RenterID:          f.renter.ID,
		OwnerID:           f.owner.ID,
		Quantity:          1,
		Status:            status,
		ScheduledTime:     &at,
		ScheduledLocation: "Student union",
	}
	require.NoError(t, f.store.RentalRepository.Create(context.Background(), rt))
	return rt
}

func TestSendExchangeReminders(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newReminderFixture(t)
		due := f.seed(t, domain.RentalStatusScheduled, 30*time.Minute)
		f.seed(t, domain.RentalStatusScheduled, 2*time.Hour)
		f.seed(t, domain.RentalStatusInProgress, 20*time.Minute)
		f.seed(t, domain.RentalStatusScheduled, -10*time.Minute)

		at := *due.ScheduledTime
		f.email.On("SendExchangeReminder", mock.Anything, "riley@campus.edu", "Bike helmet", at, "Student union").Return(nil).Once()
		f.email.On("SendExchangeReminder", mock.Anything, "olivia@campus.edu", "Bike helmet", at, "Student union").Return(nil).Once()

		f.runner.SendExchangeReminders()
		f.email.AssertExpectations(t)

		stored, err := f.store.RentalRepository.GetByID(context.Background(), due.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusScheduled, stored.Status)
		assert.Equal(t, int64(1), stored.Version)
	})

	t.Run("Each meeting is reminded once", func(t *testing.T) {
		f := newReminderFixture(t)
		f.seed(t, domain.RentalStatusScheduled, 45*time.Minute)
		f.email.On("SendExchangeReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		f.runner.SendExchangeReminders()
		f.now = f.now.Add(15 * time.Minute)
		f.runner.SendExchangeReminders()

		f.email.AssertNumberOfCalls(t, "SendExchangeReminder", 2)
	})

	t.Run("Email failure does not stop the run", func(t *testing.T) {
		f := newReminderFixture(t)
		f.seed(t, domain.RentalStatusScheduled, 10*time.Minute)
		f.email.On("SendExchangeReminder", mock.Anything, "riley@campus.edu", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("rate limited"))
		f.email.On("SendExchangeReminder", mock.Anything, "olivia@campus.edu", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		assert.NotPanics(t, f.runner.SendExchangeReminders)
		f.email.AssertNumberOfCalls(t, "SendExchangeReminder", 2)
	})

	t.Run("Store failure", func(t *testing.T) {
		f := newReminderFixture(t)
		f.runner.deps.Rentals = failingRentals{f.store.RentalRepository}

		assert.NotPanics(t, f.runner.SendExchangeReminders)
		f.email.AssertNotCalled(t, "SendExchangeReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown user is skipped", func(t *testing.T) {
		f := newReminderFixture(t)
		at := f.now.Add(10 * time.Minute)
		require.NoError(t, f.store.RentalRepository.Create(context.Background(), &domain.Rental{
			ItemID:        f.item.ID,
			RenterID:      f.renter.ID,
			OwnerID:       uuid.New(),
			Quantity:      1,
			Status:        domain.RentalStatusScheduled,
			ScheduledTime: &at,
		}))
		f.email.On("SendExchangeReminder", mock.Anything, "riley@campus.edu", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		f.runner.SendExchangeReminders()
		f.email.AssertExpectations(t)
	})
}

func TestRunWithRecovery(t *testing.T) {
	jr := NewJobRunner(&Dependencies{}, &config.Config{})
	assert.NotPanics(t, func() {
		jr.runWithRecovery("boom", func() { panic("boom") })
	})
	assert.Contains(t, jr.Jobs(), "send-exchange-reminders")
}
