package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"campus-rentals-backend/internal/domain"
)

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendRentalRequestNotification(ctx context.Context, ownerEmail, renterName, itemTitle string) error {
	args := m.Called(ctx, ownerEmail, renterName, itemTitle)
	return args.Error(0)
}
func (m *MockEmailService) SendRentalDecisionNotification(ctx context.Context, renterEmail, itemTitle string, decision domain.RentalStatus) error {
	args := m.Called(ctx, renterEmail, itemTitle, decision)
	return args.Error(0)
}
func (m *MockEmailService) SendExchangeScheduledNotification(ctx context.Context, email, itemTitle string, at time.Time, location string) error {
	args := m.Called(ctx, email, itemTitle, at, location)
	return args.Error(0)
}
func (m *MockEmailService) SendRentalCancellationNotification(ctx context.Context, ownerEmail, renterName, itemTitle string) error {
	args := m.Called(ctx, ownerEmail, renterName, itemTitle)
	return args.Error(0)
}
func (m *MockEmailService) SendRentalCompletedNotification(ctx context.Context, email, itemTitle string) error {
	args := m.Called(ctx, email, itemTitle)
	return args.Error(0)
}
func (m *MockEmailService) SendExchangeReminder(ctx context.Context, email, itemTitle string, at time.Time, location string) error {
	args := m.Called(ctx, email, itemTitle, at, location)
	return args.Error(0)
}

// permissiveEmail accepts every notification.
func permissiveEmail() *MockEmailService {
	m := new(MockEmailService)
	m.On("SendRentalRequestNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("SendRentalDecisionNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("SendExchangeScheduledNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("SendRentalCancellationNotification", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("SendRentalCompletedNotification", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("SendExchangeReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

// MockRelay
type MockRelay struct {
	mock.Mock
}

func (m *MockRelay) Publish(ctx context.Context, channel string, payload []byte) error {
	args := m.Called(ctx, channel, payload)
	return args.Error(0)
}

func permissiveRelay() *MockRelay {
	m := new(MockRelay)
	m.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

// MockRentalRepo
type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, rt *domain.Rental) error {
	args := m.Called(ctx, rt)
	return args.Error(0)
}
func (m *MockRentalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental).Clone(), args.Error(1)
}
func (m *MockRentalRepo) Update(ctx context.Context, rt *domain.Rental) error {
	args := m.Called(ctx, rt)
	return args.Error(0)
}
func (m *MockRentalRepo) AppendMessage(ctx context.Context, msg *domain.RentalMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
func (m *MockRentalRepo) ListByParty(ctx context.Context, userID uuid.UUID, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	args := m.Called(ctx, userID, status, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Rental), args.Get(1).(int32), args.Error(2)
}
func (m *MockRentalRepo) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]domain.Rental, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}

// failingTokens simulates an exhausted entropy source.
type failingTokens struct{}

func (failingTokens) NewPair() (string, string, error) {
	return "", "", errors.New("entropy unavailable")
}
