package services

import (
	"context"

	"go-gin-course-booking/internal/model"
	"go-gin-course-booking/internal/service"

	"github.com/stretchr/testify/mock"
)

type BookingServiceMock struct {
	mock.Mock
}

func NewBookingServiceMock() *BookingServiceMock {
	return &BookingServiceMock{}
}

func (m *BookingServiceMock) Reserve(ctx context.Context, userID int, sessionID int, paymentRef string) (*model.Registration, error) {
	args := m.Called(ctx, userID, sessionID, paymentRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Registration), args.Error(1)
}

func (m *BookingServiceMock) Cancel(ctx context.Context, userID int, registrationID int) (*service.CancelResult, error) {
	args := m.Called(ctx, userID, registrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CancelResult), args.Error(1)
}

func (m *BookingServiceMock) AdminCancel(ctx context.Context, registrationID int) (*service.CancelResult, error) {
	args := m.Called(ctx, registrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CancelResult), args.Error(1)
}

func (m *BookingServiceMock) ListMyRegistrations(ctx context.Context, userID int) ([]*model.Registration, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Registration), args.Error(1)
}

func (m *BookingServiceMock) ListRegistrations(ctx context.Context, status *model.RegistrationStatus) ([]*model.Registration, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Registration), args.Error(1)
}
