package gateways

import (
	"context"

	"go-gin-course-booking/internal/gateway"

	"github.com/stretchr/testify/mock"
)

type PaymentGatewayMock struct {
	mock.Mock
}

func NewPaymentGatewayMock() *PaymentGatewayMock {
	return &PaymentGatewayMock{}
}

func (m *PaymentGatewayMock) CreateCheckout(ctx context.Context, items []gateway.LineItem, successURL, cancelURL string, metadata map[string]string) (*gateway.Checkout, error) {
	args := m.Called(ctx, items, successURL, cancelURL, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Checkout), args.Error(1)
}

func (m *PaymentGatewayMock) RetrieveCheckout(ctx context.Context, checkoutID string) (*gateway.CheckoutResult, error) {
	args := m.Called(ctx, checkoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CheckoutResult), args.Error(1)
}

func (m *PaymentGatewayMock) CreateRefund(ctx context.Context, paymentRef string, amount *float64) (*gateway.Refund, error) {
	args := m.Called(ctx, paymentRef, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Refund), args.Error(1)
}
