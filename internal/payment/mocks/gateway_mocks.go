package mocks

import (
	"context"
	"go-gin-cinema-booking/internal/payment"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockStripeGateway struct {
	mock.Mock
}

func NewMockStripeGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStripeGateway {
	m := &MockStripeGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockStripeGateway) CreateCheckoutSession(ctx context.Context, req payment.CheckoutSessionRequest) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockStripeGateway) ParseWebhook(payload []byte, signature string) (*payment.StripeEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.StripeEvent), args.Error(1)
}

type MockPayPalGateway struct {
	mock.Mock
}

func NewMockPayPalGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPayPalGateway {
	m := &MockPayPalGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPayPalGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (*payment.PayPalOrder, error) {
	args := m.Called(ctx, amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PayPalOrder), args.Error(1)
}

func (m *MockPayPalGateway) VerifyWebhook(ctx context.Context, headers http.Header, body []byte) (bool, error) {
	args := m.Called(ctx, headers, body)
	return args.Bool(0), args.Error(1)
}
