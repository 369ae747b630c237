package mocks

import (
	"context"
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/queue"

	"github.com/stretchr/testify/mock"
)

type MockBookingEventQueue struct {
	mock.Mock
}

func NewMockBookingEventQueue(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBookingEventQueue {
	m := &MockBookingEventQueue{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockBookingEventQueue) PublishBookingConfirmed(ctx context.Context, event *model.BookingConfirmedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockBookingEventQueue) SubscribeBookingConfirmed(ctx context.Context) (<-chan queue.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan queue.Delivery), args.Error(1)
}
