package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockSeatLockStore struct {
	mock.Mock
}

func NewMockSeatLockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSeatLockStore {
	m := &MockSeatLockStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSeatLockStore) TryLock(ctx context.Context, showtimeID uuid.UUID, seatID int64, owner string) (bool, error) {
	args := m.Called(ctx, showtimeID, seatID, owner)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatLockStore) Exists(ctx context.Context, showtimeID uuid.UUID, seatID int64) (bool, error) {
	args := m.Called(ctx, showtimeID, seatID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatLockStore) Release(ctx context.Context, showtimeID uuid.UUID, seatID int64, owner string) (bool, error) {
	args := m.Called(ctx, showtimeID, seatID, owner)
	return args.Bool(0), args.Error(1)
}
