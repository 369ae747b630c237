package queue_test

import (
	"context"
	"testing"
	"time"

	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/queue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent() *model.BookingConfirmedEvent {
	return &model.BookingConfirmedEvent{
		EventID:     uuid.New(),
		BookingID:   uuid.New(),
		PaymentID:   42,
		ConfirmedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestMemoryBookingEventQueue_PublishAndSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryBookingEventQueue(10)
	event := newEvent()
	require.NoError(t, q.PublishBookingConfirmed(ctx, event))

	delCh, err := q.SubscribeBookingConfirmed(ctx)
	require.NoError(t, err)

	select {
	case d := <-delCh:
		assert.Equal(t, event.BookingID, d.Data.BookingID)
		d.Ack()
	case <-ctx.Done():
		t.Fatal("timeout 未收到訊息")
	}
}

func TestMemoryBookingEventQueue_NackRequeue(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	q := queue.NewMemoryBookingEventQueue(10)
	event := newEvent()
	require.NoError(t, q.PublishBookingConfirmed(ctx, event))

	delCh, err := q.SubscribeBookingConfirmed(ctx)
	require.NoError(t, err)

	first := <-delCh
	first.Nack(true)

	select {
	case d := <-delCh:
		assert.Equal(t, event.EventID, d.Data.EventID)
	case <-ctx.Done():
		t.Fatal("Nack(true) 後應重新投遞")
	}
}

func TestMemoryBookingEventQueue_PublishRespectsContext(t *testing.T) {
	q := queue.NewMemoryBookingEventQueue(1)
	require.NoError(t, q.PublishBookingConfirmed(context.Background(), newEvent()))

	// buffer 已滿，publish 應隨 context 結束
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := q.PublishBookingConfirmed(ctx, newEvent())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
