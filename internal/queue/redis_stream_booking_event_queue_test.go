package queue_test

import (
	"context"
	"testing"
	"time"

	"go-gin-cinema-booking/internal/queue"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStreamClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func testStreamConfig() *queue.RedisStreamBookingEventQueueConfig {
	return &queue.RedisStreamBookingEventQueueConfig{
		ClaimMinIdleTime:   time.Hour,
		ReadGroupBlockTime: 100 * time.Millisecond,
	}
}

func TestNewRedisStreamBookingEventQueue(t *testing.T) {
	client := setupStreamClient(t)

	t.Run("success", func(t *testing.T) {
		q, err := queue.NewRedisStreamBookingEventQueue(client, "test-consumer", testStreamConfig())
		require.NoError(t, err)
		require.NotNil(t, q)
	})

	t.Run("group already exists", func(t *testing.T) {
		q, err := queue.NewRedisStreamBookingEventQueue(client, "", testStreamConfig())
		require.NoError(t, err)
		require.NotNil(t, q)
	})
}

func TestRedisStreamBookingEventQueue_Subscribe_deliversPublishedEvent(t *testing.T) {
	ctx := context.Background()
	client := setupStreamClient(t)

	q, err := queue.NewRedisStreamBookingEventQueue(client, "deliver-test", testStreamConfig())
	require.NoError(t, err)

	event := newEvent()
	require.NoError(t, q.PublishBookingConfirmed(ctx, event))

	subCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	delCh, err := q.SubscribeBookingConfirmed(subCtx)
	require.NoError(t, err)

	select {
	case d, ok := <-delCh:
		require.True(t, ok, "應收到一筆")
		require.NotNil(t, d.Data)
		assert.Equal(t, event.EventID, d.Data.EventID)
		assert.Equal(t, event.BookingID, d.Data.BookingID)
		assert.Equal(t, event.PaymentID, d.Data.PaymentID)
		assert.True(t, event.ConfirmedAt.Equal(d.Data.ConfirmedAt))
		d.Ack()
	case <-subCtx.Done():
		t.Fatal("timeout 未收到訊息")
	}

	// Ack 後 PEL 應為空
	pending, err := client.XPending(ctx, queue.StreamKey, queue.ConsumerGroupName).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func receive(t *testing.T, ctx context.Context, ch <-chan queue.Delivery) queue.Delivery {
	t.Helper()
	select {
	case d, ok := <-ch:
		require.True(t, ok, "channel 不應關閉")
		return d
	case <-ctx.Done():
		t.Fatal("timeout 未收到訊息")
		return queue.Delivery{}
	}
}

func TestRedisStreamBookingEventQueue_NackRequeue_redelivers(t *testing.T) {
	ctx := context.Background()
	client := setupStreamClient(t)

	q, err := queue.NewRedisStreamBookingEventQueue(client, "nack-test", &queue.RedisStreamBookingEventQueueConfig{
		ClaimMinIdleTime:   50 * time.Millisecond,
		ReadGroupBlockTime: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	event := newEvent()
	require.NoError(t, q.PublishBookingConfirmed(ctx, event))

	subCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	delCh, err := q.SubscribeBookingConfirmed(subCtx)
	require.NoError(t, err)

	first := receive(t, subCtx, delCh)
	first.Nack(true)

	// 同一事件在 ClaimMinIdleTime 後再次投遞
	second := receive(t, subCtx, delCh)
	assert.Equal(t, event.EventID, second.Data.EventID)
	second.Ack()

	pending, err := client.XPending(ctx, queue.StreamKey, queue.ConsumerGroupName).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestRedisStreamBookingEventQueue_exhaustedMessageDeadLettered(t *testing.T) {
	ctx := context.Background()
	client := setupStreamClient(t)

	q, err := queue.NewRedisStreamBookingEventQueue(client, "dead-test", &queue.RedisStreamBookingEventQueueConfig{
		ClaimMinIdleTime:   50 * time.Millisecond,
		ReadGroupBlockTime: 20 * time.Millisecond,
		MaxDeliveries:      1,
	})
	require.NoError(t, err)

	event := newEvent()
	require.NoError(t, q.PublishBookingConfirmed(ctx, event))

	subCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	delCh, err := q.SubscribeBookingConfirmed(subCtx)
	require.NoError(t, err)

	receive(t, subCtx, delCh).Nack(true)

	// 第二次領回時超過投遞上限，移到 dead-letter 且不再投遞
	assert.Eventually(t, func() bool {
		n, err := client.XLen(ctx, queue.DeadLetterStreamKey).Result()
		return err == nil && n == 1
	}, 2*time.Second, 20*time.Millisecond)

	pending, err := client.XPending(ctx, queue.StreamKey, queue.ConsumerGroupName).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)

	dead, err := client.XRange(ctx, queue.DeadLetterStreamKey, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Contains(t, dead[0].Values["event"], event.EventID.String())
}

func TestRedisStreamBookingEventQueue_undecodableMessageDeadLettered(t *testing.T) {
	ctx := context.Background()
	client := setupStreamClient(t)

	q, err := queue.NewRedisStreamBookingEventQueue(client, "bad-test", testStreamConfig())
	require.NoError(t, err)

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: queue.StreamKey,
		Values: map[string]interface{}{"event": "not json"},
	}).Err())
	event := newEvent()
	require.NoError(t, q.PublishBookingConfirmed(ctx, event))

	subCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	delCh, err := q.SubscribeBookingConfirmed(subCtx)
	require.NoError(t, err)

	// 壞掉的訊息被跳過，下一筆正常投遞
	d := receive(t, subCtx, delCh)
	assert.Equal(t, event.EventID, d.Data.EventID)
	d.Ack()

	n, err := client.XLen(ctx, queue.DeadLetterStreamKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
