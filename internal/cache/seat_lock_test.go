package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSeatLockStore(t *testing.T) (*miniredis.Miniredis, SeatLockStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisSeatLockStore(client, 300*time.Second, time.Second)
}

func TestSeatLockStore_TryLock(t *testing.T) {
	ctx := context.Background()
	showtimeID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mr, store := setupSeatLockStore(t)

		ok, err := store.TryLock(ctx, showtimeID, 12, "booking-a")
		require.NoError(t, err)
		assert.True(t, ok)

		value, err := mr.Get(SeatLockKey(showtimeID, 12))
		require.NoError(t, err)
		assert.Equal(t, "booking-a", value)
		assert.Equal(t, 300*time.Second, mr.TTL(SeatLockKey(showtimeID, 12)))
	})

	t.Run("Failed - already locked", func(t *testing.T) {
		_, store := setupSeatLockStore(t)

		ok, err := store.TryLock(ctx, showtimeID, 12, "booking-a")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.TryLock(ctx, showtimeID, 12, "booking-b")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Expires after TTL", func(t *testing.T) {
		mr, store := setupSeatLockStore(t)

		ok, err := store.TryLock(ctx, showtimeID, 12, "booking-a")
		require.NoError(t, err)
		assert.True(t, ok)

		mr.FastForward(301 * time.Second)

		ok, err = store.TryLock(ctx, showtimeID, 12, "booking-b")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Concurrent - exactly one winner", func(t *testing.T) {
		_, store := setupSeatLockStore(t)

		var wg sync.WaitGroup
		var winners int32
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := store.TryLock(ctx, showtimeID, 7, uuid.NewString())
				if err == nil && ok {
					atomic.AddInt32(&winners, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), winners)
	})

	t.Run("Failed - store error", func(t *testing.T) {
		mr, store := setupSeatLockStore(t)
		mr.SetError("ERR lock store unavailable")

		ok, err := store.TryLock(ctx, showtimeID, 12, "booking-a")
		assert.Error(t, err)
		assert.False(t, ok)
	})
}

func TestSeatLockStore_Exists(t *testing.T) {
	ctx := context.Background()
	showtimeID := uuid.New()
	_, store := setupSeatLockStore(t)

	exists, err := store.Exists(ctx, showtimeID, 3)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.TryLock(ctx, showtimeID, 3, "booking-a")
	require.NoError(t, err)

	exists, err = store.Exists(ctx, showtimeID, 3)
	require.NoError(t, err)
	assert.True(t, exists)

	// 其他場次的同一座位不受影響
	exists, err = store.Exists(ctx, uuid.New(), 3)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSeatLockStore_Release(t *testing.T) {
	ctx := context.Background()
	showtimeID := uuid.New()

	t.Run("Success - owner releases", func(t *testing.T) {
		mr, store := setupSeatLockStore(t)
		_, err := store.TryLock(ctx, showtimeID, 5, "booking-a")
		require.NoError(t, err)

		released, err := store.Release(ctx, showtimeID, 5, "booking-a")
		require.NoError(t, err)
		assert.True(t, released)
		assert.False(t, mr.Exists(SeatLockKey(showtimeID, 5)))
	})

	t.Run("Ignored - other owner", func(t *testing.T) {
		mr, store := setupSeatLockStore(t)
		_, err := store.TryLock(ctx, showtimeID, 5, "booking-a")
		require.NoError(t, err)

		released, err := store.Release(ctx, showtimeID, 5, "booking-b")
		require.NoError(t, err)
		assert.False(t, released)
		assert.True(t, mr.Exists(SeatLockKey(showtimeID, 5)))
	})

	t.Run("Ignored - no lock", func(t *testing.T) {
		_, store := setupSeatLockStore(t)
		released, err := store.Release(ctx, showtimeID, 5, "booking-a")
		require.NoError(t, err)
		assert.False(t, released)
	})
}
