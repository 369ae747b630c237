package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SeatLockStore (showtime, seat) 的短效互斥提示，不是權威狀態；權威在 booking_seats 的唯一索引
type SeatLockStore interface {
	// 原子 SET NX EX，owner 為持有鎖的 booking id
	TryLock(ctx context.Context, showtimeID uuid.UUID, seatID int64, owner string) (bool, error)
	// 只查詢，不改變狀態
	Exists(ctx context.Context, showtimeID uuid.UUID, seatID int64) (bool, error)
	// 只有 owner 相同才刪除 (使用Lua腳本確保原子性)
	Release(ctx context.Context, showtimeID uuid.UUID, seatID int64, owner string) (bool, error)
}

type RedisSeatLockStoreImpl struct {
	client    *redis.Client
	ttl       time.Duration
	opTimeout time.Duration
}

func NewRedisSeatLockStore(client *redis.Client, ttl, opTimeout time.Duration) SeatLockStore {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	if opTimeout <= 0 {
		opTimeout = 2 * time.Second
	}
	return &RedisSeatLockStoreImpl{
		client:    client,
		ttl:       ttl,
		opTimeout: opTimeout,
	}
}

// 座位鎖 key
func SeatLockKey(showtimeID uuid.UUID, seatID int64) string {
	return fmt.Sprintf("booking_seat:%s_%d", showtimeID, seatID)
}

func (s *RedisSeatLockStoreImpl) TryLock(ctx context.Context, showtimeID uuid.UUID, seatID int64, owner string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	ok, err := s.client.SetNX(ctx, SeatLockKey(showtimeID, seatID), owner, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("seat lock setnx: %w", err)
	}
	return ok, nil
}

func (s *RedisSeatLockStoreImpl) Exists(ctx context.Context, showtimeID uuid.UUID, seatID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	n, err := s.client.Exists(ctx, SeatLockKey(showtimeID, seatID)).Result()
	if err != nil {
		return false, fmt.Errorf("seat lock exists: %w", err)
	}
	return n > 0, nil
}

// KEYS[1]: 座位鎖 key
// ARGV[1]: owner
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

func (s *RedisSeatLockStoreImpl) Release(ctx context.Context, showtimeID uuid.UUID, seatID int64, owner string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	n, err := releaseScript.Run(ctx, s.client, []string{SeatLockKey(showtimeID, seatID)}, owner).Int()
	if err != nil {
		return false, fmt.Errorf("seat lock release: %w", err)
	}
	return n == 1, nil
}
