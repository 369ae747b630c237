package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SendState 確認信寄送權的取得結果
type SendState int

const (
	SendAcquired   SendState = iota // 取得寄送權，由呼叫端寄信
	SendInProgress                  // 另一個 consumer 正在寄送
	SendCompleted                   // 已寄出，不可再寄
)

const (
	notificationSending = "sending"
	notificationSent    = "sent"
)

// NotificationLedger 以 event id 記錄確認信寄送狀態，同一事件重送時不會再寄一次
type NotificationLedger interface {
	Begin(ctx context.Context, eventID uuid.UUID) (SendState, error)
	MarkSent(ctx context.Context, eventID uuid.UUID) error
	// Abort 寄送失敗時放掉寄送權，讓重送的事件可以再試
	Abort(ctx context.Context, eventID uuid.UUID) error
}

type RedisNotificationLedgerImpl struct {
	client    *redis.Client
	claimTTL  time.Duration
	retention time.Duration
	opTimeout time.Duration
}

// claimTTL 要大於單次寄信的最長時間；retention 要涵蓋事件可能被重送的期間
func NewRedisNotificationLedger(client *redis.Client, claimTTL, retention, opTimeout time.Duration) NotificationLedger {
	if claimTTL <= 0 {
		claimTTL = 2 * time.Minute
	}
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	if opTimeout <= 0 {
		opTimeout = 2 * time.Second
	}
	return &RedisNotificationLedgerImpl{
		client:    client,
		claimTTL:  claimTTL,
		retention: retention,
		opTimeout: opTimeout,
	}
}

func NotificationKey(eventID uuid.UUID) string {
	return "booking_event:sent:" + eventID.String()
}

func (l *RedisNotificationLedgerImpl) Begin(ctx context.Context, eventID uuid.UUID) (SendState, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	key := NotificationKey(eventID)
	ok, err := l.client.SetNX(ctx, key, notificationSending, l.claimTTL).Result()
	if err != nil {
		return 0, fmt.Errorf("notification ledger setnx: %w", err)
	}
	if ok {
		return SendAcquired, nil
	}

	state, err := l.client.Get(ctx, key).Result()
	switch {
	case err == redis.Nil:
		// 寄送權剛好過期，交給下一次重送
		return SendInProgress, nil
	case err != nil:
		return 0, fmt.Errorf("notification ledger get: %w", err)
	case state == notificationSent:
		return SendCompleted, nil
	default:
		return SendInProgress, nil
	}
}

func (l *RedisNotificationLedgerImpl) MarkSent(ctx context.Context, eventID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	if err := l.client.Set(ctx, NotificationKey(eventID), notificationSent, l.retention).Err(); err != nil {
		return fmt.Errorf("notification ledger mark sent: %w", err)
	}
	return nil
}

// KEYS[1]: 寄送紀錄 key
// ARGV[1]: 寄送中狀態
var abortScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

func (l *RedisNotificationLedgerImpl) Abort(ctx context.Context, eventID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	if err := abortScript.Run(ctx, l.client, []string{NotificationKey(eventID)}, notificationSending).Err(); err != nil {
		return fmt.Errorf("notification ledger abort: %w", err)
	}
	return nil
}
