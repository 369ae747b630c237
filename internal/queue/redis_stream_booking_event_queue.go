package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/pkg/logger"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	StreamKey           = "bookings:confirmed:stream"
	DeadLetterStreamKey = "bookings:confirmed:dead"
	ConsumerGroupName   = "notification-workers"
	ConsumerNamePrefix  = "worker"

	eventField = "event"
)

// RedisStreamBookingEventQueueConfig 零值欄位使用預設
type RedisStreamBookingEventQueueConfig struct {
	ClaimMinIdleTime   time.Duration // 寄信失敗或 consumer 中斷後，隔多久重新領取
	MaxDeliveries      int           // 超過此投遞次數就移到 dead-letter stream
	ReadGroupBlockTime time.Duration
	BatchSize          int64
	MaxLen             int64 // stream 保留的大約筆數
}

func (c RedisStreamBookingEventQueueConfig) withDefaults() RedisStreamBookingEventQueueConfig {
	if c.ClaimMinIdleTime <= 0 {
		c.ClaimMinIdleTime = 30 * time.Second
	}
	if c.MaxDeliveries <= 0 {
		c.MaxDeliveries = 5
	}
	if c.ReadGroupBlockTime <= 0 {
		c.ReadGroupBlockTime = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.MaxLen <= 0 {
		c.MaxLen = 10000
	}
	return c
}

// RedisStreamBookingEventQueueImpl 單一 goroutine 交替領回逾時訊息與讀取新訊息
type RedisStreamBookingEventQueueImpl struct {
	client   *redis.Client
	consumer string
	cfg      RedisStreamBookingEventQueueConfig
	log      *zap.Logger
}

// NewRedisStreamBookingEventQueue config 可為 nil
func NewRedisStreamBookingEventQueue(client *redis.Client, consumerID string, config *RedisStreamBookingEventQueueConfig) (BookingEventQueue, error) {
	var cfg RedisStreamBookingEventQueueConfig
	if config != nil {
		cfg = *config
	}
	if consumerID == "" {
		consumerID = uuid.NewString()
	}

	q := &RedisStreamBookingEventQueueImpl{
		client:   client,
		consumer: ConsumerNamePrefix + ":" + consumerID,
		cfg:      cfg.withDefaults(),
		log:      logger.WithComponent("mq").With(zap.String("stream", StreamKey)),
	}

	err := client.XGroupCreateMkStream(context.Background(), StreamKey, ConsumerGroupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("ensure consumer group: %w", err)
	}
	return q, nil
}

func (q *RedisStreamBookingEventQueueImpl) PublishBookingConfirmed(ctx context.Context, event *model.BookingConfirmedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: q.cfg.MaxLen,
		Approx: true,
		Values: map[string]interface{}{eventField: string(payload)},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}

func (q *RedisStreamBookingEventQueueImpl) SubscribeBookingConfirmed(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)
	go func() {
		defer close(out)

		cursor := "0-0"
		nextClaim := time.Now().Add(q.cfg.ClaimMinIdleTime)
		for ctx.Err() == nil {
			var msgs []redis.XMessage
			if !time.Now().Before(nextClaim) {
				msgs, cursor = q.claimStale(ctx, cursor)
				nextClaim = time.Now().Add(q.cfg.ClaimMinIdleTime)
			}
			if len(msgs) == 0 {
				msgs = q.readNew(ctx)
			}

			for _, msg := range msgs {
				d, ok := q.toDelivery(ctx, msg)
				if !ok {
					continue
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (q *RedisStreamBookingEventQueueImpl) readNew(ctx context.Context) []redis.XMessage {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroupName,
		Consumer: q.consumer,
		Streams:  []string{StreamKey, ">"},
		Count:    q.cfg.BatchSize,
		Block:    q.cfg.ReadGroupBlockTime,
	}).Result()
	if errors.Is(err, redis.Nil) || ctx.Err() != nil {
		return nil
	}
	if err != nil {
		q.log.Error("XReadGroup failed", zap.Error(err))
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
		}
		return nil
	}

	var msgs []redis.XMessage
	for _, s := range streams {
		msgs = append(msgs, s.Messages...)
	}
	return msgs
}

// claimStale 以 XAUTOCLAIM 領回 Nack 或 consumer 中斷而逾時的訊息；投遞次數用完的移到 dead-letter
func (q *RedisStreamBookingEventQueueImpl) claimStale(ctx context.Context, cursor string) ([]redis.XMessage, string) {
	msgs, next, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroupName,
		Consumer: q.consumer,
		MinIdle:  q.cfg.ClaimMinIdleTime,
		Start:    cursor,
		Count:    q.cfg.BatchSize,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			q.log.Error("XAutoClaim failed", zap.Error(err))
		}
		return nil, "0-0"
	}
	if next == "" {
		next = "0-0"
	}
	if len(msgs) == 0 {
		return nil, next
	}

	deliveries := q.deliveryCounts(ctx, msgs)
	kept := msgs[:0]
	for _, msg := range msgs {
		if n := deliveries[msg.ID]; n > int64(q.cfg.MaxDeliveries) {
			q.deadLetter(ctx, msg, fmt.Sprintf("delivered %d times", n))
			continue
		}
		kept = append(kept, msg)
	}
	return kept, next
}

// deliveryCounts 查不到的訊息視為 0 次，照常投遞
func (q *RedisStreamBookingEventQueueImpl) deliveryCounts(ctx context.Context, msgs []redis.XMessage) map[string]int64 {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroupName,
		Consumer: q.consumer,
		Start:    msgs[0].ID,
		End:      msgs[len(msgs)-1].ID,
		Count:    int64(len(msgs)) + q.cfg.BatchSize,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		q.log.Warn("XPendingExt failed", zap.Error(err))
	}

	counts := make(map[string]int64, len(pending))
	for _, p := range pending {
		counts[p.ID] = p.RetryCount
	}
	return counts
}

func (q *RedisStreamBookingEventQueueImpl) toDelivery(ctx context.Context, msg redis.XMessage) (Delivery, bool) {
	raw, _ := msg.Values[eventField].(string)
	var event model.BookingConfirmedEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil || event.EventID == uuid.Nil {
		q.deadLetter(ctx, msg, "undecodable event")
		return Delivery{}, false
	}

	// Ack 可能在訂閱結束後才呼叫
	ackCtx := context.WithoutCancel(ctx)
	return Delivery{
		Data: &event,
		Ack: func() {
			q.ack(ackCtx, msg.ID)
		},
		Nack: func(requeue bool) {
			if requeue {
				// 留在 PEL，ClaimMinIdleTime 後重新領取
				return
			}
			q.deadLetter(ackCtx, msg, "rejected by consumer")
		},
	}, true
}

// deadLetter 保留原始內容供人工補寄，再從 group 中移除
func (q *RedisStreamBookingEventQueueImpl) deadLetter(ctx context.Context, msg redis.XMessage, reason string) {
	log := q.log.With(zap.String("message_id", msg.ID), zap.String("reason", reason))

	values := map[string]interface{}{"source_id": msg.ID, "reason": reason}
	if raw, ok := msg.Values[eventField].(string); ok {
		values[eventField] = raw
	}
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: q.cfg.MaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		// 寫不進 dead-letter 就留在 PEL，下次領回再試
		log.Warn("dead-letter write failed", zap.Error(err))
		return
	}

	log.Warn("booking event moved to dead-letter stream")
	q.ack(ctx, msg.ID)
}

func (q *RedisStreamBookingEventQueueImpl) ack(ctx context.Context, id string) {
	if err := q.client.XAck(ctx, StreamKey, ConsumerGroupName, id).Err(); err != nil {
		q.log.Warn("XAck failed", zap.String("message_id", id), zap.Error(err))
	}
}
