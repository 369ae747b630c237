package worker

import (
	"context"
	"go-gin-cinema-booking/internal/cache"
	"go-gin-cinema-booking/internal/notification"
	"go-gin-cinema-booking/internal/queue"
	"go-gin-cinema-booking/pkg/logger"

	"go.uber.org/zap"
)

type NotificationWorker interface {
	// 訂閱訂位確認事件並寄出確認信
	Start(ctx context.Context) error
}

type NotificationWorkerImpl struct {
	notifier notification.BookingNotifier
	queue    queue.BookingEventQueue
	ledger   cache.NotificationLedger
}

func NewNotificationWorker(notifier notification.BookingNotifier, queue queue.BookingEventQueue, ledger cache.NotificationLedger) NotificationWorker {
	return &NotificationWorkerImpl{
		notifier: notifier,
		queue:    queue,
		ledger:   ledger,
	}
}

func (w *NotificationWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeBookingConfirmed(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			w.handle(ctx, msg)
		}
	}()
	return nil
}

// handle 每個 event id 只寄一次；queue 是 at-least-once，重送的事件在這裡擋下
func (w *NotificationWorkerImpl) handle(ctx context.Context, msg queue.Delivery) {
	log := logger.WithComponent("notifier").With(
		zap.String("event_id", msg.Data.EventID.String()),
		zap.String("booking_id", msg.Data.BookingID.String()),
	)

	state, err := w.ledger.Begin(ctx, msg.Data.EventID)
	if err != nil {
		log.Warn("notification ledger unavailable, retry later", zap.Error(err))
		msg.Nack(true)
		return
	}
	switch state {
	case cache.SendCompleted:
		log.Info("confirmation already sent, duplicate event")
		msg.Ack()
		return
	case cache.SendInProgress:
		log.Info("confirmation being sent by another consumer")
		msg.Nack(true)
		return
	}

	if err := w.notifier.NotifyBookingConfirmed(ctx, msg.Data); err != nil {
		// SMTP 暫時失敗就放回隊列重試
		log.Warn("notify booking confirmed failed", zap.Error(err))
		if abortErr := w.ledger.Abort(context.WithoutCancel(ctx), msg.Data.EventID); abortErr != nil {
			log.Warn("release notification claim failed", zap.Error(abortErr))
		}
		msg.Nack(true)
		return
	}

	if err := w.ledger.MarkSent(context.WithoutCancel(ctx), msg.Data.EventID); err != nil {
		log.Warn("mark confirmation sent failed", zap.Error(err))
	}
	msg.Ack()
}
