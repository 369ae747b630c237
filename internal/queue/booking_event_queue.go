package queue

import (
	"context"
	"go-gin-cinema-booking/internal/model"
)

type Delivery struct {
	Data *model.BookingConfirmedEvent
	Ack  func()
	Nack func(requeue bool)
}

type BookingEventQueue interface {
	// 發送訂位確認事件
	PublishBookingConfirmed(ctx context.Context, event *model.BookingConfirmedEvent) error
	// 訂閱訂位確認事件
	SubscribeBookingConfirmed(ctx context.Context) (<-chan Delivery, error)
}

type MemoryBookingEventQueueImpl struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch chan *model.BookingConfirmedEvent
}

func NewMemoryBookingEventQueue(bufferSize int) BookingEventQueue {
	return &MemoryBookingEventQueueImpl{
		ch: make(chan *model.BookingConfirmedEvent, bufferSize),
	}
}

func (q *MemoryBookingEventQueueImpl) PublishBookingConfirmed(ctx context.Context, event *model.BookingConfirmedEvent) error {
	select {
	case q.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryBookingEventQueueImpl) SubscribeBookingConfirmed(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-q.ch:
				if !ok {
					return
				}

				d := Delivery{
					Data: event,
					Ack:  func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if requeue {
							// 放回隊列，buffer 滿時丟棄避免阻塞消費者
							select {
							case q.ch <- event:
							default:
							}
						}
					},
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
