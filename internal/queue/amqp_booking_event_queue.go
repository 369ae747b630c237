package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/pkg/logger"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const BookingConfirmedQueueName = "booking.confirmed"

// AMQPBookingEventQueueImpl 以 RabbitMQ durable queue 傳遞訂位確認事件
type AMQPBookingEventQueueImpl struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	pubCh    *amqp.Channel
	queue    string
	prefetch int
}

func NewAMQPBookingEventQueue(url string, prefetch int) (*AMQPBookingEventQueueImpl, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		BookingConfirmedQueueName, // name
		true,                      // durable
		false,                     // autoDelete
		false,                     // exclusive
		false,                     // noWait
		nil,                       // args
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}

	if prefetch <= 0 {
		prefetch = 50
	}

	return &AMQPBookingEventQueueImpl{
		conn:     conn,
		pubCh:    ch,
		queue:    BookingConfirmedQueueName,
		prefetch: prefetch,
	}, nil
}

func (q *AMQPBookingEventQueueImpl) PublishBookingConfirmed(ctx context.Context, event *model.BookingConfirmedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// amqp.Channel 不是 goroutine safe
	q.mu.Lock()
	defer q.mu.Unlock()

	err = q.pubCh.PublishWithContext(ctx,
		"",      // default exchange
		q.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID.String(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (q *AMQPBookingEventQueueImpl) SubscribeBookingConfirmed(ctx context.Context) (<-chan Delivery, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.Qos(q.prefetch, 0, false); err != nil {
		logger.WithComponent("mq").Warn("amqp set qos failed", zap.Error(err))
	}

	msgs, err := ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("amqp consume: %w", err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.WithComponent("mq").Error("amqp deliveries channel closed")
					return
				}
				d := q.newDelivery(msg)
				if d == nil {
					continue
				}
				select {
				case out <- *d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (q *AMQPBookingEventQueueImpl) newDelivery(msg amqp.Delivery) *Delivery {
	var event model.BookingConfirmedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		logger.WithComponent("mq").Warn("unmarshal event failed", zap.String("message_id", msg.MessageId), zap.Error(err))
		_ = msg.Nack(false, false)
		return nil
	}

	return &Delivery{
		Data: &event,
		Ack: func() {
			if err := msg.Ack(false); err != nil {
				logger.WithComponent("mq").Error("amqp ack failed", zap.String("message_id", msg.MessageId), zap.Error(err))
			}
		},
		Nack: func(requeue bool) {
			if err := msg.Nack(false, requeue); err != nil {
				logger.WithComponent("mq").Error("amqp nack failed", zap.String("message_id", msg.MessageId), zap.Error(err))
			}
		},
	}
}

func (q *AMQPBookingEventQueueImpl) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	_ = q.pubCh.Close()
	return q.conn.Close()
}
