package service

import (
	"context"
	"encoding/json"
	"errors"
	"go-gin-cinema-booking/internal/database"
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/payment"
	"go-gin-cinema-booking/internal/queue"
	"go-gin-cinema-booking/internal/repository"
	apperrors "go-gin-cinema-booking/pkg/app_errors"
	"go-gin-cinema-booking/pkg/logger"
	"go-gin-cinema-booking/pkg/metrics"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentReconciler interface {
	// 驗證簽章後依事件更新付款與訂位；重送的事件不會重複套用
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
	HandlePayPalWebhook(ctx context.Context, headers http.Header, body []byte) error
}

type PaymentReconcilerImpl struct {
	txRunner          database.TxRunner
	paymentRepository repository.PaymentRepository
	stateMachine      BookingStateMachine
	stripe            payment.StripeGateway
	paypal            payment.PayPalGateway
	events            queue.BookingEventQueue
	now               func() time.Time
}

func NewPaymentReconciler(
	txRunner database.TxRunner,
	paymentRepository repository.PaymentRepository,
	stateMachine BookingStateMachine,
	stripe payment.StripeGateway,
	paypal payment.PayPalGateway,
	events queue.BookingEventQueue,
	now func() time.Time,
) PaymentReconciler {
	if now == nil {
		now = time.Now
	}
	return &PaymentReconcilerImpl{
		txRunner:          txRunner,
		paymentRepository: paymentRepository,
		stateMachine:      stateMachine,
		stripe:            stripe,
		paypal:            paypal,
		events:            events,
		now:               now,
	}
}

// payPalWebhookEvent 只解析對帳需要的欄位；resource 原樣保留供拒絕時寫入付款 metadata
type payPalWebhookEvent struct {
	ID          string          `json:"id"`
	EventType   string          `json:"event_type"`
	RawResource json.RawMessage `json:"resource"`
}

type payPalCaptureResource struct {
	ID                string `json:"id"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

func (s *PaymentReconcilerImpl) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	provider := string(model.PaymentProviderStripe)
	log := logger.WithComponent("webhook").With(zap.String("provider", provider))

	event, err := s.stripe.ParseWebhook(payload, signature)
	if err != nil {
		log.Warn("stripe webhook signature rejected", zap.Error(err))
		metrics.WebhookEvents.WithLabelValues(provider, "rejected").Inc()
		return apperrors.Wrap(apperrors.ErrInvalidWebhookSignature, err)
	}
	log = log.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	switch event.Type {
	case payment.StripeEventPaymentIntentSucceeded, payment.StripeEventPaymentIntentFailed:
	default:
		log.Debug("stripe event ignored")
		metrics.WebhookEvents.WithLabelValues(provider, "ignored").Inc()
		return nil
	}

	paymentID, err := strconv.ParseInt(event.PaymentID, 10, 64)
	if err != nil || paymentID <= 0 {
		log.Error("stripe event without valid payment_id metadata", zap.String("payment_id", event.PaymentID))
		metrics.WebhookEvents.WithLabelValues(provider, "not_found").Inc()
		return apperrors.ErrPaymentNotFound
	}

	find := func(ctx context.Context, tx pgx.Tx) (*model.Payment, error) {
		return s.paymentRepository.FindByIDWithLock(ctx, tx, paymentID)
	}

	if event.Type == payment.StripeEventPaymentIntentFailed {
		return s.markFailed(ctx, log, provider, find, map[string]any{"error": event.ErrorMessage})
	}

	intentID := event.PaymentIntentID
	var providerPaymentID *string
	if intentID != "" {
		providerPaymentID = &intentID
	}
	return s.markSucceeded(ctx, log, provider, find, providerPaymentID)
}

func (s *PaymentReconcilerImpl) HandlePayPalWebhook(ctx context.Context, headers http.Header, body []byte) error {
	provider := string(model.PaymentProviderPayPal)
	log := logger.WithComponent("webhook").With(zap.String("provider", provider))

	for _, name := range payment.PayPalWebhookHeaders {
		if headers.Get(name) == "" {
			log.Warn("paypal webhook header missing", zap.String("header", name))
			metrics.WebhookEvents.WithLabelValues(provider, "rejected").Inc()
			return apperrors.ErrMissingWebhookHeaders
		}
	}

	verified, err := s.paypal.VerifyWebhook(ctx, headers, body)
	if err != nil {
		log.Error("paypal webhook verification unavailable", zap.Error(err))
		metrics.WebhookEvents.WithLabelValues(provider, "error").Inc()
		return apperrors.Wrap(apperrors.ErrProviderUnavailable, err)
	}
	if !verified {
		log.Warn("paypal webhook signature rejected")
		metrics.WebhookEvents.WithLabelValues(provider, "rejected").Inc()
		return apperrors.ErrInvalidWebhookSignature
	}

	var event payPalWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		metrics.WebhookEvents.WithLabelValues(provider, "rejected").Inc()
		return apperrors.Wrap(apperrors.ErrInvalidWebhookPayload, err)
	}
	log = log.With(zap.String("event_id", event.ID), zap.String("event_type", event.EventType))

	switch event.EventType {
	case payment.PayPalEventCaptureCompleted, payment.PayPalEventCaptureDenied:
	default:
		log.Debug("paypal event ignored")
		metrics.WebhookEvents.WithLabelValues(provider, "ignored").Inc()
		return nil
	}

	var (
		resource     payPalCaptureResource
		resourceData map[string]any
	)
	if len(event.RawResource) > 0 {
		if err := json.Unmarshal(event.RawResource, &resource); err != nil {
			metrics.WebhookEvents.WithLabelValues(provider, "rejected").Inc()
			return apperrors.Wrap(apperrors.ErrInvalidWebhookPayload, err)
		}
		if err := json.Unmarshal(event.RawResource, &resourceData); err != nil {
			metrics.WebhookEvents.WithLabelValues(provider, "rejected").Inc()
			return apperrors.Wrap(apperrors.ErrInvalidWebhookPayload, err)
		}
	}

	// capture 事件的 resource.id 是 capture id，order id 放在 related_ids
	orderID := resource.SupplementaryData.RelatedIDs.OrderID
	if orderID == "" {
		orderID = resource.ID
	}
	if orderID == "" {
		metrics.WebhookEvents.WithLabelValues(provider, "rejected").Inc()
		return apperrors.ErrInvalidWebhookPayload
	}
	log = log.With(zap.String("order_id", orderID))

	find := func(ctx context.Context, tx pgx.Tx) (*model.Payment, error) {
		return s.paymentRepository.FindByProviderPaymentIDWithLock(ctx, tx, model.PaymentProviderPayPal, orderID)
	}

	if event.EventType == payment.PayPalEventCaptureDenied {
		return s.markDenied(ctx, log, provider, find, resourceData)
	}
	return s.markSucceeded(ctx, log, provider, find, nil)
}

type paymentFinder func(ctx context.Context, tx pgx.Tx) (*model.Payment, error)

// markSucceeded 付款完成並確認訂位；commit 之後才發事件與釋放鎖
func (s *PaymentReconcilerImpl) markSucceeded(ctx context.Context, log *zap.Logger, provider string, find paymentFinder, providerPaymentID *string) error {
	var (
		result  *TransitionResult
		paid    *model.Payment
		outcome = "applied"
	)

	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := find(ctx, tx)
		if err != nil {
			return err
		}
		log := log.With(zap.Int64("payment_id", current.ID), zap.String("booking_id", current.BookingID.String()))

		switch current.Status {
		case model.PaymentStatusCompleted:
			outcome = "duplicate"
			log.Info("payment already completed, duplicate event")
			return nil
		case model.PaymentStatusCancelled:
			outcome = "anomaly"
			log.Error("success event for cancelled payment")
			return nil
		}

		// 完成後清掉 checkout 階段的 metadata
		paid, err = s.paymentRepository.UpdateStatus(ctx, tx, current.ID, model.PaymentStatusCompleted, providerPaymentID, nil)
		if err != nil {
			return err
		}

		result, err = s.stateMachine.Confirm(ctx, tx, current.BookingID)
		if err != nil {
			// 訂位已取消或過期但錢已收到：保留付款紀錄，交由人工處理
			if errors.Is(err, apperrors.ErrInvalidBookingTransition) {
				outcome = "anomaly"
				result = nil
				log.Error("payment completed for terminal booking", zap.Error(err))
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.recordFailure(log, provider, err)
		return err
	}

	metrics.WebhookEvents.WithLabelValues(provider, outcome).Inc()
	if result == nil {
		return nil
	}

	// 事件重送時 Changed 為 false，不會重複通知
	if result.Changed {
		event := &model.BookingConfirmedEvent{
			EventID:     uuid.New(),
			BookingID:   result.Booking.ID,
			PaymentID:   paid.ID,
			ConfirmedAt: s.now(),
		}
		if err := s.events.PublishBookingConfirmed(ctx, event); err != nil {
			log.Error("publish booking confirmed event failed", zap.String("booking_id", event.BookingID.String()), zap.Error(err))
		}
	}
	s.stateMachine.AfterCommit(context.Background(), result)
	return nil
}

// markFailed 付款失敗，訂位維持 pending 讓使用者重試
func (s *PaymentReconcilerImpl) markFailed(ctx context.Context, log *zap.Logger, provider string, find paymentFinder, metadata map[string]any) error {
	outcome := "applied"
	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := find(ctx, tx)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(model.PaymentStatusFailed) {
			outcome = "ignored"
			log.Warn("failure event for finished payment",
				zap.Int64("payment_id", current.ID), zap.String("status", string(current.Status)))
			return nil
		}
		_, err = s.paymentRepository.UpdateStatus(ctx, tx, current.ID, model.PaymentStatusFailed, nil, metadata)
		return err
	})
	if err != nil {
		s.recordFailure(log, provider, err)
		return err
	}
	metrics.WebhookEvents.WithLabelValues(provider, outcome).Inc()
	return nil
}

// markDenied PayPal 拒絕扣款：付款取消，訂位一併取消
func (s *PaymentReconcilerImpl) markDenied(ctx context.Context, log *zap.Logger, provider string, find paymentFinder, metadata map[string]any) error {
	var (
		result  *TransitionResult
		outcome = "applied"
	)

	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := find(ctx, tx)
		if err != nil {
			return err
		}
		if current.Status == model.PaymentStatusCancelled {
			outcome = "duplicate"
			return nil
		}
		if !current.Status.CanTransitionTo(model.PaymentStatusCancelled) {
			outcome = "ignored"
			log.Warn("denied event for finished payment",
				zap.Int64("payment_id", current.ID), zap.String("status", string(current.Status)))
			return nil
		}

		if _, err := s.paymentRepository.UpdateStatus(ctx, tx, current.ID, model.PaymentStatusCancelled, nil, metadata); err != nil {
			return err
		}

		result, err = s.stateMachine.Cancel(ctx, tx, current.BookingID)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidBookingTransition) {
				result = nil
				log.Warn("booking not cancellable after denied payment", zap.Error(err))
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.recordFailure(log, provider, err)
		return err
	}

	metrics.WebhookEvents.WithLabelValues(provider, outcome).Inc()
	if result != nil {
		s.stateMachine.AfterCommit(context.Background(), result)
	}
	return nil
}

func (s *PaymentReconcilerImpl) recordFailure(log *zap.Logger, provider string, err error) {
	if errors.Is(err, apperrors.ErrPaymentNotFound) {
		log.Error("webhook references unknown payment", zap.Error(err))
		metrics.WebhookEvents.WithLabelValues(provider, "not_found").Inc()
		return
	}
	log.Error("webhook processing failed", zap.Error(err))
	metrics.WebhookEvents.WithLabelValues(provider, "error").Inc()
}
