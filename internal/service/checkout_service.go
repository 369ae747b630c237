package service

import (
	"context"
	"fmt"
	"go-gin-cinema-booking/internal/database"
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/payment"
	"go-gin-cinema-booking/internal/repository"
	apperrors "go-gin-cinema-booking/pkg/app_errors"
	"go-gin-cinema-booking/pkg/logger"
	"go-gin-cinema-booking/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CheckoutService interface {
	// 建立 Stripe checkout session，回傳導轉網址
	CreateStripeSession(ctx context.Context, bookingID uuid.UUID) (*model.StripeSessionResponse, error)
	// 建立 PayPal order，回傳 order id 與 approve link
	CreatePayPalOrder(ctx context.Context, bookingID uuid.UUID) (*model.PayPalOrderResponse, error)
}

type CheckoutServiceImpl struct {
	txRunner          database.TxRunner
	bookingRepository repository.BookingRepository
	paymentRepository repository.PaymentRepository
	invoiceRepository repository.InvoiceRepository
	stripe            payment.StripeGateway
	paypal            payment.PayPalGateway
}

func NewCheckoutService(
	txRunner database.TxRunner,
	bookingRepository repository.BookingRepository,
	paymentRepository repository.PaymentRepository,
	invoiceRepository repository.InvoiceRepository,
	stripe payment.StripeGateway,
	paypal payment.PayPalGateway,
) CheckoutService {
	return &CheckoutServiceImpl{
		txRunner:          txRunner,
		bookingRepository: bookingRepository,
		paymentRepository: paymentRepository,
		invoiceRepository: invoiceRepository,
		stripe:            stripe,
		paypal:            paypal,
	}
}

// beginPayment 鎖住 pending 訂位、讀發票並建立一筆 pending 付款
func (s *CheckoutServiceImpl) beginPayment(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, provider model.PaymentProvider) (*model.Invoice, *model.Payment, error) {
	booking, err := s.bookingRepository.FindActiveByIDWithLock(ctx, tx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if !booking.IsPending() {
		return nil, nil, apperrors.ErrBookingNotFound
	}

	invoice, err := s.invoiceRepository.FindByBookingID(ctx, tx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	created, err := s.paymentRepository.Create(ctx, tx, &model.Payment{
		BookingID: bookingID,
		Provider:  provider,
		Amount:    invoice.TotalPrice,
		Currency:  invoice.Currency,
		Status:    model.PaymentStatusPending,
	})
	if err != nil {
		return nil, nil, err
	}
	return invoice, created, nil
}

// stripeLineItems 明細全為非負時逐項列出；有折扣（負數）時 Stripe 不接受，改成單一總額
func stripeLineItems(invoice *model.Invoice) []payment.CheckoutLineItem {
	hasNegative := false
	for _, item := range invoice.Items {
		if item.TotalPrice.IsNegative() {
			hasNegative = true
			break
		}
	}

	if hasNegative || len(invoice.Items) == 0 {
		return []payment.CheckoutLineItem{{
			Name:       fmt.Sprintf("Invoice %s", invoice.Code),
			UnitAmount: money.ToMinorUnits(invoice.TotalPrice),
			Quantity:   1,
		}}
	}

	items := make([]payment.CheckoutLineItem, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		items = append(items, payment.CheckoutLineItem{
			Name:       item.Description,
			UnitAmount: money.ToMinorUnits(item.TotalPrice),
			Quantity:   1,
		})
	}
	return items
}

func (s *CheckoutServiceImpl) CreateStripeSession(ctx context.Context, bookingID uuid.UUID) (*model.StripeSessionResponse, error) {
	log := logger.WithComponent("checkout").With(
		zap.String("booking_id", bookingID.String()),
		zap.String("provider", string(model.PaymentProviderStripe)),
	)

	var url string
	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		invoice, created, err := s.beginPayment(ctx, tx, bookingID, model.PaymentProviderStripe)
		if err != nil {
			return err
		}

		session, err := s.stripe.CreateCheckoutSession(ctx, payment.CheckoutSessionRequest{
			PaymentID: created.ID,
			Currency:  invoice.Currency,
			LineItems: stripeLineItems(invoice),
		})
		if err != nil {
			log.Error("stripe create checkout session failed", zap.Int64("payment_id", created.ID), zap.Error(err))
			return apperrors.Wrap(apperrors.ErrProviderUnavailable, err)
		}
		if session.URL == "" {
			return apperrors.ErrStripeNoRedirect
		}

		if _, err := s.paymentRepository.SetProviderPaymentID(ctx, tx, created.ID, session.ID,
			map[string]any{"checkout_session_id": session.ID}); err != nil {
			return err
		}
		url = session.URL
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("stripe checkout session created")
	return &model.StripeSessionResponse{URL: url}, nil
}

func (s *CheckoutServiceImpl) CreatePayPalOrder(ctx context.Context, bookingID uuid.UUID) (*model.PayPalOrderResponse, error) {
	log := logger.WithComponent("checkout").With(
		zap.String("booking_id", bookingID.String()),
		zap.String("provider", string(model.PaymentProviderPayPal)),
	)

	var resp *model.PayPalOrderResponse
	err := s.txRunner.WithTx(ctx, func(tx pgx.Tx) error {
		invoice, created, err := s.beginPayment(ctx, tx, bookingID, model.PaymentProviderPayPal)
		if err != nil {
			return err
		}

		order, err := s.paypal.CreateOrder(ctx, invoice.TotalPrice, invoice.Currency)
		if err != nil {
			log.Error("paypal create order failed", zap.Int64("payment_id", created.ID), zap.Error(err))
			return apperrors.Wrap(apperrors.ErrProviderUnavailable, err)
		}
		if order.ApproveLink == "" {
			return apperrors.ErrPayPalNoApproveLink
		}

		if _, err := s.paymentRepository.SetProviderPaymentID(ctx, tx, created.ID, order.ID, nil); err != nil {
			return err
		}
		resp = &model.PayPalOrderResponse{OrderID: order.ID, ApproveLink: order.ApproveLink}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("paypal order created", zap.String("order_id", resp.OrderID))
	return resp, nil
}
