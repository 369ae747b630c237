package main

import (
	"context"
	"errors"
	"fmt"
	"go-gin-cinema-booking/config"
	"go-gin-cinema-booking/internal/cache"
	"go-gin-cinema-booking/internal/database"
	"go-gin-cinema-booking/internal/handler"
	"go-gin-cinema-booking/internal/notification"
	"go-gin-cinema-booking/internal/payment"
	"go-gin-cinema-booking/internal/queue"
	"go-gin-cinema-booking/internal/repository"
	"go-gin-cinema-booking/internal/service"
	"go-gin-cinema-booking/internal/worker"
	"go-gin-cinema-booking/pkg/logger"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.LoadConfig()

	gin.SetMode(cfg.Server.GinMode)
	if cfg.Server.GinMode == gin.ReleaseMode {
		logger.SetLevel(zapcore.WarnLevel)
	}
	log := logger.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	// repositories
	txRunner := database.NewTxRunner(pool)
	bookingRepository := repository.NewBookingRepository(pool)
	bookingSeatRepository := repository.NewBookingSeatRepository(pool)
	ticketRepository := repository.NewTicketRepository(pool)
	paymentRepository := repository.NewPaymentRepository(pool)
	invoiceRepository := repository.NewInvoiceRepository(pool)
	catalogRepository := repository.NewCatalogRepository(pool)
	seatLocks := cache.NewRedisSeatLockStore(rdb, cfg.SeatLock.TTL, cfg.SeatLock.OpTimeout)

	// payment providers
	stripeGateway := payment.NewStripeGateway(
		cfg.Stripe.APIKey, cfg.Stripe.WebhookSecret,
		cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL, cfg.Stripe.Timeout,
	)
	paypalGateway, err := payment.NewPayPalGateway(
		cfg.PayPal.ClientID, cfg.PayPal.ClientSecret, cfg.PayPal.WebhookID,
		cfg.PayPal.Sandbox, cfg.PayPal.Timeout,
	)
	if err != nil {
		log.Fatal("Failed to initialize paypal client", zap.Error(err))
	}

	events, closeQueue, err := newBookingEventQueue(&cfg.Queue, rdb)
	if err != nil {
		log.Fatal("Failed to initialize booking event queue", zap.Error(err))
	}
	defer closeQueue()

	// services
	stateMachine := service.NewBookingStateMachine(
		txRunner, bookingRepository, bookingSeatRepository, paymentRepository,
		invoiceRepository, seatLocks, cfg.Booking.HoldTTL, time.Now,
	)
	bookingService := service.NewBookingService(
		txRunner, bookingRepository, bookingSeatRepository, invoiceRepository,
		catalogRepository, stateMachine,
		service.BookingServiceConfig{
			VATRate:           cfg.Booking.DefaultVATRate,
			Currency:          cfg.Booking.Currency,
			InvoiceCodeLength: cfg.Booking.InvoiceCodeLength,
			Now:               time.Now,
		},
	)
	reservationService := service.NewReservationService(
		txRunner, bookingRepository, bookingSeatRepository, ticketRepository,
		invoiceRepository, catalogRepository, seatLocks, cfg.Booking.BarcodeLength,
	)
	ticketService := service.NewTicketService(txRunner, ticketRepository, time.Now)
	checkoutService := service.NewCheckoutService(
		txRunner, bookingRepository, paymentRepository, invoiceRepository,
		stripeGateway, paypalGateway,
	)
	reconciler := service.NewPaymentReconciler(
		txRunner, paymentRepository, stateMachine, stripeGateway, paypalGateway,
		events, time.Now,
	)

	// background workers
	notifier, err := notification.NewEmailNotifier(
		bookingRepository, notification.NewSMTPSender(&cfg.Mail), cfg.Mail.From,
	)
	if err != nil {
		log.Fatal("Failed to initialize email notifier", zap.Error(err))
	}
	ledger := cache.NewRedisNotificationLedger(rdb, 0, 0, cfg.SeatLock.OpTimeout)
	if err := worker.NewNotificationWorker(notifier, events, ledger).Start(ctx); err != nil {
		log.Fatal("Failed to start notification worker", zap.Error(err))
	}

	expiry, err := worker.NewExpiryScheduler(stateMachine, cfg.Booking.SweepInterval)
	if err != nil {
		log.Fatal("Failed to create expiry scheduler", zap.Error(err))
	}
	if err := expiry.Start(ctx); err != nil {
		log.Fatal("Failed to start expiry scheduler", zap.Error(err))
	}

	router := handler.NewRouter(
		handler.NewBookingHandler(bookingService),
		handler.NewBookingSeatHandler(reservationService),
		handler.NewTicketHandler(ticketService),
		handler.NewStripeHandler(checkoutService, reconciler),
		handler.NewPayPalHandler(checkoutService, reconciler),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	if err := expiry.Shutdown(); err != nil {
		log.Error("expiry scheduler shutdown failed", zap.Error(err))
	}
}

// newBookingEventQueue 依 QUEUE_DRIVER 選擇 memory、redis stream 或 RabbitMQ
func newBookingEventQueue(cfg *config.QueueConfig, rdb *redis.Client) (queue.BookingEventQueue, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case "", "memory":
		return queue.NewMemoryBookingEventQueue(cfg.BufferSize), noop, nil
	case "redis":
		hostname, _ := os.Hostname()
		q, err := queue.NewRedisStreamBookingEventQueue(rdb, fmt.Sprintf("%s-%d", hostname, os.Getpid()), nil)
		if err != nil {
			return nil, nil, err
		}
		return q, noop, nil
	case "amqp":
		q, err := queue.NewAMQPBookingEventQueue(cfg.AMQPURL, cfg.BufferSize)
		if err != nil {
			return nil, nil, err
		}
		return q, func() { _ = q.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}
