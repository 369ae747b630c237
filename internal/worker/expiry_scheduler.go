package worker

import (
	"context"
	"fmt"
	"go-gin-cinema-booking/internal/service"
	"go-gin-cinema-booking/pkg/logger"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// ExpiryScheduler 定期把超過保留時間的 pending 訂位轉為 expired
type ExpiryScheduler struct {
	scheduler    gocron.Scheduler
	stateMachine service.BookingStateMachine
	interval     time.Duration
	timeout      time.Duration
}

func NewExpiryScheduler(stateMachine service.BookingStateMachine, interval time.Duration) (*ExpiryScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpiryScheduler{
		scheduler:    s,
		stateMachine: stateMachine,
		interval:     interval,
		timeout:      interval,
	}, nil
}

// Sweep 執行一次過期處理
func (e *ExpiryScheduler) Sweep(ctx context.Context) {
	log := logger.WithComponent("expiry")

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	expired, err := e.stateMachine.ExpirePending(ctx)
	if err != nil {
		log.Error("expire pending bookings failed", zap.Error(err))
		return
	}
	if expired > 0 {
		log.Info("expired pending bookings", zap.Int("count", expired))
	}
}

func (e *ExpiryScheduler) Start(ctx context.Context) error {
	// 上一輪還沒跑完就跳過這一輪
	_, err := e.scheduler.NewJob(
		gocron.DurationJob(e.interval),
		gocron.NewTask(func() { e.Sweep(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("expire-pending-bookings"),
	)
	if err != nil {
		return fmt.Errorf("schedule expiry job: %w", err)
	}

	e.scheduler.Start()
	return nil
}

func (e *ExpiryScheduler) Shutdown() error {
	return e.scheduler.Shutdown()
}
