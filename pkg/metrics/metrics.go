package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 座位預約結果：reserved / conflict / lock_error / error
	SeatReservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seat_reservations_total",
		Help: "Seat reservation attempts by result",
	}, []string{"result"})

	// 金流 webhook 處理結果：applied / duplicate / ignored / anomaly / rejected / not_found / error
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Payment webhook events by provider and outcome",
	}, []string{"provider", "outcome"})

	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "Booking status transitions by target status",
	}, []string{"to"})
)
