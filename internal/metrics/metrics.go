package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutInitializedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_initialized_total",
		Help: "Checkout sessions initialized, by checkout type",
	}, []string{"type"})

	PaymentAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_attempts_total",
		Help: "Payment attempts started from checkout, by payment method",
	}, []string{"method"})

	PaymentOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_outcomes_total",
		Help: "Terminal payment outcomes, by payment method and outcome",
	}, []string{"method", "outcome"})

	GatewayEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_gateway_events_total",
		Help: "Hosted payment widget events received, by kind",
	}, []string{"kind"})

	OrdersPlacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders persisted, by payment method",
	}, []string{"payment_method"})

	CouponValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_validations_total",
		Help: "Coupon validations, by result",
	}, []string{"result"})

	GatewayOrdersExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_orders_expired_total",
		Help: "Gateway orders expired by the sweeper",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
