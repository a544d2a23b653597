package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/logger"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/metrics"
)

type staleExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// PaymentSweeper periodically expires gateway orders the customer never
// paid for.
type PaymentSweeper struct {
	expirer staleExpirer
	maxAge  time.Duration
	cron    *cron.Cron
	log     *zap.Logger
	now     func() time.Time
}

func NewPaymentSweeper(expirer staleExpirer, maxAge time.Duration) *PaymentSweeper {
	return &PaymentSweeper{
		expirer: expirer,
		maxAge:  maxAge,
		cron:    cron.New(),
		log:     logger.Named("payment-sweeper"),
		now:     time.Now,
	}
}

// Start schedules Sweep on spec, e.g. "@every 5m".
func (s *PaymentSweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.Sweep(ctx)
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("payment sweeper started", zap.String("schedule", spec), zap.Duration("max_age", s.maxAge))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *PaymentSweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *PaymentSweeper) Sweep(ctx context.Context) int64 {
	n, err := s.expirer.ExpireStale(ctx, s.now().Add(-s.maxAge))
	if err != nil {
		s.log.Error("expire stale gateway orders", zap.Error(err))
		return 0
	}
	if n > 0 {
		metrics.GatewayOrdersExpiredTotal.Add(float64(n))
		s.log.Info("expired stale gateway orders", zap.Int64("count", n))
	}
	return n
}
