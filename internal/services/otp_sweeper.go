package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OtpSweeper periodically deletes expired codes. Expiry is enforced at verify
// time regardless; this only reclaims storage.
type OtpSweeper struct {
	otp      OtpServiceInterface
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewOtpSweeper(otp OtpServiceInterface, interval time.Duration, logger *zap.Logger) *OtpSweeper {
	return &OtpSweeper{
		otp:      otp,
		interval: interval,
		logger:   logger.Named("otp_sweeper"),
	}
}

// Start launches the sweep loop. A non-positive interval disables it.
func (s *OtpSweeper) Start() {
	if s.interval <= 0 || s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *OtpSweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := s.otp.SweepExpired(ctx)
	if err != nil {
		s.logger.Warn("otp sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("expired otp codes removed", zap.Int64("count", n))
	}
}

// Stop cancels the loop and waits for it to exit or for ctx to end.
func (s *OtpSweeper) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
