// Package scheduler runs the periodic subscription expiry sweep.
package scheduler

import (
	"context"
	"sync"
	"time"

	"tipster-service/internal/domain/subscription"

	"go.uber.org/zap"
)

const sweepLockKey = "tipster:lock:expiry-sweep"

type Sweeper interface {
	ExpireEndedSweep(ctx context.Context) (*subscription.SweepResult, error)
}

// Locker guards a tick against other replicas. Nil means run unguarded.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context), bool, error)
}

// ExpiryScheduler expires lapsed subscriptions on a fixed interval.
type ExpiryScheduler struct {
	sweeper  Sweeper
	locker   Locker
	logger   *zap.Logger
	interval time.Duration
	lockTTL  time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewExpiryScheduler(sweeper Sweeper, locker Locker, interval, lockTTL time.Duration, logger *zap.Logger) *ExpiryScheduler {
	return &ExpiryScheduler{
		sweeper:  sweeper,
		locker:   locker,
		logger:   logger,
		interval: interval,
		lockTTL:  lockTTL,
		stopChan: make(chan struct{}),
	}
}

func (s *ExpiryScheduler) Start(ctx context.Context) {
	s.logger.Info("starting expiry scheduler", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLoop(ctx)
	}()
}

// Stop waits for a running sweep to finish. Safe to call more than once.
func (s *ExpiryScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Info("expiry scheduler stopped")
	})
}

func (s *ExpiryScheduler) runLoop(ctx context.Context) {
	// Catch up on anything that lapsed while we were down
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one sweep. Returns false when the sweep was skipped.
func (s *ExpiryScheduler) tick(ctx context.Context) bool {
	if s.locker != nil {
		release, acquired, err := s.locker.TryAcquire(ctx, sweepLockKey, s.lockTTL)
		if err != nil {
			s.logger.Warn("expiry sweep skipped: lock unavailable", zap.Error(err))
			return false
		}
		if !acquired {
			s.logger.Debug("expiry sweep skipped: running elsewhere")
			return false
		}
		defer release(context.WithoutCancel(ctx))
	}

	start := time.Now()
	res, err := s.sweeper.ExpireEndedSweep(ctx)
	if err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return true
	}

	s.logger.Debug("expiry sweep finished",
		zap.Int("expired", res.Expired),
		zap.Int("failed", res.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return true
}
