package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type SchedulerConfig struct {
	Interval time.Duration
	// MaxElapsedTime bounds the retries of one failed cycle.
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
}

// Scheduler calls Poll every Interval and retries a failed cycle with
// exponential backoff.
type Scheduler struct {
	poll func(ctx context.Context) error
	cfg  SchedulerConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewScheduler(p *Poller, cfg SchedulerConfig) *Scheduler {
	return newScheduler(p.Poll, cfg)
}

func newScheduler(poll func(ctx context.Context) error, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = time.Second
	}
	if cfg.MaxElapsedTime <= 0 {
		cfg.MaxElapsedTime = cfg.Interval
	}
	return &Scheduler{
		poll:      poll,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run polls immediately and then on every tick until ctx is done or Stop
// is called.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.stoppedCh)

	slog.InfoContext(ctx, "poll scheduler started", "interval", s.cfg.Interval)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.cycle(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			slog.InfoContext(ctx, "poll scheduler stopping")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

func (s *Scheduler) cycle(ctx context.Context) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.cfg.InitialInterval
	exp.MaxElapsedTime = s.cfg.MaxElapsedTime
	exp.Reset()

	stopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-stopCtx.Done():
		}
	}()

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		return s.poll(stopCtx)
	}, backoff.WithContext(exp, stopCtx), func(err error, wait time.Duration) {
		slog.WarnContext(ctx, "poll cycle failed, retrying", "attempt", attempt, "wait", wait, "error", err)
	})
	if err != nil && stopCtx.Err() == nil {
		slog.ErrorContext(ctx, "poll cycle failed", "attempts", attempt, "error", err)
	}
}
