package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Scheduler", func() {
	It("retries a failed cycle until it succeeds", func() {
		var calls atomic.Int32
		s := newScheduler(func(context.Context) error {
			if calls.Add(1) < 3 {
				return errors.New("transient")
			}
			return nil
		}, SchedulerConfig{Interval: time.Hour, InitialInterval: time.Millisecond, MaxElapsedTime: time.Second})

		go func() { _ = s.Run(context.Background()) }()
		Eventually(calls.Load).Should(Equal(int32(3)))
		Consistently(calls.Load, 50*time.Millisecond).Should(Equal(int32(3)))
		s.Stop()
	})

	It("polls on every interval", func() {
		var calls atomic.Int32
		s := newScheduler(func(context.Context) error {
			calls.Add(1)
			return nil
		}, SchedulerConfig{Interval: 10 * time.Millisecond})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()

		Eventually(calls.Load).Should(BeNumerically(">=", 3))
		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
	})

	It("stops retrying when stopped", func() {
		var calls atomic.Int32
		s := newScheduler(func(context.Context) error {
			calls.Add(1)
			return errors.New("down")
		}, SchedulerConfig{Interval: time.Hour, InitialInterval: 20 * time.Millisecond, MaxElapsedTime: time.Minute})

		go func() { _ = s.Run(context.Background()) }()
		Eventually(calls.Load).Should(BeNumerically(">=", 1))
		s.Stop()
	})
})
