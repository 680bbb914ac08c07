package throttle_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/herald/internal/throttle"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var _ = Describe("Map", func() {
	var (
		clock *fakeClock
		m     *throttle.Map
	)

	BeforeEach(func() {
		clock = &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
		m = throttle.New(throttle.Config{Horizon: time.Minute, MaxKeys: 3, Now: clock.Now})
	})

	It("lets the first event through and holds repeats inside the cooldown", func() {
		Expect(m.Allow("k", 2*time.Second)).To(BeTrue())
		Expect(m.Allow("k", 2*time.Second)).To(BeFalse())
		clock.Advance(time.Second)
		Expect(m.Allow("k", 2*time.Second)).To(BeFalse())
		clock.Advance(time.Second)
		Expect(m.Allow("k", 2*time.Second)).To(BeTrue())
	})

	It("tracks keys independently", func() {
		Expect(m.Allow("a", time.Second)).To(BeTrue())
		Expect(m.Allow("b", time.Second)).To(BeTrue())
	})

	It("always allows with a zero cooldown", func() {
		Expect(m.Allow("k", 0)).To(BeTrue())
		Expect(m.Allow("k", 0)).To(BeTrue())
		Expect(m.Len()).To(Equal(0))
	})

	It("admits exactly one of many concurrent callers", func() {
		var passed atomic.Int32
		var wg sync.WaitGroup
		for range 64 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if m.Allow("same", time.Hour) {
					passed.Add(1)
				}
			}()
		}
		wg.Wait()
		Expect(passed.Load()).To(Equal(int32(1)))
	})

	It("evicts entries older than the horizon", func() {
		m.Allow("old", time.Second)
		clock.Advance(2 * time.Minute)
		m.Allow("new", time.Second)
		Expect(m.Len()).To(Equal(1))
	})

	It("never grows past the key budget", func() {
		for i := range 10 {
			clock.Advance(time.Millisecond)
			m.Allow(fmt.Sprintf("k%d", i), time.Second)
		}
		Expect(m.Len()).To(BeNumerically("<=", 3))
		// newest key survives the sweep
		Expect(m.Allow("k9", time.Second)).To(BeFalse())
	})
})
