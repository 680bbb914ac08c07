package pipeline

import (
	"sync"

	"basegraph.app/herald/common/metrics"
)

// DefaultBroadcastCapacity is the per-subscriber buffer size.
const DefaultBroadcastCapacity = 64

// Subscription receives results on C until it is unsubscribed or the
// broadcaster is closed.
type Subscription struct {
	C  <-chan Result
	ch chan Result
}

// Broadcaster fans results out to subscribers. Each subscriber has its own
// bounded buffer; when it is full the oldest result is dropped so Publish
// never waits on a reader.
type Broadcaster struct {
	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	capacity int
	closed   bool
}

func NewBroadcaster(capacity int) *Broadcaster {
	if capacity <= 0 {
		capacity = DefaultBroadcastCapacity
	}
	return &Broadcaster{
		subs:     make(map[*Subscription]struct{}),
		capacity: capacity,
	}
}

func (b *Broadcaster) Subscribe() *Subscription {
	ch := make(chan Result, b.capacity)
	sub := &Subscription{C: ch, ch: ch}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Publish returns the number of results evicted to make room.
func (b *Broadcaster) Publish(r Result) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := 0
	for sub := range b.subs {
		select {
		case sub.ch <- r:
			continue
		default:
		}
		// Full: evict the oldest. The reader may have drained it meanwhile,
		// in which case the send below succeeds without an eviction.
		select {
		case <-sub.ch:
			dropped++
		default:
		}
		select {
		case sub.ch <- r:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		metrics.BroadcastDropped.Add(float64(dropped))
	}
	return dropped
}

// Close ends every subscription. Later publishes are no-ops.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		close(sub.ch)
	}
	b.subs = map[*Subscription]struct{}{}
}
