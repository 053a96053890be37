package realtime

import (
	"sync"

	"hushnet/internal/observability/metrics"
)

// subscriberBuffer is how many events a subscriber may lag before it
// starts missing them.
const subscriberBuffer = 100

// Bus is the single-process broadcast point between the store listener
// and the websocket connections. One Bus is created at startup and
// handed to both sides; tests construct their own.
//
// Publish never blocks: each subscriber has a bounded queue, and a
// subscriber that cannot keep up misses older events instead of
// backpressuring the publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber. The returned cancel must be
// called when the consumer goes away; it closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber that has queue space.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			metrics.RealtimeEventsDroppedTotal.Inc()
		}
	}
}

// Subscribers reports the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
