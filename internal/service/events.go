package service

import (
	"sync"
	"time"

	"github.com/loreleaf/loreleaf/internal/logger"
	"github.com/loreleaf/loreleaf/models"
)

const defaultEventBuffer = 16

// broadcaster delivers engine events to explicit subscribers. Delivery is
// one synchronous pass over the subscriber channels with non-blocking
// sends, so a stalled subscriber loses events instead of stalling the
// engine.
type broadcaster struct {
	logger *logger.Logger

	mu     sync.RWMutex
	subs   map[int]chan models.EngineEvent
	nextID int
	closed bool
}

// NewEvents returns an empty event broadcaster.
func NewEvents(log *logger.Logger) Events {
	if log == nil {
		log = logger.Nop()
	}
	return &broadcaster{
		logger: log,
		subs:   make(map[int]chan models.EngineEvent),
	}
}

// Publish implements Events.
func (b *broadcaster) Publish(event models.EngineEvent) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	// The read lock is held across the sends. They cannot block, and
	// holding it keeps an unsubscribe from closing a channel mid-pass.
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Debug().
				Str("func", "broadcaster.Publish").
				Int("subscriber", id).
				Str("event", string(event.Type)).
				Msg("subscriber buffer full, event dropped")
		}
	}
}

// Subscribe implements Events.
func (b *broadcaster) Subscribe(buffer int) (<-chan models.EngineEvent, func()) {
	if buffer < 1 {
		buffer = defaultEventBuffer
	}
	ch := make(chan models.EngineEvent, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
	return ch, unsubscribe
}

// Close implements Events.
func (b *broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
