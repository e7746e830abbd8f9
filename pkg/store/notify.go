package store

import (
	"sync"

	"agora/pkg/protocol"
)

// subscriberBuffer is the channel depth per subscription. A subscriber that
// falls further behind than this misses messages and must catch up with Read;
// delivery is change notification, not a replayable log.
const subscriberBuffer = 64

// Subscription delivers newly appended messages for one room. Cancel it when
// done or the store carries the dead channel until Close.
type Subscription struct {
	C      <-chan protocol.Message
	room   string
	id     int64
	cancel func()
}

// Cancel removes the subscription. Safe to call multiple times.
func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// subscribers fans appended messages out to room listeners. Publish never
// blocks: a full subscriber channel is skipped, preserving append latency.
type subscribers struct {
	mu     sync.Mutex
	nextID int64
	byRoom map[string]map[int64]chan protocol.Message
	closed bool
}

func newSubscribers() *subscribers {
	return &subscribers{byRoom: make(map[string]map[int64]chan protocol.Message)}
}

// Subscribe returns a change-notification channel for a room. Appends that
// happen before Subscribe returns are not delivered; readers wanting history
// call Read first, then watch the subscription.
func (s *Store) Subscribe(room string) *Subscription {
	return s.subs.subscribe(room)
}

func (sub *subscribers) subscribe(room string) *Subscription {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	ch := make(chan protocol.Message, subscriberBuffer)
	if sub.closed {
		close(ch)
		return &Subscription{C: ch, room: room}
	}

	sub.nextID++
	id := sub.nextID
	if sub.byRoom[room] == nil {
		sub.byRoom[room] = make(map[int64]chan protocol.Message)
	}
	sub.byRoom[room][id] = ch

	return &Subscription{
		C:    ch,
		room: room,
		id:   id,
		cancel: func() {
			sub.mu.Lock()
			defer sub.mu.Unlock()
			if chans, ok := sub.byRoom[room]; ok {
				if c, ok := chans[id]; ok {
					delete(chans, id)
					close(c)
				}
			}
		},
	}
}

func (sub *subscribers) publish(msg protocol.Message) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	for _, ch := range sub.byRoom[msg.Room] {
		select {
		case ch <- msg:
		default:
			// Slow subscriber: drop rather than stall the appender.
		}
	}
}

func (sub *subscribers) closeAll() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	for room, chans := range sub.byRoom {
		for id, ch := range chans {
			close(ch)
			delete(chans, id)
		}
		delete(sub.byRoom, room)
	}
}
