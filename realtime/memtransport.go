package realtime

import (
	"context"
	"strings"
	"sync"
)

// MemoryBroker is an in-process broker implementing the Transport contract
// with single-token wildcard matching. It backs tests and single-process runs
// where a real NATS server would be overkill; delivery is synchronous and in
// publish order, which makes ordering assertions deterministic.
type MemoryBroker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*memSubscription
}

// NewMemoryBroker creates an empty broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[int]*memSubscription)}
}

// Transport attaches a new transport to the broker.
func (b *MemoryBroker) Transport() Transport {
	return &memTransport{broker: b}
}

// Dialer returns a Dialer that attaches to this broker.
func (b *MemoryBroker) Dialer() Dialer {
	return func(context.Context) (Transport, error) {
		return b.Transport(), nil
	}
}

// SubscriberCount reports how many live subscriptions match subject. Tests
// use it to wait for asynchronous subscribers to attach.
func (b *MemoryBroker) SubscriberCount(subject string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, sub := range b.subs {
		if !sub.closed && subjectMatches(sub.pattern, subject) {
			n++
		}
	}
	return n
}

func (b *MemoryBroker) publish(subject string, data []byte) {
	b.mu.RLock()
	var matched []*memSubscription
	for _, sub := range b.subs {
		if sub.closed {
			continue
		}
		if subjectMatches(sub.pattern, subject) {
			matched = append(matched, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range matched {
		sub.handler(subject, data)
	}
}

func (b *MemoryBroker) subscribe(pattern string, handler MsgHandler) *memSubscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &memSubscription{broker: b, id: b.nextID, pattern: pattern, handler: handler}
	b.subs[sub.id] = sub
	return sub
}

// subjectMatches matches a dotted subject against a pattern where "*" matches
// exactly one token.
func subjectMatches(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")
	if len(pt) != len(st) {
		return false
	}
	for i := range pt {
		if pt[i] != "*" && pt[i] != st[i] {
			return false
		}
	}
	return true
}

type memTransport struct {
	broker *MemoryBroker

	mu     sync.Mutex
	closed bool
	owned  []*memSubscription
}

func (t *memTransport) Publish(subject string, data []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrTransportClosed
	}
	t.broker.publish(subject, data)
	return nil
}

func (t *memTransport) Subscribe(subject string, handler MsgHandler) (Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}
	sub := t.broker.subscribe(subject, handler)
	t.owned = append(t.owned, sub)
	return sub, nil
}

func (t *memTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	owned := t.owned
	t.owned = nil
	t.mu.Unlock()

	for _, sub := range owned {
		_ = sub.Unsubscribe()
	}
	return nil
}

type memSubscription struct {
	broker  *MemoryBroker
	id      int
	pattern string
	handler MsgHandler
	closed  bool
}

func (s *memSubscription) Unsubscribe() error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	s.closed = true
	delete(s.broker.subs, s.id)
	return nil
}
