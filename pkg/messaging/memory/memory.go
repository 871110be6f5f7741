package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jwalitptl/booking-api/pkg/messaging"
)

const bufferSize = 100

type subscription struct {
	channel string
	ch      chan []byte
	done    chan struct{}
	once    sync.Once
}

// Broker is an in-process fan-out broker used when no Redis URL is configured.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string][]*subscription
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string][]*subscription)}
}

func (b *Broker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return messaging.ErrClosed
	}

	for _, s := range b.subs[channel] {
		select {
		case s.ch <- payload:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe delivers messages until ctx is cancelled or the broker is closed;
// the returned channel is closed afterwards.
func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	s := &subscription{
		channel: channel,
		ch:      make(chan []byte, bufferSize),
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, messaging.ErrClosed
	}
	b.subs[channel] = append(b.subs[channel], s)
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			b.stop(s)
		case <-s.done:
		}
	}()

	return s.ch, nil
}

// Ping reports ErrClosed once the broker has been shut down.
func (b *Broker) Ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return messaging.ErrClosed
	}
	return ctx.Err()
}

func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var all []*subscription
	for _, list := range b.subs {
		all = append(all, list...)
	}
	b.subs = make(map[string][]*subscription)
	b.mu.Unlock()

	for _, s := range all {
		b.stop(s)
	}
	return nil
}

// stop unblocks pending publishers first, then unregisters s and closes the
// delivery channel once no publisher can still be sending on it.
func (b *Broker) stop(s *subscription) {
	s.once.Do(func() {
		close(s.done)

		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[s.channel]
		for i, cur := range list {
			if cur == s {
				b.subs[s.channel] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(b.subs[s.channel]) == 0 {
			delete(b.subs, s.channel)
		}
		close(s.ch)
	})
}
