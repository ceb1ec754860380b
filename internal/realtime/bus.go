// Package realtime fans live board snapshots out to connected operators.
package realtime

import (
	"context"
	"fmt"
	"sync"

	"hotel-portal/internal/models"
)

// Group names
const (
	groupPrefix = "hotel_portal_live_"
	GroupAll    = groupPrefix + "all"
)

// GroupForHotel is the group of every operator connected to one hotel
func GroupForHotel(hotelID int64) string {
	return fmt.Sprintf("%s%d", groupPrefix, hotelID)
}

// GroupForScope is the group a connection of the given scope joins
func GroupForScope(scope models.Scope) string {
	if scope.Global() {
		return GroupAll
	}
	return GroupForHotel(scope.HotelID)
}

// Subscription delivers published payloads until closed
type Subscription interface {
	C() <-chan []byte
	Close() error
}

// Bus is a named-group publish/subscribe channel. Delivery is at most once.
type Bus interface {
	Publish(ctx context.Context, group string, payload []byte) error
	Subscribe(ctx context.Context, group string) (Subscription, error)
}

// DefaultBuffer is the per-subscriber queue length of MemoryBus
const DefaultBuffer = 32

// MemoryBus is a single-process Bus. A subscriber whose buffer is full misses the message.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySub]struct{}
	buffer int
}

// NewMemoryBus creates a new in-memory bus
func NewMemoryBus(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &MemoryBus{subs: make(map[string]map[*memorySub]struct{}), buffer: buffer}
}

// Publish delivers payload to every current subscriber of group
func (b *MemoryBus) Publish(ctx context.Context, group string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[group] {
		select {
		case sub.ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe joins group
func (b *MemoryBus) Subscribe(ctx context.Context, group string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &memorySub{bus: b, group: group, ch: make(chan []byte, b.buffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[group] == nil {
		b.subs[group] = make(map[*memorySub]struct{})
	}
	b.subs[group][sub] = struct{}{}
	return sub, nil
}

// Subscribers returns how many subscriptions group has
func (b *MemoryBus) Subscribers(group string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[group])
}

type memorySub struct {
	bus   *MemoryBus
	group string
	ch    chan []byte
	once  sync.Once
}

func (s *memorySub) C() <-chan []byte {
	return s.ch
}

func (s *memorySub) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		delete(s.bus.subs[s.group], s)
		if len(s.bus.subs[s.group]) == 0 {
			delete(s.bus.subs, s.group)
		}
		close(s.ch)
	})
	return nil
}
