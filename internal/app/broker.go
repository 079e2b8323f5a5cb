package app

import (
	"sync"

	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/rs/zerolog/log"
)

// Broker fans out room-changed notifications published after a durable commit.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan domain.InviteCode]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan domain.InviteCode]struct{})}
}

// Subscribe returns a channel of changed invite codes and a func that ends the subscription.
// Publishers block while a subscriber's buffer is full.
func (b *Broker) Subscribe(buffer int) (<-chan domain.InviteCode, func()) {
	ch := make(chan domain.InviteCode, buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			close(ch)
			b.mu.Unlock()
		})
	}
}

func (b *Broker) Publish(code domain.InviteCode) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		ch <- code
	}
	log.Debug().Str("module", "app.broker").Str("room", string(code)).Int("subscribers", len(b.subs)).Msg("room changed")
}
