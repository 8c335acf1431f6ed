// Package hub fans out "ledger changed" notifications to live dashboards
// running in this process.
package hub

import (
	"sync"

	"github.com/google/uuid"
)

type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan struct{}]struct{}
}

func New() *Hub {
	return &Hub{
		subs: make(map[uuid.UUID]map[chan struct{}]struct{}),
	}
}

// Subscribe returns a channel that receives a signal after every ledger
// change of the account. Signals coalesce while the reader is busy.
func (h *Hub) Subscribe(accountID uuid.UUID) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	set, ok := h.subs[accountID]
	if !ok {
		set = make(map[chan struct{}]struct{})
		h.subs[accountID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			delete(h.subs[accountID], ch)
			if len(h.subs[accountID]) == 0 {
				delete(h.subs, accountID)
			}
			close(ch)
		})
	}

	return ch, cancel
}

func (h *Hub) Publish(accountID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[accountID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (h *Hub) Subscribers(accountID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs[accountID])
}
