package service

import "sync"

// hub fans values out to subscribers without ever blocking the publisher.
// Each subscriber has a one-slot mailbox. When a value is still pending, the new
// one is combined with it by merge (nil merge: the newest value wins).
type hub[T any] struct {
	mu      sync.Mutex
	clients map[int]chan T
	nextID  int
	merge   func(pending, next T) T
}

func newHub[T any](merge func(pending, next T) T) *hub[T] {
	return &hub[T]{clients: make(map[int]chan T), merge: merge}
}

// Subscribe registers a client and returns its id and mailbox.
func (h *hub[T]) Subscribe() (int, <-chan T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan T, 1)
	h.clients[id] = ch
	return id, ch
}

// Unsubscribe removes a client and closes its mailbox.
func (h *hub[T]) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[id]; ok {
		close(ch)
		delete(h.clients, id)
	}
}

// Broadcast delivers v to every client, merging with any pending value.
func (h *hub[T]) Broadcast(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.clients {
		select {
		case ch <- v:
			continue
		default:
		}
		// mailbox full: take the pending value out and fold v into it
		out := v
		select {
		case pending := <-ch:
			if h.merge != nil {
				out = h.merge(pending, v)
			}
		default:
		}
		select {
		case ch <- out:
		default:
		}
	}
}
