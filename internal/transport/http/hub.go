package http

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"quiz-battle-service/internal/domain"
)

// Hub tracks live connections and implements app.Notifier. Sends never block:
// a client whose buffer is full misses the frame.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]chan []byte)}
}

func (h *Hub) register(connID string, buffer int) <-chan []byte {
	ch := make(chan []byte, buffer)
	h.mu.Lock()
	h.clients[connID] = ch
	h.mu.Unlock()
	return ch
}

// unregister closes the client's queue, which stops its writer.
func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[connID]; ok {
		delete(h.clients, connID)
		close(ch)
	}
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Send(connID string, event domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("encode event")
		return
	}
	h.push(connID, data)
}

// Lobby evaluates skip outside the hub lock; skip may take match locks.
func (h *Hub) Lobby(event domain.Event, skip func(connID string) bool) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("encode event")
		return
	}
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		if skip != nil && skip(id) {
			continue
		}
		h.push(id, data)
	}
}

func (h *Hub) push(connID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ch, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case ch <- data:
	default:
		log.Warn().Str("conn_id", connID).Msg("send buffer full, dropping frame")
	}
}
